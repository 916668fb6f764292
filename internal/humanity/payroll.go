package humanity

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

type payrollRow struct {
	UserID flexString `json:"userid"`
	Hours  struct {
		Location *struct {
			ID   flexString `json:"id"`
			Name flexString `json:"name"`
		} `json:"location"`
	} `json:"hours"`
}

// FetchHomeLocations 从排班工时报表中取出每个员工的主地点，一天一行，未去重
func (c *Client) FetchHomeLocations(ctx context.Context, token string, dr domain.DateRange) ([]domain.HomeLocationRecord, error) {
	q := url.Values{}
	q.Set("start_date", dr.StartParam())
	q.Set("end_date", dr.EndParam())
	q.Set("type", "scheduledhours")

	const endpoint = "/payroll/report"
	data, err := c.get(ctx, endpoint, token, q)
	if err != nil {
		return nil, err
	}

	return collect(endpoint, c.Mode, data, func(key string, raw json.RawMessage) (domain.HomeLocationRecord, bool, error) {
		return parsePayrollRow(endpoint, key, raw)
	})
}

func parsePayrollRow(endpoint, key string, raw json.RawMessage) (domain.HomeLocationRecord, bool, error) {
	fields := object(raw)
	if fields == nil || !present(fields, "userid") {
		return domain.HomeLocationRecord{}, false, nil
	}

	// 有 userid 的行必须带有 hours.location
	hours := object(fields["hours"])
	if hours == nil {
		return domain.HomeLocationRecord{}, false, &SchemaError{Endpoint: endpoint, Key: key, Field: "hours"}
	}
	if _, ok := hours["location"]; !ok {
		return domain.HomeLocationRecord{}, false, &SchemaError{Endpoint: endpoint, Key: key, Field: "hours.location"}
	}

	var row payrollRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return domain.HomeLocationRecord{}, false, err
	}
	// location 为 null 说明这一天没有地点信息，不能用来确定主地点
	if row.Hours.Location == nil {
		return domain.HomeLocationRecord{}, false, nil
	}

	return domain.HomeLocationRecord{
		EmployeeID:   normalizeID(row.UserID),
		LocationID:   normalizeID(row.Hours.Location.ID),
		LocationName: string(row.Hours.Location.Name),
	}, true, nil
}
