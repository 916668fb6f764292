package humanity

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

const customReportFields = "id,employee,eid,user,location,schedule_id,schedule_name,start_day,end_day,start_time,end_time,total_time"

type customReportRow struct {
	ID           flexString `json:"id"`
	Employee     flexString `json:"employee"`
	EID          flexString `json:"eid"`
	User         flexString `json:"user"`
	Location     flexString `json:"location"`
	ScheduleID   flexString `json:"schedule_id"`
	ScheduleName flexString `json:"schedule_name"`
	StartDay     flexString `json:"start_day"`
	EndDay       flexString `json:"end_day"`
	StartTime    flexString `json:"start_time"`
	EndTime      flexString `json:"end_time"`
	TotalTime    flexString `json:"total_time"`
}

// FetchCustomReport 拉取自定义报表，每一行已经带有员工、地点和班表名称
func (c *Client) FetchCustomReport(ctx context.Context, token string, dr domain.DateRange) ([]domain.ShiftRecord, error) {
	q := url.Values{}
	q.Set("start_date", dr.StartParam())
	q.Set("end_date", dr.EndParam())
	q.Set("fields", customReportFields)
	q.Set("type", "shifts")

	const endpoint = "/reports/custom"
	data, err := c.get(ctx, endpoint, token, q)
	if err != nil {
		return nil, err
	}

	return collect(endpoint, c.Mode, data, parseCustomReportRow)
}

func parseCustomReportRow(_ string, raw json.RawMessage) (domain.ShiftRecord, bool, error) {
	fields := object(raw)
	if fields == nil || !present(fields, "start_day") {
		return domain.ShiftRecord{}, false, nil
	}
	if !present(fields, "employee") && !present(fields, "user") && !present(fields, "eid") {
		return domain.ShiftRecord{}, false, nil
	}

	var row customReportRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return domain.ShiftRecord{}, false, err
	}

	startDay, err := parseDate("start_day", row.StartDay)
	if err != nil {
		return domain.ShiftRecord{}, false, err
	}
	start, err := withClock("start_time", startDay, row.StartTime)
	if err != nil {
		return domain.ShiftRecord{}, false, err
	}

	// 没有 end_day 时视为当天结束
	endDay := startDay
	if row.EndDay != "" {
		if endDay, err = parseDate("end_day", row.EndDay); err != nil {
			return domain.ShiftRecord{}, false, err
		}
	}
	end, err := withClock("end_time", endDay, row.EndTime)
	if err != nil {
		return domain.ShiftRecord{}, false, err
	}

	length, err := parseFloat("total_time", row.TotalTime)
	if err != nil {
		return domain.ShiftRecord{}, false, err
	}

	employeeID := normalizeID(row.User)
	if employeeID == "" {
		employeeID = normalizeID(row.EID)
	}

	rec := domain.ShiftRecord{
		ShiftID:      normalizeID(row.ID),
		EmployeeID:   employeeID,
		EmployeeName: string(row.Employee),
		ScheduleID:   normalizeID(row.ScheduleID),
		ScheduleName: string(row.ScheduleName),
		Start:        start,
		End:          end,
		Length:       length,
	}
	if row.Location != "" {
		location := string(row.Location)
		rec.LocationName = &location
	}

	return rec, true, nil
}
