package humanity

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

type shiftRow struct {
	ID                 flexString      `json:"id"`
	StartTimestamp     flexString      `json:"start_timestamp"`
	EndTimestamp       flexString      `json:"end_timestamp"`
	Length             flexString      `json:"length"`
	Schedule           flexString      `json:"schedule"`
	ScheduleName       flexString      `json:"schedule_name"`
	ScheduleLocationID flexString      `json:"schedule_location_id"`
	Employees          json.RawMessage `json:"employees"`
}

type shiftEmployee struct {
	ID   flexString `json:"id"`
	Name flexString `json:"name"`
}

// FetchShifts 拉取班次列表，地点只有 id，需要和地点列表关联
func (c *Client) FetchShifts(ctx context.Context, token string, dr domain.DateRange) ([]domain.ShiftRecord, error) {
	q := url.Values{}
	q.Set("start_date", dr.StartParam())
	q.Set("end_date", dr.EndParam())

	const endpoint = "/shifts"
	data, err := c.get(ctx, endpoint, token, q)
	if err != nil {
		return nil, err
	}

	return collect(endpoint, c.Mode, data, parseShiftRow)
}

func parseShiftRow(_ string, raw json.RawMessage) (domain.ShiftRecord, bool, error) {
	fields := object(raw)
	if fields == nil || !present(fields, "start_timestamp") {
		return domain.ShiftRecord{}, false, nil
	}

	var row shiftRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return domain.ShiftRecord{}, false, err
	}

	start, err := parseDate("start_timestamp", row.StartTimestamp)
	if err != nil {
		return domain.ShiftRecord{}, false, err
	}
	end := start
	if row.EndTimestamp != "" {
		if end, err = parseDate("end_timestamp", row.EndTimestamp); err != nil {
			return domain.ShiftRecord{}, false, err
		}
	}
	length, err := parseFloat("length", row.Length)
	if err != nil {
		return domain.ShiftRecord{}, false, err
	}

	rec := domain.ShiftRecord{
		ShiftID:      normalizeID(row.ID),
		ScheduleID:   normalizeID(row.Schedule),
		ScheduleName: string(row.ScheduleName),
		LocationID:   normalizeID(row.ScheduleLocationID),
		Start:        start,
		End:          end,
		Length:       length,
	}

	// employees 是只有一个元素的列表，展开成 employee_id 和 employee_name
	if employee, ok := firstEmployee(row.Employees); ok {
		rec.EmployeeID = normalizeID(employee.ID)
		rec.EmployeeName = string(employee.Name)
	}

	return rec, true, nil
}

// firstEmployee 未分配员工的班次上游可能返回 null、false 或空列表
func firstEmployee(raw json.RawMessage) (shiftEmployee, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return shiftEmployee{}, false
	}

	var employees []shiftEmployee
	if err := json.Unmarshal(trimmed, &employees); err != nil || len(employees) == 0 {
		return shiftEmployee{}, false
	}
	return employees[0], true
}
