package domain

import (
	"strconv"
	"time"
)

type Variant string

const (
	VariantReport Variant = "report"
	VariantJoin   Variant = "join"
)

func (v Variant) Valid() bool {
	return v == VariantReport || v == VariantJoin
}

// Column 是表格中一列的逻辑名称，两种方式共用同一套逻辑列
type Column string

const (
	ColumnShiftID      Column = "shift_id"
	ColumnEmployeeID   Column = "employee_id"
	ColumnEmployee     Column = "employee"
	ColumnScheduleID   Column = "schedule_id"
	ColumnScheduleName Column = "schedule_name"
	ColumnLocationID   Column = "location_id"
	ColumnLocation     Column = "location"
	ColumnHomeLocation Column = "home_location"
	ColumnStart        Column = "start"
	ColumnEnd          Column = "end"
	ColumnLength       Column = "length"
	ColumnMovement     Column = "movement"
)

const timeLayout = "2006-01-02 15:04:05"

type Table struct {
	Variant Variant         `json:"variant"`
	Rows    []EnrichedShift `json:"rows"`
}

func EmptyTable(variant Variant) Table {
	return Table{Variant: variant, Rows: []EnrichedShift{}}
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) Columns() []Column {
	if t.Variant == VariantJoin {
		return []Column{
			ColumnStart, ColumnEnd, ColumnLength, ColumnScheduleName,
			ColumnEmployeeID, ColumnEmployee, ColumnLocationID, ColumnLocation,
			ColumnHomeLocation, ColumnMovement,
		}
	}
	return []Column{
		ColumnShiftID, ColumnEmployee, ColumnEmployeeID, ColumnLocation,
		ColumnScheduleID, ColumnScheduleName, ColumnStart, ColumnEnd,
		ColumnLength, ColumnMovement,
	}
}

// Header 返回导出时使用的列名，join 方式沿用原报表的列名
func (t Table) Header(c Column) string {
	if t.Variant == VariantJoin {
		switch c {
		case ColumnStart:
			return "start_timestamp"
		case ColumnEnd:
			return "end_timestamp"
		case ColumnEmployee:
			return "employee_name"
		case ColumnLocationID:
			return "location_id"
		case ColumnLocation:
			return "shift_location"
		case ColumnMovement:
			return "staff_movement"
		}
		return string(c)
	}

	switch c {
	case ColumnShiftID:
		return "id"
	case ColumnEmployeeID:
		return "user"
	case ColumnStart:
		return "start_day"
	case ColumnEnd:
		return "end_day"
	case ColumnLength:
		return "total_time"
	case ColumnMovement:
		return "Movement"
	}
	return string(c)
}

// Value 返回某行某列用于展示和筛选的值，空值返回空字符串
func (t Table) Value(row EnrichedShift, c Column) string {
	switch c {
	case ColumnShiftID:
		return row.ShiftID
	case ColumnEmployeeID:
		return row.EmployeeID
	case ColumnEmployee:
		return row.EmployeeName
	case ColumnScheduleID:
		return row.ScheduleID
	case ColumnScheduleName:
		return row.ScheduleName
	case ColumnLocationID:
		if t.Variant == VariantJoin {
			return deref(row.HomeLocationID)
		}
		return row.LocationID
	case ColumnLocation:
		if t.Variant == VariantJoin {
			return deref(row.ShiftLocation)
		}
		return deref(row.LocationName)
	case ColumnHomeLocation:
		return deref(row.HomeLocation)
	case ColumnStart:
		return formatTime(row.Start)
	case ColumnEnd:
		return formatTime(row.End)
	case ColumnLength:
		return strconv.FormatFloat(row.Length, 'f', -1, 64)
	case ColumnMovement:
		return string(row.Movement)
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func (t Table) MovementCount() int {
	n := 0
	for _, row := range t.Rows {
		if row.Movement == MovementYes {
			n++
		}
	}
	return n
}
