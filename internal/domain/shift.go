package domain

import "time"

type Movement string

const (
	MovementYes Movement = "Movement"
	MovementNo  Movement = "No Movement"
)

// ShiftRecord: 排班系统中某个员工的一个班次，解析后不再修改
type ShiftRecord struct {
	ShiftID      string    `json:"shiftID"`
	EmployeeID   string    `json:"employeeID"`
	EmployeeName string    `json:"employeeName"`
	ScheduleID   string    `json:"scheduleID"`
	ScheduleName string    `json:"scheduleName"`
	LocationID   string    `json:"locationID"`
	LocationName *string   `json:"locationName"` // 为 nil 时表示地点未知
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Length       float64   `json:"length"` // 单位：小时
}

type LocationRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HomeLocationRecord: 从工资报表中得到的员工主地点
type HomeLocationRecord struct {
	EmployeeID   string `json:"employeeID"`
	LocationID   string `json:"locationID"`
	LocationName string `json:"locationName"`
}

type EnrichedShift struct {
	ShiftRecord
	Movement Movement `json:"movement"`

	// 以下字段只有 join 方式才会填充
	ShiftLocation  *string `json:"shiftLocation,omitempty"`
	HomeLocation   *string `json:"homeLocation,omitempty"`
	HomeLocationID *string `json:"homeLocationID,omitempty"`
}
