package domain

import "time"

type ReportRun struct {
	ID            int64     `json:"id"`
	Variant       Variant   `json:"variant"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	RowCount      int32     `json:"rowCount"`
	MovementCount int32     `json:"movementCount"`
	Failure       string    `json:"failure"` // 为空表示本次查询成功
	CreatedAt     time.Time `json:"createdAt"`
	Version       int32     `json:"-"`
}
