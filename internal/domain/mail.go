package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypeMovementReport = "movement_report"

type MovementReportMailData struct {
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Variant       string `json:"variant"`
	RowCount      int    `json:"rowCount"`
	MovementCount int    `json:"movementCount"`
	Filename      string `json:"filename"`
	Attachment    []byte `json:"attachment"` // CSV 内容，json 序列化时为 base64
}
