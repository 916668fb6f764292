package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/export"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/filter"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/pipeline"
)

type reportColumn struct {
	Name   domain.Column `json:"name"`
	Header string        `json:"header"`
}

type movementReport struct {
	Variant       domain.Variant      `json:"variant"`
	StartDate     string              `json:"startDate"`
	EndDate       string              `json:"endDate"`
	Columns       []reportColumn      `json:"columns"`
	Rows          []map[string]string `json:"rows"`
	TotalRows     int                 `json:"totalRows"`
	FilteredRows  int                 `json:"filteredRows"`
	MovementCount int                 `json:"movementCount"`
	Filters       map[string]string   `json:"filters"`
}

type exportLink struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Href        string `json:"href"`
}

// buildReport 返回完整的表和筛选后的表，失败时两者都是空表
func (h *Handler) buildReport(r *http.Request) (full, filtered domain.Table, failure pipeline.Failure) {
	dr := r.Context().Value(DateRangeCtx).(domain.DateRange)
	criteria := r.Context().Value(CriteriaCtx).(filter.Criteria)

	full, err := h.reports.Report(r.Context(), pipeline.Query{
		Session: sessionFromContext(r.Context()),
		Range:   dr,
		Token:   accessTokenFromContext(r.Context()),
	})

	return full, filter.Apply(full, criteria), pipeline.Classify(err)
}

func sessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(SessionCtxKey).(string)
	return s
}

func accessTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(AccessTokenCtxKey).(string)
	return s
}

func newMovementReport(r *http.Request, full, filtered domain.Table) movementReport {
	dr := r.Context().Value(DateRangeCtx).(domain.DateRange)
	criteria := r.Context().Value(CriteriaCtx).(filter.Criteria)

	columns := make([]reportColumn, 0, len(filtered.Columns()))
	for _, c := range filtered.Columns() {
		columns = append(columns, reportColumn{Name: c, Header: filtered.Header(c)})
	}

	rows := make([]map[string]string, 0, filtered.Len())
	for _, row := range filtered.Rows {
		m := make(map[string]string, len(columns))
		for _, c := range columns {
			m[string(c.Name)] = filtered.Value(row, c.Name)
		}
		rows = append(rows, m)
	}

	return movementReport{
		Variant:       full.Variant,
		StartDate:     dr.StartParam(),
		EndDate:       dr.EndParam(),
		Columns:       columns,
		Rows:          rows,
		TotalRows:     full.Len(),
		FilteredRows:  filtered.Len(),
		MovementCount: filtered.MovementCount(),
		Filters:       criteria.Choices(),
	}
}

func (h *Handler) GetMovementReport(w http.ResponseWriter, r *http.Request) {
	full, filtered, failure := h.buildReport(r)
	report := newMovementReport(r, full, filtered)

	if failure != pipeline.FailureNone {
		h.failureResponse(w, r, failure.Message(), report)
		return
	}

	if full.Len() == 0 {
		h.successResponse(w, r, "所选日期范围内没有数据", report)
		return
	}

	h.successResponse(w, r, "获取报表成功", report)
}

func (h *Handler) GetMovementReportOptions(w http.ResponseWriter, r *http.Request) {
	full, _, failure := h.buildReport(r)
	criteria := r.Context().Value(CriteriaCtx).(filter.Criteria)
	options := filter.Options(full, criteria)

	if failure != pipeline.FailureNone {
		h.failureResponse(w, r, failure.Message(), options)
		return
	}

	h.successResponse(w, r, "获取筛选项成功", options)
}

func (h *Handler) ExportMovementReport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	_, filtered, failure := h.buildReport(r)
	if failure != pipeline.FailureNone {
		h.errorResponse(w, r, failure.Message())
		return
	}

	dr := r.Context().Value(DateRangeCtx).(domain.DateRange)
	payload, err := export.Encode(filtered, export.Filename(dr, format), format)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// link=true 时返回可以直接作为下载链接的 data URI，不直接下载
	if r.URL.Query().Get("link") == "true" {
		h.successResponse(w, r, "导出成功", exportLink{
			Filename:    payload.Filename,
			ContentType: payload.ContentType,
			Href:        payload.DataURI(),
		})
		return
	}

	h.writeFile(w, r, payload)
}

func (h *Handler) EmailMovementReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	_, filtered, failure := h.buildReport(r)
	if failure != pipeline.FailureNone {
		h.errorResponse(w, r, failure.Message())
		return
	}
	if filtered.Len() == 0 {
		h.errorResponse(w, r, "所选日期范围内没有数据")
		return
	}

	dr := r.Context().Value(DateRangeCtx).(domain.DateRange)
	payload, err := export.Encode(filtered, export.Filename(dr, export.FormatCSV), export.FormatCSV)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 准备邮件，附件随消息一起发送
	mailMessage := domain.MailMessage{
		Type: domain.MailTypeMovementReport,
		To:   req.Email,
		Data: domain.MovementReportMailData{
			StartDate:     dr.StartParam(),
			EndDate:       dr.EndParam(),
			Variant:       string(filtered.Variant),
			RowCount:      filtered.Len(),
			MovementCount: filtered.MovementCount(),
			Filename:      payload.Filename,
			Attachment:    payload.Data,
		},
	}

	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 发送邮件到消息队列中
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mailChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         mailData,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "报表已通过邮件发送", nil)
}
