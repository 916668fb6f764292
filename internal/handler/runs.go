package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

func (h *Handler) GetRecentReportRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repository.GetRecentReportRuns(h.config.Report.RecentRuns)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取报表记录成功", runs)
}

func (h *Handler) GetReportRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(ReportRunCtx).(*domain.ReportRun)

	h.successResponse(w, r, "获取报表记录成功", run)
}
