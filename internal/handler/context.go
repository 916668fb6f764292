package handler

type ContextKey string

var (
	SessionCtxKey     ContextKey = "session"
	AccessTokenCtxKey ContextKey = "accessToken"
	DateRangeCtx      ContextKey = "dateRange"
	CriteriaCtx       ContextKey = "criteria"
	ReportRunCtx      ContextKey = "reportRun"
)
