package pipeline

import (
	"context"
	"errors"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/humanity"
)

type Failure string

const (
	FailureNone    Failure = ""
	FailureNetwork Failure = "network"
	FailureSchema  Failure = "schema"
	FailureParse   Failure = "parse"
)

// Classify 把错误归类，空结果不是错误
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}

	var (
		transportErr *humanity.TransportError
		apiErr       *humanity.APIError
		parseErr     *humanity.ParseError
	)
	switch {
	case errors.As(err, &parseErr):
		return FailureParse
	case errors.As(err, &transportErr),
		errors.As(err, &apiErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return FailureNetwork
	}
	return FailureSchema
}

// Message 是展示给用户的失败原因
func (f Failure) Message() string {
	switch f {
	case FailureNetwork:
		return "无法从排班服务获取数据，请检查访问令牌或稍后再试"
	case FailureSchema:
		return "排班服务返回的数据格式异常，暂时无法生成报表"
	case FailureParse:
		return "排班服务返回的数据中存在无法解析的字段"
	}
	return ""
}
