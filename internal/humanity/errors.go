package humanity

import (
	"errors"
	"fmt"
)

// ErrSchema 表示上游返回的数据结构与预期不符
var ErrSchema = errors.New("排班服务返回的数据结构异常")

// ErrDataUnavailable 表示响应中缺少顶层的 data 字段
var ErrDataUnavailable = fmt.Errorf("%w: 缺少 data 字段", ErrSchema)

// TransportError 表示连接失败或者非 2xx 的响应
type TransportError struct {
	Endpoint   string
	StatusCode int // 连接失败时为 0
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s 返回状态码 %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("无法请求 %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError 表示上游返回了 2xx 但是在响应体中报告了错误（例如令牌无效）
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s 返回错误 (status=%d): %s", e.Endpoint, e.Status, e.Message)
}

// SchemaError 表示某条记录缺少必需的嵌套字段
type SchemaError struct {
	Endpoint string
	Key      string
	Field    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s 的记录 %s 缺少字段 %s", e.Endpoint, e.Key, e.Field)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// ParseError 表示某个字段无法解析，Field 为出错的字段名
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("字段 %s 的值 %q 无法解析: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
