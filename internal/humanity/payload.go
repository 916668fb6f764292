package humanity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type IngestMode string

const (
	// IngestValidate 跳过所有不像记录的项（默认）
	IngestValidate IngestMode = "validate"
	// IngestPositional 无条件丢弃 data 映射中的第一项，与最初观察到的接口行为一致
	IngestPositional IngestMode = "positional"
)

func ParseIngestMode(s string) (IngestMode, error) {
	switch IngestMode(s) {
	case IngestValidate, IngestPositional:
		return IngestMode(s), nil
	case "":
		return IngestValidate, nil
	}
	return "", fmt.Errorf("不支持的 ingest mode: %s", s)
}

type envelope struct {
	Status int             `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

type entry struct {
	Key string
	Raw json.RawMessage
}

// decodeEntries 按原始顺序展开 data，data 可能是对象（键没有意义）也可能是数组
func decodeEntries(data json.RawMessage) ([]entry, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []entry{}, false, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, false, err
		}
		entries := make([]entry, 0, len(items))
		for i, item := range items {
			entries = append(entries, entry{Key: strconv.Itoa(i), Raw: item})
		}
		return entries, false, nil
	case '{':
		// map 会丢失顺序，所以这里需要逐个 token 读取
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil {
			return nil, true, err
		}
		entries := make([]entry, 0)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, true, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, true, fmt.Errorf("data 中出现非字符串的键 %v", tok)
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, true, err
			}
			entries = append(entries, entry{Key: key, Raw: raw})
		}
		return entries, true, nil
	}

	return nil, false, fmt.Errorf("%w: data 既不是对象也不是数组", ErrSchema)
}

// parseFunc 把一项解析成记录，ok 为 false 表示这一项不是记录（例如元数据）
type parseFunc[T any] func(key string, raw json.RawMessage) (rec T, ok bool, err error)

func collect[T any](endpoint string, mode IngestMode, data json.RawMessage, parse parseFunc[T]) ([]T, error) {
	entries, isObject, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	out := make([]T, 0, len(entries))
	for i, e := range entries {
		first := i == 0 && isObject
		if first && mode == IngestPositional {
			continue
		}

		rec, ok, err := parse(e.Key, e.Raw)
		if err != nil {
			return nil, fmt.Errorf("%s 的记录 %s: %w", endpoint, e.Key, err)
		}
		if !ok {
			if !first {
				slog.Warn("跳过无法识别的记录", "endpoint", endpoint, "key", e.Key)
			}
			continue
		}
		if first {
			slog.Warn("data 的第一项是有效记录，与元数据在首位的假设不符", "endpoint", endpoint, "key", e.Key)
		}
		out = append(out, rec)
	}

	return out, nil
}

// object 把一项解析成字段表，如果不是对象则返回 nil
func object(raw json.RawMessage) map[string]json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}
	return fields
}

func present(fields map[string]json.RawMessage, names ...string) bool {
	for _, name := range names {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return false
		}
	}
	return true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// flexString 兼容上游接口中字符串和数字混用的情况
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if isNull(trimmed) {
		*f = ""
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
	case '{', '[':
		return errors.New("期望标量，得到对象或数组")
	default:
		*f = flexString(trimmed)
	}
	return nil
}

// normalizeID 把 "12"、12、12.0 统一成 "12"
func normalizeID(s flexString) string {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil && n == float64(int64(n)) && !strings.ContainsAny(v, "eE") {
		return strconv.FormatInt(int64(n), 10)
	}
	return v
}

func parseFloat(field string, s flexString) (float64, error) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: v, Err: err}
	}
	return n, nil
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"Jan 2, 2006",
	"Jan 2, 2006 15:04",
	"Mon, Jan 2, 2006",
	"Mon Jan 2, 2006",
	"01/02/2006",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04pm",
	"3:04 pm",
	"3:04PM",
	"3:04 PM",
	"3pm",
	"3PM",
}

func parseDate(field string, s flexString) (time.Time, error) {
	v := strings.TrimSpace(string(s))
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	if v == "" {
		return time.Time{}, &ParseError{Field: field, Value: v, Err: errors.New("日期为空")}
	}
	return time.Time{}, &ParseError{Field: field, Value: v, Err: errors.New("无法识别的日期格式")}
}

// withClock 把形如 "9:00am" 的时间叠加到日期上，空字符串表示没有时间部分
func withClock(field string, day time.Time, s flexString) (time.Time, error) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return day, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := day.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, &ParseError{Field: field, Value: v, Err: errors.New("无法识别的时间格式")}
}
