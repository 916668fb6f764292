package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("不支持的导出格式: %s", s)
}

const sheetName = "Staff Movement"

type Payload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// DataURI 返回可以直接放进下载链接 href 中的 data URI
func (p Payload) DataURI() string {
	return "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Filename 是报表下载时默认使用的文件名
func Filename(dr domain.DateRange, format Format) string {
	if format == FormatAuto {
		format = FormatCSV
	}
	return fmt.Sprintf("Staff_Schedules_%s_to_%s.%s", dr.StartParam(), dr.EndParam(), format)
}

// Encode 把任意对象序列化成可供下载的内容：
// 表格默认为 CSV（也可以是 xlsx 或 json），[]byte 原样返回，其余对象序列化为 JSON
func Encode(v any, filename string, format Format) (Payload, error) {
	switch obj := v.(type) {
	case []byte:
		return Payload{Data: obj, Filename: filename, ContentType: "application/octet-stream"}, nil
	case domain.Table:
		return encodeTable(obj, filename, format)
	case *domain.Table:
		if obj == nil {
			return encodeJSON(nil, filename)
		}
		return encodeTable(*obj, filename, format)
	}
	return encodeJSON(v, filename)
}

func encodeTable(t domain.Table, filename string, format Format) (Payload, error) {
	switch format {
	case FormatAuto, FormatCSV:
		data, err := CSV(t)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Data: data, Filename: withExt(filename, FormatCSV), ContentType: "text/csv; charset=utf-8"}, nil
	case FormatXLSX:
		data, err := XLSX(t)
		if err != nil {
			return Payload{}, err
		}
		return Payload{
			Data:        data,
			Filename:    withExt(filename, FormatXLSX),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}, nil
	case FormatJSON:
		return encodeJSON(t, withExt(filename, FormatJSON))
	}
	return Payload{}, fmt.Errorf("不支持的导出格式: %s", format)
}

func encodeJSON(v any, filename string) (Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Data: data, Filename: filename, ContentType: "application/json"}, nil
}

// withExt 替换文件名的后缀使其和实际格式一致
func withExt(filename string, format Format) string {
	if filename == "" {
		return "export." + string(format)
	}
	ext := filepath.Ext(filename)
	if strings.EqualFold(ext, "."+string(format)) {
		return filename
	}
	return strings.TrimSuffix(filename, ext) + "." + string(format)
}

func header(t domain.Table) []string {
	cols := t.Columns()
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, t.Header(c))
	}
	return out
}

func record(t domain.Table, row domain.EnrichedShift) []string {
	cols := t.Columns()
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, t.Value(row, c))
	}
	return out
}

// CSV 输出表头和所有行，不包含行号
func CSV(t domain.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header(t)); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(record(t, row)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func XLSX(t domain.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	writeRow := func(n int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		row := make([]any, 0, len(values))
		for _, v := range values {
			row = append(row, v)
		}
		return f.SetSheetRow(sheetName, cell, &row)
	}

	if err := writeRow(1, header(t)); err != nil {
		return nil, err
	}
	for i, r := range t.Rows {
		if err := writeRow(i+2, record(t, r)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
