package filter

import (
	"net/url"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

// All 表示该列不做筛选
const All = "All"

// Blank 代表空值，使空值也能作为一个筛选项被选中
const Blank = "(空)"

// Columns 是允许筛选的列，筛选按这个顺序依次进行
var Columns = []domain.Column{
	domain.ColumnScheduleName,
	domain.ColumnEmployee,
	domain.ColumnLocation,
	domain.ColumnMovement,
}

// Criteria 是不可变的筛选条件，With 总是返回新的值
type Criteria struct {
	choices map[domain.Column]string
}

func NewCriteria() Criteria {
	return Criteria{}
}

// FromValues 从查询参数中读取筛选条件，只识别允许筛选的列
func FromValues(values url.Values) Criteria {
	c := NewCriteria()
	for _, col := range Columns {
		c = c.With(col, values.Get(string(col)))
	}
	return c
}

func (c Criteria) With(col domain.Column, value string) Criteria {
	if !slices.Contains(Columns, col) {
		return c
	}

	next := make(map[domain.Column]string, len(c.choices)+1)
	for k, v := range c.choices {
		next[k] = v
	}

	value = strings.TrimSpace(value)
	if value == "" || value == All {
		delete(next, col)
	} else {
		next[col] = value
	}

	return Criteria{choices: next}
}

func (c Criteria) Choice(col domain.Column) string {
	if v, ok := c.choices[col]; ok {
		return v
	}
	return All
}

// Choices 按筛选顺序返回非 All 的条件
func (c Criteria) Choices() map[string]string {
	out := make(map[string]string, len(c.choices))
	for _, col := range Columns {
		if v, ok := c.choices[col]; ok {
			out[string(col)] = v
		}
	}
	return out
}

type ColumnOptions struct {
	Column   domain.Column `json:"column"`
	Header   string        `json:"header"`
	Values   []string      `json:"values"`
	Selected string        `json:"selected"`
}

// Apply 按列顺序依次做精确匹配，各列之间是 AND 关系，不修改传入的表
func Apply(t domain.Table, c Criteria) domain.Table {
	rows := slices.Clone(t.Rows)
	if rows == nil {
		rows = []domain.EnrichedShift{}
	}

	for _, col := range filterable(t) {
		choice := c.Choice(col)
		if choice == All {
			continue
		}
		rows = narrow(t, rows, col, choice)
	}

	return domain.Table{Variant: t.Variant, Rows: rows}
}

// Options 计算每一列的可选值：第 k 列的可选值来自于已经按前 k-1 列筛选后的表，
// 第一个可选值总是 All，其余按首次出现的顺序排列
func Options(t domain.Table, c Criteria) []ColumnOptions {
	rows := t.Rows
	out := make([]ColumnOptions, 0, len(Columns))

	for _, col := range filterable(t) {
		values := []string{All}
		seen := map[string]struct{}{All: {}}
		for _, row := range rows {
			v := display(t, row, col)
			if _, exists := seen[v]; exists {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}

		choice := c.Choice(col)
		out = append(out, ColumnOptions{
			Column:   col,
			Header:   t.Header(col),
			Values:   values,
			Selected: choice,
		})

		if choice != All {
			rows = narrow(t, rows, col, choice)
		}
	}

	return out
}

func filterable(t domain.Table) []domain.Column {
	present := t.Columns()
	cols := make([]domain.Column, 0, len(Columns))
	for _, col := range Columns {
		if slices.Contains(present, col) {
			cols = append(cols, col)
		}
	}
	return cols
}

func narrow(t domain.Table, rows []domain.EnrichedShift, col domain.Column, choice string) []domain.EnrichedShift {
	out := make([]domain.EnrichedShift, 0, len(rows))
	for _, row := range rows {
		if display(t, row, col) == choice {
			out = append(out, row)
		}
	}
	return out
}

func display(t domain.Table, row domain.EnrichedShift, col domain.Column) string {
	if v := t.Value(row, col); v != "" {
		return v
	}
	return Blank
}
