package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

// ParseDateRange 解析 YYYY-MM-DD 格式的开始和结束日期
func ParseDateRange(startDate, endDate string) (domain.DateRange, error) {
	start, err := time.Parse(domain.DateLayout, strings.TrimSpace(startDate))
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("开始日期格式错误，应为 YYYY-MM-DD")
	}
	end, err := time.Parse(domain.DateLayout, strings.TrimSpace(endDate))
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("结束日期格式错误，应为 YYYY-MM-DD")
	}

	return domain.DateRange{Start: start, End: end}, nil
}

// ValidateDateRange maxDays 小于等于 0 时不限制跨度
func ValidateDateRange(dr domain.DateRange, maxDays int) error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return errors.New("开始日期和结束日期都不能为空")
	}

	if dr.End.Before(dr.Start) {
		return errors.New("结束日期不能早于开始日期")
	}

	days := int(dr.End.Sub(dr.Start).Hours()/24) + 1
	if maxDays > 0 && days > maxDays {
		return fmt.Errorf("查询跨度不能超过 %d 天", maxDays)
	}

	return nil
}
