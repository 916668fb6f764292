package pipeline

import (
	"context"
	"fmt"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/movement"
)

// Fetcher 是上游排班接口，由 humanity.Client 实现
type Fetcher interface {
	FetchCustomReport(ctx context.Context, token string, dr domain.DateRange) ([]domain.ShiftRecord, error)
	FetchShifts(ctx context.Context, token string, dr domain.DateRange) ([]domain.ShiftRecord, error)
	FetchLocations(ctx context.Context, token string) ([]domain.LocationRecord, error)
	FetchHomeLocations(ctx context.Context, token string, dr domain.DateRange) ([]domain.HomeLocationRecord, error)
}

// Strategy 是生成带 Movement 标记的表格的一种方式
type Strategy interface {
	Variant() domain.Variant
	Build(ctx context.Context, token string, dr domain.DateRange) (domain.Table, error)
}

func NewStrategy(variant domain.Variant, fetcher Fetcher) (Strategy, error) {
	switch variant {
	case domain.VariantReport:
		return &ReportStrategy{fetcher: fetcher}, nil
	case domain.VariantJoin:
		return &JoinStrategy{fetcher: fetcher}, nil
	}
	return nil, fmt.Errorf("不支持的报表方式: %s", variant)
}

// ReportStrategy 使用自定义报表，按员工和时间排序后比较相邻两行
type ReportStrategy struct {
	fetcher Fetcher
}

func (s *ReportStrategy) Variant() domain.Variant {
	return domain.VariantReport
}

func (s *ReportStrategy) Build(ctx context.Context, token string, dr domain.DateRange) (domain.Table, error) {
	shifts, err := s.fetcher.FetchCustomReport(ctx, token, dr)
	if err != nil {
		return domain.EmptyTable(domain.VariantReport), err
	}

	rows := movement.DetectSequential(movement.SortForSequence(shifts))
	return domain.Table{Variant: domain.VariantReport, Rows: rows}, nil
}

// JoinStrategy 分别拉取班次、地点和工资报表，关联之后比较班次地点和主地点。
// 每一步都依赖上一步完成，不会并发请求
type JoinStrategy struct {
	fetcher Fetcher
}

func (s *JoinStrategy) Variant() domain.Variant {
	return domain.VariantJoin
}

func (s *JoinStrategy) Build(ctx context.Context, token string, dr domain.DateRange) (domain.Table, error) {
	empty := domain.EmptyTable(domain.VariantJoin)

	shifts, err := s.fetcher.FetchShifts(ctx, token, dr)
	if err != nil {
		return empty, err
	}
	// 没有班次时不需要再请求其他接口
	if len(shifts) == 0 {
		return empty, nil
	}

	locations, err := s.fetcher.FetchLocations(ctx, token)
	if err != nil {
		return empty, err
	}

	homes, err := s.fetcher.FetchHomeLocations(ctx, token, dr)
	if err != nil {
		return empty, err
	}

	joined := movement.Join(shifts, locations, movement.DedupHomeLocations(homes))
	return domain.Table{Variant: domain.VariantJoin, Rows: movement.DetectByLocation(joined)}, nil
}
