package pipeline

import (
	"context"
	"log/slog"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/cache"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

type Query struct {
	Session string
	Range   domain.DateRange
	Token   string
}

// BuildHook 在每次真正向上游拉取之后调用，命中缓存时不会调用
type BuildHook func(q Query, t domain.Table, err error)

type Service struct {
	strategy Strategy
	cache    cache.Store
	onBuild  BuildHook
}

// NewService 中 store 可以为 nil，此时每次都会重新拉取
func NewService(strategy Strategy, store cache.Store) *Service {
	return &Service{
		strategy: strategy,
		cache:    store,
	}
}

func (s *Service) OnBuild(hook BuildHook) {
	s.onBuild = hook
}

func (s *Service) Variant() domain.Variant {
	return s.strategy.Variant()
}

// Report 总是返回一张可以展示的表，失败时表为空，错误交给调用方展示
func (s *Service) Report(ctx context.Context, q Query) (domain.Table, error) {
	variant := s.strategy.Variant()
	key := cache.NewKey(variant, q.Range, q.Token)

	if s.cache != nil {
		t, ok, err := s.cache.Get(ctx, q.Session, key)
		if err != nil {
			// 缓存不可用时直接拉取
			slog.Warn("读取报表缓存失败", "session", q.Session, "error", err)
		} else if ok {
			return t, nil
		}
	}

	t, err := s.strategy.Build(ctx, q.Token, q.Range)
	if s.onBuild != nil {
		s.onBuild(q, t, err)
	}
	if err != nil {
		slog.Error("生成报表失败",
			"variant", variant,
			"startDate", q.Range.StartParam(),
			"endDate", q.Range.EndParam(),
			"failure", Classify(err),
			"error", err,
		)
		return domain.EmptyTable(variant), err
	}
	if t.Rows == nil {
		t.Rows = []domain.EnrichedShift{}
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, q.Session, key, t); err != nil {
			slog.Warn("写入报表缓存失败", "session", q.Session, "error", err)
		}
	}

	return t, nil
}
