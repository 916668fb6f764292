package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/cache"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/config"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/pipeline"
)

// MailPublisher 由 *amqp.Channel 实现
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ReportRunStore 由 *repository.Repository 实现
type ReportRunStore interface {
	GetReportRunByID(id int64) (*domain.ReportRun, error)
	GetRecentReportRuns(limit int) ([]*domain.ReportRun, error)
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  ReportRunStore
	translator  ut.Translator
	mailChannel MailPublisher
	redisClient *redis.Client
	reports     *pipeline.Service
	reportCache cache.Store

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo ReportRunStore, mailCh MailPublisher, rdb *redis.Client, reports *pipeline.Service, reportCache cache.Store) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,
		reports:     reports,
		reportCache: reportCache,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 会话相关，访问令牌只保存在服务端
	h.Mux.Route("/session", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Post("/logout", h.DeleteSession)
	})

	// 以下 API 必须要在输入访问令牌后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/reports", func(r chi.Router) {
			r.Route("/movement", func(r chi.Router) {
				r.Use(h.reportQuery)
				r.Get("/", h.GetMovementReport)
				r.Get("/options", h.GetMovementReportOptions)
				r.Get("/export", h.ExportMovementReport)
				r.Post("/email", h.EmailMovementReport)
			})
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", h.GetRecentReportRuns)
				r.With(h.reportRun).Get("/{id}", h.GetReportRun)
			})
		})
	})
}
