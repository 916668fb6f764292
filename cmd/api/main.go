package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/cache"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/config"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/handler"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/humanity"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/pipeline"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 创建 repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 建立通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	// 声明队列
	_, err = ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	/**********************************************
	 * 创建报表流水线
	 **********************************************/
	mode, err := humanity.ParseIngestMode(cfg.Humanity.IngestMode)
	if err != nil {
		logger.Error("无效的数据读取方式", "error", err)
		return
	}
	client := humanity.NewClient(
		cfg.Humanity.BaseURL,
		mode,
		time.Duration(cfg.Humanity.RequestTimeout)*time.Second,
		time.Duration(cfg.Humanity.DialTimeout)*time.Second,
	)

	strategy, err := pipeline.NewStrategy(domain.Variant(cfg.Report.Variant), client)
	if err != nil {
		logger.Error("无法创建报表流水线", "error", err)
		return
	}

	var reportCache cache.Store
	switch cfg.Report.CacheStore {
	case "redis":
		reportCache = cache.NewRedis(rdb, time.Duration(cfg.Report.CacheTTL)*time.Second)
	case "memory":
		reportCache = cache.NewMemo()
	default:
		logger.Error("不支持的报表缓存方式", "cacheStore", cfg.Report.CacheStore)
		return
	}
	reports := pipeline.NewService(strategy, reportCache)

	// 每次真正向上游拉取都记录一次，命中缓存的不记录
	reports.OnBuild(func(q pipeline.Query, t domain.Table, buildErr error) {
		run := &domain.ReportRun{
			Variant:       strategy.Variant(),
			StartDate:     q.Range.Start,
			EndDate:       q.Range.End,
			RowCount:      int32(t.Len()),
			MovementCount: int32(t.MovementCount()),
			Failure:       string(pipeline.Classify(buildErr)),
		}
		if err := repo.CreateReportRun(run); err != nil {
			logger.Error("无法保存报表记录", "error", err)
		}
	})

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, repo, ch, rdb, reports, reportCache)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port, "variant", strategy.Variant())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
