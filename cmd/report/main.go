package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/config"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/export"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/filter"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/humanity"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/pipeline"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/utils"
)

func main() {
	var startDate, endDate, variant, format, out, token string
	var scheduleName, employee, location, movement string

	flag.StringVar(&startDate, "start", "", "开始日期 (YYYY-MM-DD)")
	flag.StringVar(&endDate, "end", "", "结束日期 (YYYY-MM-DD)")
	flag.StringVar(&variant, "variant", "", "报表方式 (report 或 join)，为空时使用 REPORT_VARIANT")
	flag.StringVar(&format, "format", "csv", "导出格式 (csv, xlsx 或 json)")
	flag.StringVar(&out, "out", "", "输出文件路径，为空时使用默认文件名")
	flag.StringVar(&token, "token", "", "Humanity 访问令牌，为空时使用 HUMANITY_ACCESS_TOKEN")
	flag.StringVar(&scheduleName, "schedule", filter.All, "按 schedule 筛选")
	flag.StringVar(&employee, "employee", filter.All, "按员工筛选")
	flag.StringVar(&location, "location", filter.All, "按地点筛选")
	flag.StringVar(&movement, "movement", filter.All, "按 Movement 筛选")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件，命令行工具不需要数据库等配置
	cfg, err := config.LoadHumanityConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if token == "" {
		token = os.Getenv("HUMANITY_ACCESS_TOKEN")
	}
	if token == "" {
		logger.Error("未提供访问令牌")
		os.Exit(1)
	}
	if variant == "" {
		variant = cfg.Report.Variant
	}

	dr, err := utils.ParseDateRange(startDate, endDate)
	if err != nil {
		logger.Error("日期参数错误", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := utils.ValidateDateRange(dr, cfg.Report.MaxRangeDays); err != nil {
		logger.Error("日期参数错误", slog.String("error", err.Error()))
		os.Exit(1)
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		logger.Error("导出格式错误", slog.String("error", err.Error()))
		os.Exit(1)
	}

	mode, err := humanity.ParseIngestMode(cfg.Humanity.IngestMode)
	if err != nil {
		logger.Error("无效的数据读取方式", slog.String("error", err.Error()))
		os.Exit(1)
	}
	client := humanity.NewClient(
		cfg.Humanity.BaseURL,
		mode,
		time.Duration(cfg.Humanity.RequestTimeout)*time.Second,
		time.Duration(cfg.Humanity.DialTimeout)*time.Second,
	)

	strategy, err := pipeline.NewStrategy(domain.Variant(variant), client)
	if err != nil {
		logger.Error("无法创建报表流水线", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 生成报表，只查询一次，不需要缓存
	service := pipeline.NewService(strategy, nil)
	table, err := service.Report(context.Background(), pipeline.Query{Session: "cli", Range: dr, Token: token})
	if err != nil {
		logger.Error(pipeline.Classify(err).Message(), slog.String("error", err.Error()))
		os.Exit(1)
	}

	criteria := filter.NewCriteria().
		With(domain.ColumnScheduleName, scheduleName).
		With(domain.ColumnEmployee, employee).
		With(domain.ColumnLocation, location).
		With(domain.ColumnMovement, movement)
	filtered := filter.Apply(table, criteria)

	// 导出
	filename := export.Filename(dr, f)
	if out != "" {
		filename = out
	}
	payload, err := export.Encode(filtered, filename, f)
	if err != nil {
		logger.Error("无法导出报表", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := os.WriteFile(payload.Filename, payload.Data, 0o644); err != nil {
		logger.Error("无法写入文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("报表已导出",
		slog.String("file", payload.Filename),
		slog.String("variant", string(strategy.Variant())),
		slog.Int("totalRows", table.Len()),
		slog.Int("rows", filtered.Len()),
		slog.Int("movement", filtered.MovementCount()),
	)
}
