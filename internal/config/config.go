package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"120"` // 上游接口较慢，写超时需要覆盖一次完整的拉取
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN            string `env:"DSN,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"12"` // 小时
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Humanity struct {
		BaseURL        string `env:"BASE_URL" envDefault:"https://www.humanity.com/api/v2"`
		RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"60"`
		DialTimeout    int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		IngestMode     string `env:"INGEST_MODE" envDefault:"validate"` // validate 或 positional
	} `envPrefix:"HUMANITY_"`
	Report struct {
		Variant      string `env:"VARIANT" envDefault:"report"`    // report 或 join
		CacheStore   string `env:"CACHE_STORE" envDefault:"redis"` // redis 或 memory（单实例部署）
		CacheTTL     int    `env:"CACHE_TTL" envDefault:"3600"`
		MaxRangeDays int    `env:"MAX_RANGE_DAYS" envDefault:"93"`
		RecentRuns   int    `env:"RECENT_RUNS" envDefault:"20"`
	} `envPrefix:"REPORT_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Session struct {
		Expiration int `env:"EXPIRATION" envDefault:"43200"` // 12 小时，与 JWT 保持一致
	} `envPrefix:"SESSION_"`
}

func LoadConfig() (*Config, error) {
	// .env 文件不存在时直接使用环境变量
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// LoadHumanityConfig 只解析命令行工具需要的部分，不要求数据库等配置
func LoadHumanityConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(&cfg.Humanity, env.Options{Prefix: "HUMANITY_"}); err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(&cfg.Report, env.Options{Prefix: "REPORT_"}); err != nil {
		return nil, err
	}

	return cfg, nil
}
