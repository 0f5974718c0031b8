package config

import (
	"Attune/pkg/logger"
	"Attune/pkg/util"
	"log"
	"os"
	"time"
)

// config/config.go
type Config struct {
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	Log       logger.LogConfig

	// 深度分析（LLM）服务
	LLMApiKey       string        `env:"LLM_API_KEY"`
	LLMBaseURL      string        `env:"LLM_BASE_URL"`
	LLMModel        string        `env:"LLM_MODEL"`
	AnalysisTimeout time.Duration `env:"ANALYSIS_TIMEOUT"`

	// 缓存
	CacheType     string `env:"CACHE_TYPE"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// 专业通知渠道
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
	NotifySMSGateway string `env:"NOTIFY_SMS_GATEWAY"`
	NotifySMSTo      string `env:"NOTIFY_SMS_TO"`
	NotifyMaxRetries int    `env:"NOTIFY_MAX_RETRIES"`

	GeoIPPath string `env:"GEOIP_PATH"`

	BackupEnabled  bool   `env:"BACKUP_ENABLED"`
	BackupPath     string `env:"BACKUP_PATH"`
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Addr:      util.GetEnv("ADDR"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnv("API_PREFIX"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		LLMApiKey:        util.GetEnv("LLM_API_KEY"),
		LLMBaseURL:       util.GetEnv("LLM_BASE_URL"),
		LLMModel:         util.GetEnv("LLM_MODEL"),
		AnalysisTimeout:  time.Duration(util.GetIntEnv("ANALYSIS_TIMEOUT_SECONDS")) * time.Second,
		CacheType:        util.GetEnv("CACHE_TYPE"),
		RedisAddr:        util.GetEnv("REDIS_ADDR"),
		RedisPassword:    util.GetEnv("REDIS_PASSWORD"),
		RedisDB:          int(util.GetIntEnv("REDIS_DB")),
		NotifyWebhookURL: util.GetEnv("NOTIFY_WEBHOOK_URL"),
		NotifySMSGateway: util.GetEnv("NOTIFY_SMS_GATEWAY"),
		NotifySMSTo:      util.GetEnv("NOTIFY_SMS_TO"),
		NotifyMaxRetries: int(util.GetIntEnv("NOTIFY_MAX_RETRIES")),
		GeoIPPath:        util.GetEnv("GEOIP_PATH"),
		BackupEnabled:    util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:       util.GetEnv("BACKUP_PATH"),
		BackupSchedule:   util.GetEnv("BACKUP_SCHEDULE"),
	}
	if GlobalConfig.AnalysisTimeout <= 0 {
		GlobalConfig.AnalysisTimeout = 3 * time.Second
	}
	if GlobalConfig.NotifyMaxRetries <= 0 {
		GlobalConfig.NotifyMaxRetries = 5
	}
	return nil
}
