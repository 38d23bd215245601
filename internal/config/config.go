package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/printdesk-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Upload    UploadConfig    `mapstructure:"upload"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Order     OrderConfig     `mapstructure:"order"`
	Seed      SeedConfig      `mapstructure:"seed"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
	LogSQL bool               `mapstructure:"log_sql"`
}

// JWTConfig JWT 校验配置（令牌由外部身份服务签发）
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	Driver string             `mapstructure:"driver"` // local / s3
	Local  LocalStorageConfig `mapstructure:"local"`
	S3     S3StorageConfig    `mapstructure:"s3"`
}

// LocalStorageConfig 本地磁盘存储配置
type LocalStorageConfig struct {
	Root      string `mapstructure:"root"`
	PublicURL string `mapstructure:"public_url"`
}

// S3StorageConfig S3 兼容存储配置
type S3StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	PublicURL       string `mapstructure:"public_url"`
	PresignMinutes  int    `mapstructure:"presign_minutes"`
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`
	MaxFiles          int      `mapstructure:"max_files"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// RateLimitConfig 写操作限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	LockTimeoutMS             int `mapstructure:"lock_timeout_ms"`
	LockTTLSeconds            int `mapstructure:"lock_ttl_seconds"`
	SummaryCacheTTLSeconds    int `mapstructure:"summary_cache_ttl_seconds"`
	ReconcileIntervalSeconds  int `mapstructure:"reconcile_interval_seconds"`
	ReconcileBatchSize        int `mapstructure:"reconcile_batch_size"`
	QuotationValidDaysDefault int `mapstructure:"quotation_valid_days_default"`
}

// LockTimeout 等待订单锁的最长时间
func (c OrderConfig) LockTimeout() time.Duration {
	if c.LockTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

// LockTTL 分布式锁过期时间
func (c OrderConfig) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// SummaryCacheTTL 订单概要缓存时长
func (c OrderConfig) SummaryCacheTTL() time.Duration {
	if c.SummaryCacheTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.SummaryCacheTTLSeconds) * time.Second
}

// ReconcileInterval 后台巡检间隔
func (c OrderConfig) ReconcileInterval() time.Duration {
	if c.ReconcileIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// SeedConfig 初始化数据配置
type SeedConfig struct {
	CompanyName      string `mapstructure:"company_name"`
	BaseCurrencyCode string `mapstructure:"base_currency_code"`
	AdminUserID      string `mapstructure:"admin_user_id"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/printdesk.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("database.log_sql", false)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "pd")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.root", "./uploads")
	v.SetDefault("storage.local.public_url", "/uploads")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", false)
	v.SetDefault("storage.s3.presign_minutes", 60)
	v.SetDefault("upload.max_size", 52428800)
	v.SetDefault("upload.max_files", 10)
	v.SetDefault("upload.allowed_extensions", []string{
		".jpg", ".jpeg", ".png", ".gif", ".webp",
		".pdf", ".ai", ".eps", ".psd", ".svg", ".tif", ".tiff",
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.max_requests", 120)
	v.SetDefault("order.lock_timeout_ms", 5000)
	v.SetDefault("order.lock_ttl_seconds", 30)
	v.SetDefault("order.summary_cache_ttl_seconds", 600)
	v.SetDefault("order.reconcile_interval_seconds", 60)
	v.SetDefault("order.reconcile_batch_size", 200)
	v.SetDefault("order.quotation_valid_days_default", 30)
	v.SetDefault("seed.company_name", "Default Print Shop")
	v.SetDefault("seed.base_currency_code", "USD")
	v.SetDefault("seed.admin_user_id", "")
}
