package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	// 运行环境
	AppEnv     string
	ServerPort string

	// 数据库
	DatabaseDSN string

	// 上游市场 API
	MarketAPIBaseURL string
	MarketAPITimeout time.Duration
	MarketAPIDebug   bool

	// JWT
	JWTSecret string

	// Redis（为空时使用内存缓存）
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// 缓存与会话
	CategoryCacheTTL time.Duration
	DraftSessionTTL  time.Duration

	// 提交流水保留时长
	SubmissionLogRetention time.Duration

	// 媒体上传
	// false: 所有图片 sort_order 固定为 "0"（与旧前端行为一致）
	// true: 按暂存区位置依次编号
	MediaPositionalSortOrder bool

	// 限流
	RateLimitRPS   float64
	RateLimitBurst int
}

// setDefaults 默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("MARKET_API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("MARKET_API_TIMEOUT", "30s")
	v.SetDefault("MARKET_API_DEBUG", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATEGORY_CACHE_TTL", "10m")
	v.SetDefault("DRAFT_SESSION_TTL", "2h")
	v.SetDefault("SUBMISSION_LOG_RETENTION", "2160h")
	v.SetDefault("MEDIA_POSITIONAL_SORT_ORDER", false)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
}

// Load 加载配置
// 优先级：环境变量 > 配置文件 > 默认值
// configFile 为空时依次尝试 ./config.yaml、./.env，均不存在也不报错
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		for _, candidate := range []string{"config.yaml", ".env"} {
			v.SetConfigFile(candidate)
			if err := v.ReadInConfig(); err == nil {
				break
			}
		}
	}

	cfg := &Config{
		AppEnv:                   v.GetString("APP_ENV"),
		ServerPort:               v.GetString("SERVER_PORT"),
		DatabaseDSN:              v.GetString("DATABASE_DSN"),
		MarketAPIBaseURL:         strings.TrimRight(v.GetString("MARKET_API_BASE_URL"), "/"),
		MarketAPITimeout:         v.GetDuration("MARKET_API_TIMEOUT"),
		MarketAPIDebug:           v.GetBool("MARKET_API_DEBUG"),
		JWTSecret:                v.GetString("JWT_SECRET"),
		RedisAddr:                v.GetString("REDIS_ADDR"),
		RedisPassword:            v.GetString("REDIS_PASSWORD"),
		RedisDB:                  v.GetInt("REDIS_DB"),
		CategoryCacheTTL:         v.GetDuration("CATEGORY_CACHE_TTL"),
		DraftSessionTTL:          v.GetDuration("DRAFT_SESSION_TTL"),
		SubmissionLogRetention:   v.GetDuration("SUBMISSION_LOG_RETENTION"),
		MediaPositionalSortOrder: v.GetBool("MEDIA_POSITIONAL_SORT_ORDER"),
		RateLimitRPS:             v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:           v.GetInt("RATE_LIMIT_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	if c.MarketAPIBaseURL == "" {
		return errors.New("MARKET_API_BASE_URL 不能为空")
	}
	if c.MarketAPITimeout <= 0 {
		return errors.New("MARKET_API_TIMEOUT 必须大于 0")
	}
	if c.DraftSessionTTL <= 0 {
		return errors.New("DRAFT_SESSION_TTL 必须大于 0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("限流参数必须大于 0")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("生产环境必须配置 JWT_SECRET")
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
