package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Ontology  OntologyConfig  `mapstructure:"ontology"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置（serve 模式）
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ResolverConfig 解析管線設定
type ResolverConfig struct {
	InputPath     string `mapstructure:"input_path"`
	OutputPath    string `mapstructure:"output_path"`
	DictionaryDir string `mapstructure:"dictionary_dir"`
	Workers       int    `mapstructure:"workers"`
	Force         bool   `mapstructure:"force"`         // 強制重新解析已映射的項目
	RefreshCache  bool   `mapstructure:"refresh_cache"` // 跳過快取讀取，重新查詢
}

// OntologyConfig 本體查詢服務設定
type OntologyConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MinInterval    time.Duration `mapstructure:"min_interval"`    // 同一服務兩次請求的最小間隔
	MaxInFlight    int           `mapstructure:"max_in_flight"`   // 同時在途請求上限
	MaxRetries     int           `mapstructure:"max_retries"`     // 暫時性錯誤的重試次數
	InitialBackoff time.Duration `mapstructure:"initial_backoff"` // 重試起始延遲
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`     // 重試延遲上限
	RowLimit       int           `mapstructure:"row_limit"`       // 每次搜尋取回的候選數
}

// CacheConfig 查詢快取設定
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"` // sqlite 或 redis
	Path    string `mapstructure:"path"`    // sqlite 檔案路徑
	Addr    string `mapstructure:"addr"`    // redis 位址
}

// RateLimitConfig API 限流配置（serve 模式）
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("ontology.base_url", "OLS_BASE_URL")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.backend", "CACHE_BACKEND")
	viper.BindEnv("cache.path", "CACHE_PATH")
	viper.BindEnv("cache.addr", "REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "culturemech-resolver")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 解析管線設定
	viper.SetDefault("resolver.input_path", "data/ingredients.tsv")
	viper.SetDefault("resolver.output_path", "data/ingredient_mappings.sssom.tsv")
	viper.SetDefault("resolver.dictionary_dir", "data/dictionaries")
	viper.SetDefault("resolver.workers", 4)
	viper.SetDefault("resolver.force", false)
	viper.SetDefault("resolver.refresh_cache", false)

	// 本體服務設定
	viper.SetDefault("ontology.base_url", "https://www.ebi.ac.uk/ols4/api")
	viper.SetDefault("ontology.timeout", "30s")
	viper.SetDefault("ontology.min_interval", "200ms")
	viper.SetDefault("ontology.max_in_flight", 2)
	viper.SetDefault("ontology.max_retries", 3)
	viper.SetDefault("ontology.initial_backoff", "500ms")
	viper.SetDefault("ontology.max_backoff", "8s")
	viper.SetDefault("ontology.row_limit", 10)

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "sqlite")
	viper.SetDefault("cache.path", "data/lookup_cache.db")
	viper.SetDefault("cache.addr", "localhost:6379")

	// 限流設定（serve 模式）
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證解析管線設定
	if config.Resolver.Workers <= 0 {
		return fmt.Errorf("invalid resolver workers")
	}
	if config.Resolver.DictionaryDir == "" {
		return fmt.Errorf("dictionary dir is required")
	}

	// 驗證本體服務設定
	if config.Ontology.BaseURL == "" {
		return fmt.Errorf("ontology base url is required")
	}
	if config.Ontology.MinInterval < 0 {
		return fmt.Errorf("invalid ontology min interval")
	}
	if config.Ontology.MaxInFlight <= 0 {
		return fmt.Errorf("invalid ontology max in flight")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "sqlite":
			if config.Cache.Path == "" {
				return fmt.Errorf("cache path is required for sqlite backend")
			}
		case "redis":
			if config.Cache.Addr == "" {
				return fmt.Errorf("cache addr is required for redis backend")
			}
		default:
			return fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
		}
	}

	return nil
}
