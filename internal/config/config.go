package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/view"
)

// ErrInvalidValue 配置值不合法
var ErrInvalidValue = errors.New("invalid config value")

// Data backends
const (
	BackendFile  = "file"
	BackendQuery = "query"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Data      DataConfig              `yaml:"data"`
	Session   SessionConfig           `yaml:"session"`
	Log       LogConfig               `yaml:"log"`
	RateLimit RateLimitConfig         `yaml:"rate_limit"`
	Chart     ChartConfig             `yaml:"chart"`
	Palette   []colorscale.BrandColor `yaml:"palette"`
	View      view.ViewState          `yaml:"view"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port        string   `yaml:"port"`
	Mode        string   `yaml:"mode"` // gin mode: debug, release, test
	CORSOrigins []string `yaml:"cors_origins"`
}

// DataConfig 数据来源配置
type DataConfig struct {
	Backend     string `yaml:"backend"` // file or query
	PointsPath  string `yaml:"points_path"`
	GridPath    string `yaml:"grid_path"`
	Driver      string `yaml:"driver"` // sqlite or postgres
	DSN         string `yaml:"dsn"`
	PointsQuery string `yaml:"points_query"`
	GridQuery   string `yaml:"grid_query"`
	ReloadCron  string `yaml:"reload_cron"` // empty disables scheduled reload
}

// SessionConfig 会话配置
type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	SweepCron     string        `yaml:"sweep_cron"`
	RedisAddr     string        `yaml:"redis_addr"` // empty keeps sessions in memory
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `yaml:"level"`
	Path        string `yaml:"path"`
	Development bool   `yaml:"development"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ChartConfig 图表配置
type ChartConfig struct {
	FontPath string `yaml:"font_path"` // empty searches system CJK fonts
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        ":8080",
			Mode:        "release",
			CORSOrigins: []string{"*"},
		},
		Data: DataConfig{
			Backend:    BackendFile,
			PointsPath: "./data/aoc_major_supermart_202512.csv",
			GridPath:   "./data/gs_grid1000_taiwan_supermart_2025.csv",
			Driver:     "sqlite",
			DSN:        "./data/webgis.db",
		},
		Session: SessionConfig{
			Secret:    "your-secret-key-change-in-production",
			TTL:       2 * time.Hour,
			SweepCron: "@every 5m",
		},
		Log: LogConfig{
			Level: "info",
			Path:  "./logs/webgis.log",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		View: view.DefaultViewState(),
	}
}

// Load 加载配置: 默认值, 然后 YAML 文件, 然后 .env 与环境变量
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load(".env")

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 环境变量覆盖
func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")

	setString(&cfg.Data.Backend, "DATA_BACKEND")
	setString(&cfg.Data.PointsPath, "POINTS_CSV")
	setString(&cfg.Data.GridPath, "GRID_CSV")
	setString(&cfg.Data.Driver, "DB_DRIVER")
	setString(&cfg.Data.DSN, "DB_PATH")
	setString(&cfg.Data.DSN, "DB_DSN")
	setString(&cfg.Data.PointsQuery, "POINTS_QUERY")
	setString(&cfg.Data.GridQuery, "GRID_QUERY")
	setString(&cfg.Data.ReloadCron, "RELOAD_CRON")

	setString(&cfg.Session.Secret, "JWT_SECRET")
	setString(&cfg.Session.SweepCron, "SESSION_SWEEP_CRON")
	setString(&cfg.Session.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Session.RedisPassword, "REDIS_PASSWORD")
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: SESSION_TTL %q: %v", ErrInvalidValue, v, err)
		}
		cfg.Session.TTL = d
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: REDIS_DB %q", ErrInvalidValue, v)
		}
		cfg.Session.RedisDB = n
	}

	setString(&cfg.Chart.FontPath, "CHART_FONT")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Path, "LOG_PATH")
	if v := os.Getenv("LOG_DEV"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: LOG_DEV %q", ErrInvalidValue, v)
		}
		cfg.Log.Development = b
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_RPS %q", ErrInvalidValue, v)
		}
		cfg.RateLimit.RequestsPerSecond = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_BURST %q", ErrInvalidValue, v)
		}
		cfg.RateLimit.Burst = n
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server.port is empty", ErrInvalidValue)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: server.mode %q", ErrInvalidValue, c.Server.Mode)
	}

	switch c.Data.Backend {
	case BackendFile:
		if c.Data.PointsPath == "" || c.Data.GridPath == "" {
			return fmt.Errorf("%w: data.points_path and data.grid_path are required for the file backend", ErrInvalidValue)
		}
	case BackendQuery:
		if c.Data.Driver != "sqlite" && c.Data.Driver != "postgres" {
			return fmt.Errorf("%w: data.driver %q", ErrInvalidValue, c.Data.Driver)
		}
		if c.Data.DSN == "" {
			return fmt.Errorf("%w: data.dsn is required for the query backend", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: data.backend %q", ErrInvalidValue, c.Data.Backend)
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("%w: session.secret is empty", ErrInvalidValue)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("%w: session.ttl must be positive", ErrInvalidValue)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate_limit values must not be negative", ErrInvalidValue)
	}
	for i, b := range c.Palette {
		if b.Name == "" {
			return fmt.Errorf("%w: palette[%d].name is empty", ErrInvalidValue, i)
		}
	}
	if err := c.View.Validate(); err != nil {
		return fmt.Errorf("%w: view: %v", ErrInvalidValue, err)
	}

	return nil
}

// BrandPalette returns the configured palette, or the default one when none is set
func (c *Config) BrandPalette() colorscale.BrandPalette {
	if len(c.Palette) == 0 {
		return colorscale.DefaultPalette()
	}
	brands := make([]colorscale.BrandColor, len(c.Palette))
	copy(brands, c.Palette)
	return colorscale.BrandPalette{Brands: brands, Fallback: colorscale.FallbackColor}
}
