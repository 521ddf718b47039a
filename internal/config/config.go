package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/route-freshness/internal/grid"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Log       LogConfig
	Worker    WorkerConfig
	Grid      GridConfig
	Freshness FreshnessConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	AggregateCacheTTL time.Duration
	StatsCacheTTL     time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

// GridConfig - параметры сетки для сохранённых маршрутов и активностей пользователя
type GridConfig struct {
	CellSizeKm   float64
	ReferenceLat float64
	ReferenceLon float64
}

type FreshnessConfig struct {
	RecentDays         int
	ScoringWorkers     int
	ZeroCoveragePolicy string
}

type AuthConfig struct {
	JWTSecret string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// .env необязателен, переменные окружения читаются в любом случае
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),

			CORSOrigins: splitList(viper.GetString("CORS_ALLOW_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			AggregateCacheTTL: time.Duration(viper.GetInt("AGGREGATE_CACHE_TTL")) * time.Second,
			StatsCacheTTL:     time.Duration(viper.GetInt("STATS_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
		Grid: GridConfig{
			CellSizeKm:   viper.GetFloat64("GRID_CELL_SIZE_KM"),
			ReferenceLat: viper.GetFloat64("GRID_REFERENCE_LAT"),
			ReferenceLon: viper.GetFloat64("GRID_REFERENCE_LON"),
		},
		Freshness: FreshnessConfig{
			RecentDays:         viper.GetInt("FRESHNESS_RECENT_DAYS"),
			ScoringWorkers:     viper.GetInt("FRESHNESS_SCORING_WORKERS"),
			ZeroCoveragePolicy: viper.GetString("FRESHNESS_ZERO_COVERAGE_POLICY"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("JWT_SECRET"),
		},
	}

	cfg.applyDefaults()

	if _, err := cfg.GridConfig(); err != nil {
		return nil, fmt.Errorf("invalid grid config: %w", err)
	}
	if _, err := grid.ParseZeroCoveragePolicy(cfg.Freshness.ZeroCoveragePolicy); err != nil {
		return nil, fmt.Errorf("invalid freshness config: %w", err)
	}

	return cfg, nil
}

// Set default values if not provided
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Cache.AggregateCacheTTL == 0 {
		c.Cache.AggregateCacheTTL = 15 * time.Minute
	}
	if c.Cache.StatsCacheTTL == 0 {
		c.Cache.StatsCacheTTL = time.Hour
	}
	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "aggregate-rebuild-workers"
	}
	if c.Worker.StreamReadTimeout == 0 {
		c.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}
	if c.Grid.CellSizeKm == 0 {
		c.Grid.CellSizeKm = 1
	}
	if c.Freshness.RecentDays == 0 {
		c.Freshness.RecentDays = 30
	}
	if c.Freshness.ScoringWorkers <= 0 {
		c.Freshness.ScoringWorkers = runtime.NumCPU()
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GridConfig собирает и проверяет конфигурацию сетки
func (c *Config) GridConfig() (grid.Config, error) {
	return grid.NewConfig(c.Grid.CellSizeKm, c.Grid.ReferenceLat, c.Grid.ReferenceLon)
}

// RecentWindow - окно "недавней" активности
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.Freshness.RecentDays) * 24 * time.Hour
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN - строка подключения к PostgreSQL в формате key=value
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.DBName,
		d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
