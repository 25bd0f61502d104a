package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	DatabasePath string

	GeocodeURL      string
	ForecastURL     string
	UpstreamTimeout time.Duration

	CacheBackend string // "in_memory", "memcached" or "redis"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	DailySweepCron  string
	HourlySweepCron string

	RateLimitRPS   int
	RateLimitBurst int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Upstream struct {
		GeocodeURL  string `yaml:"geocode_url"`
		ForecastURL string `yaml:"forecast_url"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"upstream"`

	Cache struct {
		Backend   string `yaml:"backend"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Mail struct {
		Server string `yaml:"server"`
		Port   int    `yaml:"port"`
		From   string `yaml:"from"`
	} `yaml:"mail"`

	Scheduler struct {
		DailyCron  string `yaml:"daily_cron"`
		HourlyCron string `yaml:"hourly_cron"`
	} `yaml:"scheduler"`

	Reliability struct {
		RateLimitRPS   int    `yaml:"rate_limit_rps"`
		RateLimitBurst int    `yaml:"rate_limit_burst"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from .env (if present), config/{ENV_NAME}.yaml
// (default dev, missing file tolerated) and env overrides. SMTP credentials
// come from SMTP_USERNAME / SMTP_PASSWORD env only. Call from project root.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "8080")
	cfg.DatabasePath = firstNonEmpty(os.Getenv("DATABASE_PATH"), fc.Database.Path, "notifyme.db")

	cfg.GeocodeURL = firstNonEmpty(fc.Upstream.GeocodeURL, "https://geocoding-api.open-meteo.com/v1/search")
	cfg.ForecastURL = firstNonEmpty(fc.Upstream.ForecastURL, "https://api.open-meteo.com/v1/forecast")
	cfg.UpstreamTimeout = parseDuration(fc.Upstream.Timeout, 10*time.Second)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(firstNonEmpty(os.Getenv("CACHE_BACKEND"), fc.Cache.Backend, "in_memory")))
	cfg.MemcachedAddrs = firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), strings.TrimSpace(fc.Cache.Memcached.Addrs), "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.RedisAddr = firstNonEmpty(os.Getenv("REDIS_ADDR"), fc.Cache.Redis.Addr, "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = fc.Cache.Redis.DB

	cfg.SMTPServer = firstNonEmpty(os.Getenv("SMTP_SERVER"), fc.Mail.Server, "smtp.gmail.com")
	cfg.SMTPPort = fc.Mail.Port
	if cfg.SMTPPort <= 0 {
		cfg.SMTPPort = 587
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.MailFrom = firstNonEmpty(os.Getenv("MAIL_FROM"), fc.Mail.From, cfg.SMTPUsername)

	cfg.DailySweepCron = firstNonEmpty(fc.Scheduler.DailyCron, "10 6 * * 1")
	cfg.HourlySweepCron = firstNonEmpty(fc.Scheduler.HourlyCron, "0 6 * * *")

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}
	cfg.RequestTimeout = parseDuration(fc.Reliability.RequestTimeout, 15*time.Second)
	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "redis":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or redis, got %q", cfg.CacheBackend)
	}
	if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		return fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD must be set")
	}
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	return nil
}
