package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Jaeger   string         `yaml:"jaeger" env:"JAEGER" env-default:"jaeger"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	DB       DBConfig       `yaml:"db"`
	Redis    RedisConfig    `yaml:"redis"`
	Provider ProviderConfig `yaml:"provider"`
	Notify   NotifyConfig   `yaml:"notify"`
	Sync     SyncConfig     `yaml:"sync"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST"`
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DBConfig struct {
	DSN      string `yaml:"dsn" env:"DB_DSN"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"require"`
}

func (c DBConfig) DatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	q := u.Query()
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()

	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type ProviderConfig struct {
	BaseURL     string        `yaml:"base_url" env:"PROVIDER_BASE_URL"`
	APIKey      string        `yaml:"api_key" env:"PROVIDER_API_KEY"`
	Timeout     time.Duration `yaml:"timeout" env:"PROVIDER_TIMEOUT" env-default:"10s"`
	DailyBudget int           `yaml:"daily_budget" env:"PROVIDER_DAILY_BUDGET" env-default:"100"`
}

type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url" env:"NOTIFY_WEBHOOK_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"NOTIFY_TIMEOUT" env-default:"5s"`
}

type SyncConfig struct {
	// FullSyncAt is the daily full-sync time as HH:MM in UTC.
	FullSyncAt        string        `yaml:"full_sync_at" env:"SYNC_FULL_SYNC_AT" env-default:"02:30"`
	RefreshInterval   time.Duration `yaml:"refresh_interval" env:"SYNC_REFRESH_INTERVAL" env-default:"5m"`
	ReminderInterval  time.Duration `yaml:"reminder_interval" env:"SYNC_REMINDER_INTERVAL" env-default:"1m"`
	ReminderLead      time.Duration `yaml:"reminder_lead" env:"SYNC_REMINDER_LEAD" env-default:"30m"`
	RetentionDays     int           `yaml:"retention_days" env:"SYNC_RETENTION_DAYS" env-default:"2"`
	DeepRetentionDays int           `yaml:"deep_retention_days" env:"SYNC_DEEP_RETENTION_DAYS" env-default:"30"`
	DeepSweepEvery    time.Duration `yaml:"deep_sweep_every" env:"SYNC_DEEP_SWEEP_EVERY" env-default:"168h"`
	StartupFreshness  time.Duration `yaml:"startup_freshness" env:"SYNC_STARTUP_FRESHNESS" env-default:"12h"`
	LiveWindow        time.Duration `yaml:"live_window" env:"SYNC_LIVE_WINDOW" env-default:"2h"`
	RefreshLead       time.Duration `yaml:"refresh_lead" env:"SYNC_REFRESH_LEAD" env-default:"24h"`
	DetectorWindow    time.Duration `yaml:"detector_window" env:"SYNC_DETECTOR_WINDOW" env-default:"48h"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}
	return MustLoadByPath(path)
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exists: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read the config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	if res == "" {
		res = "config/local.yaml"
	}

	return res
}
