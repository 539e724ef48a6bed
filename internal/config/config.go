package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from defaults, then an
// optional YAML file, then the environment (a .env file is loaded first).
type Config struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`

	DatabaseURL string         `yaml:"databaseURL"`
	Database    DatabaseConfig `yaml:"database"`

	UploadDir     string        `yaml:"uploadDir"`
	SweepInterval time.Duration `yaml:"sweepInterval"`

	RedisURL string `yaml:"redisURL"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	TimeZone string `yaml:"timezone"`
}

const DefaultPath = "config.yaml"

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Env:           "development",
		Port:          "5000",
		TokenTTL:      30 * 24 * time.Hour,
		UploadDir:     "uploads",
		SweepInterval: 10 * time.Minute,
		LogLevel:      "info",
		LogFormat:     "text",
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			Name:     "taskboard",
			User:     "postgres",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
	}
}

// Load builds a Config. A missing file at path is ignored when path is the
// default location; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}

	if err := readFile(path, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) || path != DefaultPath {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "ENV")
	setString(&c.Port, "PORT")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Database.TimeZone, "DB_TIMEZONE")
	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	if err := setDuration(&c.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}

	if err := setDuration(&c.SweepInterval, "SWEEP_INTERVAL"); err != nil {
		return err
	}

	for _, key := range []string{"CLIENT_URL", "ALLOWED_ORIGINS"} {
		if value := os.Getenv(key); value != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, value)
		}
	}

	return nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive, got %s", c.TokenTTL)
	}

	return nil
}

// DSN returns DatabaseURL when set, otherwise a key/value Postgres DSN built
// from the database block.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return ensureTimezone(c.DatabaseURL, c.Database.TimeZone)
	}

	db := c.Database
	parts := []string{
		"host=" + db.Host,
		"user=" + db.User,
		"dbname=" + db.Name,
		"port=" + db.Port,
		"sslmode=" + db.SSLMode,
		"TimeZone=" + db.TimeZone,
	}
	if db.Password != "" {
		parts = append(parts, "password="+db.Password)
	}

	return strings.Join(parts, " ")
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ensureTimezone adds TimeZone to URL style DSNs that lack it.
func ensureTimezone(databaseURL, tz string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Scheme == "" {
		return databaseURL
	}

	if tz == "" {
		tz = "UTC"
	}

	q := u.Query()
	if q.Get("TimeZone") == "" {
		q.Set("TimeZone", tz)
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}

	*dst = d
	return nil
}
