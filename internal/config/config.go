// Package config loads service configuration from defaults, an optional YAML
// file, a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"buildmatrix/internal/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      logger.Config  `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	GinMode         string        `mapstructure:"gin_mode"`
	CORSOrigins     string        `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AllowedOrigins splits the comma separated CORS_ORIGINS value.
func (s ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DataSourceName returns DSN when set, otherwise builds a MySQL DSN from the
// individual connection fields.
func (d DatabaseConfig) DataSourceName() string {
	if d.DSN != "" || d.Driver != DriverMySQL {
		return d.DSN
	}
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, d.Port)
	mc.DBName = d.Name
	mc.ParseTime = true
	return mc.FormatDSN()
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	JWTExpire  string `mapstructure:"jwt_expire"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// TokenTTL parses JWTExpire. Besides Go durations it accepts whole days
// written as "7d".
func (a AuthConfig) TokenTTL() (time.Duration, error) {
	return ParseTTL(a.JWTExpire)
}

// AdminConfig describes the admin account created at startup when no user
// with that email exists. Bootstrap is skipped when Email or Password is empty.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// envBindings maps config keys to the environment names used by existing
// deployments.
var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.gin_mode":            "GIN_MODE",
	"server.cors_origins":        "CORS_ORIGINS",
	"server.shutdown_timeout":    "SHUTDOWN_TIMEOUT",
	"database.driver":            "DB_DRIVER",
	"database.dsn":               "DB_DSN",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASS",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.name":              "DB_NAME",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"auth.jwt_secret":            "JWT_SECRET",
	"auth.jwt_expire":            "JWT_EXPIRE",
	"auth.bcrypt_cost":           "BCRYPT_COST",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
	"admin.email":                "ADMIN_EMAIL",
	"admin.password":             "ADMIN_PASSWORD",
	"admin.name":                 "ADMIN_NAME",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.cors_origins", "http://localhost:3000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.name", "buildmatrix")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expire", "7d")
	v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.name", "Administrator")
}

type loadOptions struct {
	configFile string
	envFile    string
}

// Option customises Load.
type Option func(*loadOptions)

// WithConfigFile reads an explicit YAML file.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFile loads an explicit .env file instead of ./.env.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// Load reads, defaults and validates the configuration.
func Load(opts ...Option) (*Config, error) {
	lo := loadOptions{envFile: ".env"}
	for _, opt := range opts {
		opt(&lo)
	}

	// A missing .env is normal outside local development.
	if lo.envFile != "" {
		if _, err := os.Stat(lo.envFile); err == nil {
			if err := godotenv.Load(lo.envFile); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", lo.envFile, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v)

	if lo.configFile != "" {
		v.SetConfigFile(lo.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", lo.configFile, err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values left by a partial YAML file.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMySQL
	}
	if c.Auth.JWTExpire == "" {
		c.Auth.JWTExpire = "7d"
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if c.Admin.Name == "" {
		c.Admin.Name = "Administrator"
	}
}

// Validate reports the first configuration problem that would prevent the
// service from starting.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if _, err := c.Auth.TokenTTL(); err != nil {
		return fmt.Errorf("config: JWT_EXPIRE: %w", err)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d (got: %d)", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.DSN == "" && (c.Database.User == "" || c.Database.Host == "" || c.Database.Name == "") {
			return errors.New("config: DB_DSN or DB_USER, DB_HOST and DB_NAME are required for mysql")
		}
	case DriverSQLite:
		if c.Database.DSN == "" {
			return errors.New("config: DB_DSN is required for sqlite")
		}
	default:
		return fmt.Errorf("config: DB_DRIVER must be one of [mysql, sqlite] (got: %s)", c.Database.Driver)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: PORT out of range (got: %d)", c.Server.Port)
	}
	return nil
}

// ParseTTL parses a token lifetime such as "7d", "12h" or "90m".
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("lifetime must be positive (got: %s)", s)
	}
	return d, nil
}
