package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration tree.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Mail     MailConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// MailConfig holds transactional mail delivery settings.
type MailConfig struct {
	Enabled     bool
	APIKey      string
	SenderName  string
	SenderEmail string
	Timeout     time.Duration
}

// Load reads configuration in ascending priority: built-in defaults,
// then config.toml, then environment variables with the THRYLOS_
// prefix (THRYLOS_DATABASE_PASSWORD overrides database.password).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// A missing config file is fine; env vars and defaults carry it.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("THRYLOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Mail: MailConfig{
			Enabled:     v.GetBool("mail.enabled"),
			APIKey:      v.GetString("mail.api_key"),
			SenderName:  v.GetString("mail.sender_name"),
			SenderEmail: v.GetString("mail.sender_email"),
			Timeout:     v.GetDuration("mail.timeout"),
		},
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func strDefault(target *string, def string) {
	if *target == "" {
		*target = def
	}
}

func intDefault(target *int, def int) {
	if *target == 0 {
		*target = def
	}
}

func durDefault(target *time.Duration, def time.Duration) {
	if *target == 0 {
		*target = def
	}
}

func (c *Config) applyDefaults() {
	strDefault(&c.App.Name, "thrylos-backend")
	strDefault(&c.App.Env, "development")
	strDefault(&c.App.Port, "8080")

	strDefault(&c.Database.Host, "localhost")
	intDefault(&c.Database.Port, 5432)
	strDefault(&c.Database.User, "postgres")
	strDefault(&c.Database.DBName, "thrylos")
	strDefault(&c.Database.SSLMode, "disable")
	intDefault(&c.Database.MaxOpenConns, 25)
	intDefault(&c.Database.MaxIdleConns, 5)
	intDefault(&c.Database.ConnMaxLifetime, 60)
	intDefault(&c.Database.ConnMaxIdleTime, 30)

	strDefault(&c.Redis.Host, "localhost")
	intDefault(&c.Redis.Port, 6379)

	durDefault(&c.JWT.AccessTokenExpiration, 15*time.Minute)
	strDefault(&c.JWT.Issuer, "thrylos-backend")

	strDefault(&c.Log.Level, "info")
	strDefault(&c.Log.Format, "console")
	strDefault(&c.Log.Output, "stdout")

	durDefault(&c.HTTP.ReadTimeout, 15*time.Second)
	durDefault(&c.HTTP.WriteTimeout, 15*time.Second)
	durDefault(&c.HTTP.IdleTimeout, 60*time.Second)
	intDefault(&c.HTTP.MaxHeaderBytes, 1<<20)
	if c.HTTP.MaxBodySize == 0 {
		c.HTTP.MaxBodySize = 10 << 20
	}
	intDefault(&c.HTTP.RateLimitRequests, 100)
	durDefault(&c.HTTP.RateLimitWindow, time.Minute)

	// CORS origins deliberately get no wildcard fallback; an empty list
	// blocks cross-origin requests until origins are configured.
	if len(c.HTTP.CORSAllowMethods) == 0 {
		c.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(c.HTTP.CORSAllowHeaders) == 0 {
		c.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	strDefault(&c.Mail.SenderName, "Thrylos")
	durDefault(&c.Mail.Timeout, 10*time.Second)
}

// validate rejects configurations that cannot work, and holds
// production deployments to a stricter baseline.
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Mail.Enabled && c.Mail.APIKey == "" {
			return fmt.Errorf("mail.api_key is required when mail is enabled in production")
		}
	}

	if c.Mail.Enabled && c.Mail.SenderEmail == "" {
		return fmt.Errorf("mail.sender_email is required when mail is enabled")
	}

	return nil
}

// DSN builds the postgres connection URL, escaping credentials that
// contain reserved characters.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
