package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                    int      `env:"PORT" envDefault:"8080"`
	DatabaseURL             string   `env:"DATABASE_URL,required"`
	RedisURL                string   `env:"REDIS_URL,required"`
	SessionLifetimeDays     int      `env:"SESSION_LIFETIME_DAYS" envDefault:"30"`
	SessionKeyPrefix        string   `env:"SESSION_KEY_PREFIX" envDefault:"session:"`
	SessionCookieSameSite   string   `env:"SESSION_COOKIE_SAMESITE" envDefault:"none"`
	UsersTable              string   `env:"USERS_TABLE" envDefault:"users"`
	EventsTable             string   `env:"EVENTS_TABLE" envDefault:"events"`
	GoogleClientID          string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret      string   `env:"GOOGLE_CLIENT_SECRET"`
	PublicBaseURL           string   `env:"PUBLIC_BASE_URL" envDefault:""`
	BasePath                string   `env:"BASE_PATH" envDefault:""`
	OAuthHTTPTimeoutSeconds int      `env:"OAUTH_HTTP_TIMEOUT_SECONDS" envDefault:"10"`
	CORSOrigins             []string `env:"CORS_ORIGINS" envSeparator:","`
	LoginRateLimitPerMin    int      `env:"LOGIN_RATE_LIMIT_PER_MIN" envDefault:"20"`
	EventRetentionDays      int      `env:"EVENT_RETENTION_DAYS" envDefault:"90"`
	LogLevel                string   `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SessionLifespan() time.Duration {
	return time.Duration(c.SessionLifetimeDays) * 24 * time.Hour
}

func (c *Config) OAuthHTTPTimeout() time.Duration {
	return time.Duration(c.OAuthHTTPTimeoutSeconds) * time.Second
}

func (c *Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SameSite maps SESSION_COOKIE_SAMESITE onto the cookie attribute. Unknown
// values fall back to None so a separately hosted front end keeps working.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.SessionCookieSameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteNoneMode
	}
}

func (c *Config) Validate(isProduction bool) error {
	if c.SessionLifetimeDays <= 0 {
		return fmt.Errorf("SESSION_LIFETIME_DAYS must be positive")
	}
	if c.OAuthHTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("OAUTH_HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.PublicBaseURL != "" && !strings.HasPrefix(c.PublicBaseURL, "https://") {
		return fmt.Errorf("PUBLIC_BASE_URL must be an https:// URL")
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("BASE_PATH must start with /")
	}

	if isProduction {
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required in production")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if len(c.CORSOrigins) == 0 {
			log.Warn().Msg("CORS_ORIGINS is empty in production: browsers on other origins cannot call the API")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
