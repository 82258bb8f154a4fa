package config

import (
	"net"     // For host:port joining
	"strconv" // For port formatting
	"strings" // For list splitting
	"time"    // For token lifetimes

	"github.com/joho/godotenv"             // For loading .env files
	"github.com/kelseyhightower/envconfig" // For decoding env vars into the struct
)

// Config holds the application configuration
type Config struct {
	AppPort        string `envconfig:"APP_PORT" default:"8080"`              // Application port
	IsProd         bool   `envconfig:"IS_PROD" default:"false"`              // Is production environment
	ProjectName    string `envconfig:"PROJECT_NAME" default:"Accounts"`      // Shown in page titles and mails
	SiteDomain     string `envconfig:"SITE_DOMAIN" default:"localhost:8080"` // Domain used in mailed links
	SiteScheme     string `envconfig:"SITE_SCHEME" default:"http"`           // Scheme used in mailed links
	TrustedProxies string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1"`  // Comma separated proxy list
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`             // logrus level name

	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"`     // mysql or sqlite
	DBUser     string `envconfig:"DB_USER"`                       // Database user
	DBPassword string `envconfig:"DB_PASSWORD"`                   // Database password
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"`   // Database host
	DBPort     string `envconfig:"DB_PORT" default:"3306"`        // Database port
	DBName     string `envconfig:"DB_NAME" default:"accounts"`    // Database name
	DBPath     string `envconfig:"DB_PATH" default:"accounts.db"` // SQLite file path

	JWTSecret            string        `envconfig:"JWT_SECRET" required:"true"`           // JWT secret key
	AccessTokenTTL       time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"5m"`        // Access token lifetime
	RefreshTokenTTL      time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"24h"`      // Refresh token lifetime
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"336h"`           // Web session lifetime
	PasswordResetTimeout time.Duration `envconfig:"PASSWORD_RESET_TIMEOUT" default:"72h"` // Reset link lifetime
	ActivationTimeout    time.Duration `envconfig:"ACTIVATION_TIMEOUT" default:"24h"`     // Activation link lifetime

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"` // Redis server address
	RedisPass string `envconfig:"REDIS_PASS"`                          // Redis password
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`                // Redis database number

	GoogleUserInfoURL string `envconfig:"GOOGLE_USERINFO_URL" default:"https://www.googleapis.com/oauth2/v2/userinfo"`

	SMTPHost string `envconfig:"SMTP_HOST"`                               // Empty means mails are only logged
	SMTPPort int    `envconfig:"SMTP_PORT" default:"1025"`                // SMTP port
	SMTPUser string `envconfig:"SMTP_USER"`                               // SMTP user
	SMTPPass string `envconfig:"SMTP_PASS"`                               // SMTP password
	MailFrom string `envconfig:"MAIL_FROM" default:"webmaster@localhost"` // Sender address

	LoginRate  float64 `envconfig:"LOGIN_RATE" default:"1"`  // Allowed auth requests per second per client
	LoginBurst int     `envconfig:"LOGIN_BURST" default:"5"` // Burst size for auth requests
}

// LoadConfig loads configuration from a .env file and the environment
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MySQLDSN builds the Data Source Name for the MySQL driver
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + net.JoinHostPort(c.DBHost, c.DBPort) + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// Proxies returns the trusted proxy list
func (c *Config) Proxies() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SiteURL returns the absolute base URL used in mailed links
func (c *Config) SiteURL() string {
	return c.SiteScheme + "://" + c.SiteDomain
}

// ListenAddr returns the address the HTTP server binds to
func (c *Config) ListenAddr() string {
	if _, err := strconv.Atoi(c.AppPort); err == nil {
		return ":" + c.AppPort
	}
	return c.AppPort
}
