package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Airtable      AirtableConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Airtable.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PORTAL_APP_ENV" required:"true"`
	Port         string `envconfig:"PORTAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PORTAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PORTAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RedisConfig is optional; an empty URL and address selects the in-process store.
type RedisConfig struct {
	URL          string        `envconfig:"PORTAL_REDIS_URL"`
	Address      string        `envconfig:"PORTAL_REDIS_ADDR"`
	Password     string        `envconfig:"PORTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PORTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PORTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PORTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PORTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PORTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PORTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret                 string `envconfig:"PORTAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PORTAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PORTAL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PORTAL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTTL is the lifetime of a minted access token.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PORTAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PORTAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PORTAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PORTAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PORTAL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"PORTAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"PORTAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"PORTAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// AirtableConfig carries the backend table store settings. BaseID and Token are the
// injected fallbacks consulted after the persisted runtime state.
type AirtableConfig struct {
	APIURL            string        `envconfig:"PORTAL_AIRTABLE_API_URL" default:"https://api.airtable.com/v0"`
	DefaultBaseID     string        `envconfig:"PORTAL_AIRTABLE_DEFAULT_BASE_ID" default:"applrV1CPpt6GuK2d"`
	BaseID            string        `envconfig:"PORTAL_AIRTABLE_BASE_ID"`
	Token             string        `envconfig:"PORTAL_AIRTABLE_PAT"`
	MetaCacheTTL      time.Duration `envconfig:"PORTAL_AIRTABLE_META_TTL" default:"5m"`
	MinInterval       time.Duration `envconfig:"PORTAL_AIRTABLE_MIN_INTERVAL" default:"220ms"`
	RateLimitCooldown time.Duration `envconfig:"PORTAL_AIRTABLE_RATE_LIMIT_COOLDOWN" default:"30s"`
	RateLimitRetries  int           `envconfig:"PORTAL_AIRTABLE_RATE_LIMIT_RETRIES" default:"1"`
	MaxAttempts       int           `envconfig:"PORTAL_AIRTABLE_MAX_ATTEMPTS" default:"4"`
	InitialBackoff    time.Duration `envconfig:"PORTAL_AIRTABLE_INITIAL_BACKOFF" default:"500ms"`
	MaxBackoff        time.Duration `envconfig:"PORTAL_AIRTABLE_MAX_BACKOFF" default:"8s"`
	Timeout           time.Duration `envconfig:"PORTAL_AIRTABLE_TIMEOUT" default:"15s"`
	IDChunkSize       int           `envconfig:"PORTAL_AIRTABLE_ID_CHUNK_SIZE" default:"40"`
	PageSize          int           `envconfig:"PORTAL_AIRTABLE_PAGE_SIZE" default:"100"`
	UpdateLastLogin   bool          `envconfig:"PORTAL_AIRTABLE_UPDATE_LAST_LOGIN" default:"true"`
	DevConfig         bool          `envconfig:"PORTAL_AIRTABLE_DEV_CONFIG" default:"false"`
}

func (a AirtableConfig) validate() error {
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("%s is required", EnvAirtableAPIURL)
	}
	if strings.TrimSpace(a.DefaultBaseID) == "" {
		return fmt.Errorf("%s is required", EnvAirtableDefaultBaseID)
	}
	if a.IDChunkSize <= 0 || a.IDChunkSize > maxFormulaChunk {
		return fmt.Errorf("%s must be between 1 and %d", EnvAirtableIDChunkSize, maxFormulaChunk)
	}
	if a.PageSize <= 0 || a.PageSize > maxPageSize {
		return fmt.Errorf("%s must be between 1 and %d", EnvAirtablePageSize, maxPageSize)
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PORTAL_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}
