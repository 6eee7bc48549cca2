package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Upstream      UpstreamConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Locale        LocaleConfig
	SWR           SWRConfig
	Cart          CartConfig
	Booking       BookingConfig
	CORS          CORSConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PEYKAN_APP_ENV" required:"true"`
	Port         string `envconfig:"PEYKAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PEYKAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PEYKAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points the storefront at the booking backend.
type UpstreamConfig struct {
	BaseURL        string        `envconfig:"PEYKAN_UPSTREAM_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"PEYKAN_UPSTREAM_REQUEST_TIMEOUT" default:"15s"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvUpstreamBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", EnvUpstreamBaseURL)
	}
	if u.RequestTimeout <= 0 {
		return fmt.Errorf("upstream request timeout must be positive")
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"PEYKAN_DB_DSN"`
	Driver string `envconfig:"PEYKAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PEYKAN_DB_HOST"`
	LegacyPort     int    `envconfig:"PEYKAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PEYKAN_DB_USER"`
	LegacyPassword string `envconfig:"PEYKAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"PEYKAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"PEYKAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PEYKAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PEYKAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PEYKAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PEYKAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PEYKAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PEYKAN_REDIS_ADDR"`
	Password     string        `envconfig:"PEYKAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"PEYKAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PEYKAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PEYKAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PEYKAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PEYKAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PEYKAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PEYKAN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PEYKAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PEYKAN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PEYKAN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type LocaleConfig struct {
	Default   string   `envconfig:"PEYKAN_LOCALE_DEFAULT" default:"fa"`
	Supported []string `envconfig:"PEYKAN_LOCALE_SUPPORTED" default:"fa,en,tr"`
}

// SWRConfig tunes the stale-while-revalidate cache in front of upstream reads.
type SWRConfig struct {
	FreshFor         time.Duration `envconfig:"PEYKAN_SWR_FRESH_FOR" default:"30s"`
	DedupingInterval time.Duration `envconfig:"PEYKAN_SWR_DEDUPING_INTERVAL" default:"2s"`
	RefreshInterval  time.Duration `envconfig:"PEYKAN_SWR_REFRESH_INTERVAL" default:"0"`
}

type CartConfig struct {
	Currency string `envconfig:"PEYKAN_CART_CURRENCY" default:"IRR"`
}

type BookingConfig struct {
	DraftTTL time.Duration `envconfig:"PEYKAN_BOOKING_DRAFT_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PEYKAN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"PEYKAN_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"PEYKAN_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"PEYKAN_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	OTPWindow       time.Duration `envconfig:"PEYKAN_AUTH_RL_OTP_WINDOW" default:"10m"`
	OTPIPLimit      int           `envconfig:"PEYKAN_AUTH_RL_OTP_IP_LIMIT" default:"10"`
	OTPPhoneLimit   int           `envconfig:"PEYKAN_AUTH_RL_OTP_PHONE_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PEYKAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PEYKAN_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PEYKAN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PEYKAN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PEYKAN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AnalyticsTopic string `envconfig:"PEYKAN_PUBSUB_ANALYTICS_TOPIC"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
