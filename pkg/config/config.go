package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Razorpay      RazorpayConfig
	SMTP          SMTPConfig
	Cloudinary    CloudinaryConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Metrics       MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field settings envconfig cannot express.
func (c *Config) Validate() error {
	if c.JWT.ExpirationDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpDays)
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvOTPTTL)
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return fmt.Errorf("%s must be between 4 and 10", EnvOTPLength)
	}
	if c.App.IsProd() && strings.TrimSpace(c.Razorpay.KeySecret) == "" {
		return errors.New("razorpay key secret is required in production")
	}
	return nil
}

type AppConfig struct {
	Env          string   `envconfig:"SHOPFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"SHOPFRONT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
	FrontendURL  string   `envconfig:"SHOPFRONT_FRONTEND_URL" default:"http://localhost:3000"`
	CORSOrigins  []string `envconfig:"SHOPFRONT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"SHOPFRONT_DB_DSN"`

	LegacyHost     string `envconfig:"SHOPFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPFRONT_DB_USER"`
	LegacyPassword string `envconfig:"SHOPFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPFRONT_REDIS_URL"`
	Address      string        `envconfig:"SHOPFRONT_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SHOPFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret         string `envconfig:"SHOPFRONT_JWT_SECRET" required:"true"`
	Issuer         string `envconfig:"SHOPFRONT_JWT_ISSUER" default:"shopfront"`
	ExpirationDays int    `envconfig:"SHOPFRONT_JWT_EXPIRATION_DAYS" default:"30"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPFRONT_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL    time.Duration `envconfig:"SHOPFRONT_OTP_TTL" default:"10m"`
	Length int           `envconfig:"SHOPFRONT_OTP_LENGTH" default:"6"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool          `envconfig:"SHOPFRONT_AUTO_MIGRATE" default:"false"`
	Idempotency    bool          `envconfig:"SHOPFRONT_IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyTTL time.Duration `envconfig:"SHOPFRONT_IDEMPOTENCY_TTL" default:"24h"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"SHOPFRONT_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"SHOPFRONT_RAZORPAY_KEY_SECRET"`
	BaseURL   string `envconfig:"SHOPFRONT_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Currency  string `envconfig:"SHOPFRONT_RAZORPAY_CURRENCY" default:"INR"`
}

type SMTPConfig struct {
	Host     string        `envconfig:"SHOPFRONT_SMTP_HOST" default:"smtp.gmail.com"`
	Port     int           `envconfig:"SHOPFRONT_SMTP_PORT" default:"587"`
	Username string        `envconfig:"SHOPFRONT_SMTP_USERNAME"`
	Password string        `envconfig:"SHOPFRONT_SMTP_PASSWORD"`
	From     string        `envconfig:"SHOPFRONT_SMTP_FROM"`
	Timeout  time.Duration `envconfig:"SHOPFRONT_SMTP_TIMEOUT" default:"15s"`
}

// Sender returns the From address, falling back to the login username.
func (s SMTPConfig) Sender() string {
	if strings.TrimSpace(s.From) != "" {
		return s.From
	}
	return s.Username
}

type CloudinaryConfig struct {
	CloudName string `envconfig:"SHOPFRONT_CLOUDINARY_CLOUD_NAME"`
	APIKey    string `envconfig:"SHOPFRONT_CLOUDINARY_API_KEY"`
	APISecret string `envconfig:"SHOPFRONT_CLOUDINARY_API_SECRET"`
	BaseURL   string `envconfig:"SHOPFRONT_CLOUDINARY_BASE_URL" default:"https://api.cloudinary.com/v1_1"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHOPFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"SHOPFRONT_PUBSUB_DOMAIN_TOPIC" default:"shopfront-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"SHOPFRONT_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"SHOPFRONT_METRICS_PATH" default:"/metrics"`
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
