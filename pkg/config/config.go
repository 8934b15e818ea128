package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "WOVENLANE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "WOVENLANE_DB_DSN"
	EnvDBHost = "WOVENLANE_DB_HOST"
	EnvDBUser = "WOVENLANE_DB_USER"
	EnvDBName = "WOVENLANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Razorpay      RazorpayConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WOVENLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"WOVENLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WOVENLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WOVENLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"WOVENLANE_DB_DSN"`
	Driver string `envconfig:"WOVENLANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WOVENLANE_DB_HOST"`
	LegacyPort     int    `envconfig:"WOVENLANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WOVENLANE_DB_USER"`
	LegacyPassword string `envconfig:"WOVENLANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WOVENLANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WOVENLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WOVENLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WOVENLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WOVENLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WOVENLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WOVENLANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WOVENLANE_REDIS_ADDR"`
	Password     string        `envconfig:"WOVENLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WOVENLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WOVENLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WOVENLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WOVENLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WOVENLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WOVENLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WOVENLANE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WOVENLANE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"WOVENLANE_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"WOVENLANE_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the redis session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WOVENLANE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WOVENLANE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WOVENLANE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WOVENLANE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WOVENLANE_ARGON_KEY_LEN" default:"32"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"WOVENLANE_RAZORPAY_KEY_ID" required:"true"`
	KeySecret string `envconfig:"WOVENLANE_RAZORPAY_KEY_SECRET" required:"true"`
	BaseURL   string `envconfig:"WOVENLANE_RAZORPAY_BASE_URL"`
	Currency  string `envconfig:"WOVENLANE_RAZORPAY_CURRENCY" default:"INR"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"WOVENLANE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"WOVENLANE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"WOVENLANE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"WOVENLANE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"WOVENLANE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"WOVENLANE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite      bool `envconfig:"WOVENLANE_USE_SQLITE" default:"false"`
	AutoMigrate    bool `envconfig:"WOVENLANE_AUTO_MIGRATE" default:"false"`
	AllowBackorder bool `envconfig:"WOVENLANE_FEATURE_ALLOW_BACKORDER" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WOVENLANE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"WOVENLANE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WOVENLANE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"WOVENLANE_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"WOVENLANE_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"WOVENLANE_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"WOVENLANE_PUBSUB_ORDERS_TOPIC" default:"wl-order-events"`
	OrdersSubscription string `envconfig:"WOVENLANE_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WOVENLANE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WOVENLANE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WOVENLANE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
