package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Storage       StorageConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Notifications NotificationsConfig
	Geocode       GeocodeConfig
	Marketplace   MarketplaceConfig
	Cron          CronConfig
	RateLimit     RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg.GCS); err != nil {
		return nil, err
	}
	if err := cfg.Notifications.validate(cfg.PubSub); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KRISHAK_APP_ENV" required:"true"`
	Port         string `envconfig:"KRISHAK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KRISHAK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KRISHAK_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"KRISHAK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	ShutdownTimeout time.Duration `envconfig:"KRISHAK_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KRISHAK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KRISHAK_DB_DSN"`
	Driver string `envconfig:"KRISHAK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KRISHAK_DB_HOST"`
	LegacyPort     int    `envconfig:"KRISHAK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KRISHAK_DB_USER"`
	LegacyPassword string `envconfig:"KRISHAK_DB_PASSWORD"`
	LegacyName     string `envconfig:"KRISHAK_DB_NAME"`
	LegacySSLMode  string `envconfig:"KRISHAK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"KRISHAK_SQLITE_PATH" default:"krishak.db"`

	MaxOpenConns    int           `envconfig:"KRISHAK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KRISHAK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KRISHAK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KRISHAK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KRISHAK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KRISHAK_REDIS_ADDR"`
	Password     string        `envconfig:"KRISHAK_REDIS_PASSWORD"`
	DB           int           `envconfig:"KRISHAK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KRISHAK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KRISHAK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KRISHAK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KRISHAK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KRISHAK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KRISHAK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KRISHAK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KRISHAK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KRISHAK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KRISHAK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KRISHAK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"KRISHAK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KRISHAK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"KRISHAK_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"KRISHAK_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

// StorageConfig selects where delivery photos are written.
type StorageConfig struct {
	Backend         string `envconfig:"KRISHAK_STORAGE_BACKEND" default:"local"`
	LocalDir        string `envconfig:"KRISHAK_STORAGE_LOCAL_DIR" default:"uploads"`
	LocalPublicPath string `envconfig:"KRISHAK_STORAGE_LOCAL_PUBLIC_PATH" default:"/uploads"`
}

func (s StorageConfig) IsGCS() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StorageBackendGCS)
}

func (s StorageConfig) validate(gcs GCSConfig) error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case StorageBackendLocal:
		if strings.TrimSpace(s.LocalDir) == "" {
			return fmt.Errorf("%s is required for local storage", EnvStorageLocalDir)
		}
		return nil
	case StorageBackendGCS:
		if strings.TrimSpace(gcs.BucketName) == "" {
			return fmt.Errorf("%s is required for gcs storage", EnvGCSBucket)
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage backend %q", s.Backend)
	}
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"KRISHAK_MAX_UPLOAD_MB" default:"5"`
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"KRISHAK_PUBSUB_NOTIFICATION_TOPIC" default:"krishak-notification-events"`
	NotificationSubscription string `envconfig:"KRISHAK_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type NotificationsConfig struct {
	Transport      string        `envconfig:"KRISHAK_NOTIFICATIONS_TRANSPORT" default:"direct"`
	IdempotencyTTL time.Duration `envconfig:"KRISHAK_NOTIFICATIONS_IDEMPOTENCY_TTL" default:"168h"`
}

func (n NotificationsConfig) UsesPubSub() bool {
	return strings.EqualFold(strings.TrimSpace(n.Transport), NotificationTransportPubSub)
}

func (n NotificationsConfig) validate(ps PubSubConfig) error {
	switch strings.ToLower(strings.TrimSpace(n.Transport)) {
	case NotificationTransportDirect:
		return nil
	case NotificationTransportPubSub:
		if strings.TrimSpace(ps.NotificationTopic) == "" {
			return fmt.Errorf("%s is required for pubsub notifications", EnvPubSubNotificationTopic)
		}
		return nil
	default:
		return fmt.Errorf("unsupported notifications transport %q", n.Transport)
	}
}

type GeocodeConfig struct {
	BaseURL   string        `envconfig:"KRISHAK_GEOCODE_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent string        `envconfig:"KRISHAK_GEOCODE_USER_AGENT" default:"krishak-backend/1.0"`
	CacheTTL  time.Duration `envconfig:"KRISHAK_GEOCODE_CACHE_TTL" default:"24h"`
	Timeout   time.Duration `envconfig:"KRISHAK_GEOCODE_TIMEOUT" default:"10s"`
}

// MarketplaceConfig holds the fee schedule applied when orders are placed.
type MarketplaceConfig struct {
	TransportFee       string `envconfig:"KRISHAK_TRANSPORT_FEE" default:"100"`
	PlatformFeePercent string `envconfig:"KRISHAK_PLATFORM_FEE_PERCENT" default:"2"`
	Currency           string `envconfig:"KRISHAK_CURRENCY" default:"BDT"`
}

// Fees parses the configured fee values.
func (m MarketplaceConfig) Fees() (transport decimal.Decimal, platformPercent decimal.Decimal, err error) {
	transport, err = decimal.NewFromString(strings.TrimSpace(m.TransportFee))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parsing %s: %w", EnvTransportFee, err)
	}
	platformPercent, err = decimal.NewFromString(strings.TrimSpace(m.PlatformFeePercent))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parsing %s: %w", EnvPlatformFeePercent, err)
	}
	if transport.IsNegative() || platformPercent.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("marketplace fees must be non-negative")
	}
	return transport, platformPercent, nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KRISHAK_CRON_INTERVAL" default:"6h"`
}

type RateLimitConfig struct {
	AcceptWindow time.Duration `envconfig:"KRISHAK_RATE_LIMIT_ACCEPT_WINDOW" default:"1m"`
	AcceptLimit  int           `envconfig:"KRISHAK_RATE_LIMIT_ACCEPT_LIMIT" default:"10"`
	UploadWindow time.Duration `envconfig:"KRISHAK_RATE_LIMIT_UPLOAD_WINDOW" default:"1m"`
	UploadLimit  int           `envconfig:"KRISHAK_RATE_LIMIT_UPLOAD_LIMIT" default:"20"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
