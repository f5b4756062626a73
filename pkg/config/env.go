package config

// EnvPrefix is passed to envconfig; every field spells out its full variable name.
const EnvPrefix = "KRISHAK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"

	NotificationTransportDirect = "direct"
	NotificationTransportPubSub = "pubsub"
)

const (
	EnvAppEnv    = "KRISHAK_APP_ENV"
	EnvPort      = "KRISHAK_APP_PORT"
	EnvDBDSN     = "KRISHAK_DB_DSN"
	EnvDBHost    = "KRISHAK_DB_HOST"
	EnvDBUser    = "KRISHAK_DB_USER"
	EnvDBName    = "KRISHAK_DB_NAME"
	EnvUseSQLite = "KRISHAK_USE_SQLITE"

	EnvRedisURL   = "KRISHAK_REDIS_URL"
	EnvJWTSecret  = "KRISHAK_JWT_SECRET"
	EnvJWTIssuer  = "KRISHAK_JWT_ISSUER"
	EnvJWTExpMins = "KRISHAK_JWT_EXPIRATION_MINUTES"

	EnvGCSBucket       = "KRISHAK_GCS_BUCKET_NAME"
	EnvStorageBackend  = "KRISHAK_STORAGE_BACKEND"
	EnvStorageLocalDir = "KRISHAK_STORAGE_LOCAL_DIR"
	EnvMaxUploadMB     = "KRISHAK_MAX_UPLOAD_MB"

	EnvNotificationsTransport  = "KRISHAK_NOTIFICATIONS_TRANSPORT"
	EnvPubSubNotificationTopic = "KRISHAK_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "KRISHAK_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvTransportFee       = "KRISHAK_TRANSPORT_FEE"
	EnvPlatformFeePercent = "KRISHAK_PLATFORM_FEE_PERCENT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
