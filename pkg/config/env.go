package config

const EnvPrefix = "BIZOPS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "BIZOPS_APP_ENV"
	EnvPort     = "BIZOPS_APP_PORT"
	EnvLogLevel = "BIZOPS_LOG_LEVEL"

	EnvDBDSN  = "BIZOPS_DB_DSN"
	EnvDBHost = "BIZOPS_DB_HOST"
	EnvDBUser = "BIZOPS_DB_USER"
	EnvDBName = "BIZOPS_DB_NAME"

	EnvRedisURL = "BIZOPS_REDIS_URL"

	EnvJWTSecret  = "BIZOPS_JWT_SECRET"
	EnvJWTIssuer  = "BIZOPS_JWT_ISSUER"
	EnvJWTExpMins = "BIZOPS_JWT_EXPIRATION_MINUTES"

	EnvOrderNumberTZ = "BIZOPS_ORDER_NUMBER_TZ"

	EnvGCPProjectID      = "BIZOPS_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "BIZOPS_PUBSUB_DOMAIN_TOPIC"
	EnvCORSOrigins       = "BIZOPS_CORS_ALLOWED_ORIGINS"
	EnvCronInterval      = "BIZOPS_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
