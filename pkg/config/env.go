package config

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "SHOPFRONT_APP_ENV"
	EnvPort         = "SHOPFRONT_APP_PORT"
	EnvFrontendURL  = "SHOPFRONT_FRONTEND_URL"
	EnvDBDSN        = "SHOPFRONT_DB_DSN"
	EnvDBHost       = "SHOPFRONT_DB_HOST"
	EnvDBUser       = "SHOPFRONT_DB_USER"
	EnvDBPassword   = "SHOPFRONT_DB_PASSWORD"
	EnvDBName       = "SHOPFRONT_DB_NAME"
	EnvRedisURL     = "SHOPFRONT_REDIS_URL"
	EnvJWTSecret    = "SHOPFRONT_JWT_SECRET"
	EnvJWTIssuer    = "SHOPFRONT_JWT_ISSUER"
	EnvJWTExpDays   = "SHOPFRONT_JWT_EXPIRATION_DAYS"
	EnvOTPTTL       = "SHOPFRONT_OTP_TTL"
	EnvOTPLength    = "SHOPFRONT_OTP_LENGTH"
	EnvRazorpayKey  = "SHOPFRONT_RAZORPAY_KEY_ID"
	EnvRazorpaySec  = "SHOPFRONT_RAZORPAY_KEY_SECRET"
	EnvPubSubTopic  = "SHOPFRONT_PUBSUB_DOMAIN_TOPIC"
	EnvGCPProjectID = "SHOPFRONT_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
