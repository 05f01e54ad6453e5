package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "BAZAAR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "BAZAAR_APP_ENV"
	EnvPort        = "BAZAAR_APP_PORT"
	EnvAdminEmails = "BAZAAR_APP_ADMIN_EMAILS"

	EnvDBDSN  = "BAZAAR_DB_DSN"
	EnvDBHost = "BAZAAR_DB_HOST"
	EnvDBUser = "BAZAAR_DB_USER"
	EnvDBName = "BAZAAR_DB_NAME"

	EnvRedisURL = "BAZAAR_REDIS_URL"

	EnvJWTSecret  = "BAZAAR_JWT_SECRET"
	EnvJWTIssuer  = "BAZAAR_JWT_ISSUER"
	EnvJWTExpMins = "BAZAAR_JWT_EXPIRATION_MINUTES"

	EnvGoogleClientID  = "BAZAAR_GOOGLE_CLIENT_ID"
	EnvOperationsInbox = "BAZAAR_OPERATIONS_INBOX"

	EnvSquareAccessToken   = "BAZAAR_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID    = "BAZAAR_SQUARE_LOCATION_ID"
	EnvSquareWebhookSecret = "BAZAAR_SQUARE_WEBHOOK_SECRET"

	EnvPaymentsDefaultCurrency = "BAZAAR_PAYMENTS_DEFAULT_CURRENCY"

	EnvRelayMaxImages     = "BAZAAR_RELAY_MAX_IMAGES"
	EnvRelayMaxDocuments  = "BAZAAR_RELAY_MAX_DOCUMENTS"
	EnvRelayMaxTotalBytes = "BAZAAR_RELAY_MAX_TOTAL_BYTES"

	EnvGCPProjectID = "BAZAAR_GCP_PROJECT_ID"
)
