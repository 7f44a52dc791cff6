package config

// EnvPrefix is passed to envconfig; individual fields carry fully prefixed
// tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical env var names, shared with tests and deploy tooling.
const (
	EnvAppEnv = "LAPZONE_APP_ENV"
	EnvPort   = "LAPZONE_APP_PORT"

	EnvDBDSN  = "LAPZONE_DB_DSN"
	EnvDBHost = "LAPZONE_DB_HOST"
	EnvDBUser = "LAPZONE_DB_USER"
	EnvDBName = "LAPZONE_DB_NAME"

	EnvRedisURL = "LAPZONE_REDIS_URL"

	EnvJWTSecret              = "LAPZONE_JWT_SECRET"
	EnvJWTIssuer              = "LAPZONE_JWT_ISSUER"
	EnvJWTExpMins             = "LAPZONE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LAPZONE_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
