package config

// Environment variable keys. Each overrides the matching config file value.
const (
	EnvConfigFile    = "CONFIG_FILE"
	EnvAppEnv        = "APP_ENV"
	EnvServerPort    = "SERVER_PORT"
	EnvDBDriver      = "DB_DRIVER"
	EnvDatabaseDSN   = "DATABASE_DSN"
	EnvMySQLDSN      = "MYSQL_DSN" // fallback for DATABASE_DSN
	EnvResetDB       = "RESET_DB"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvJWTSecret     = "JWT_SECRET"
	EnvTokenTTL      = "TOKEN_TTL"
	EnvBcryptCost    = "BCRYPT_COST"
	EnvCookieName    = "AUTH_COOKIE_NAME"
	EnvCookieSecure  = "AUTH_COOKIE_SECURE"
	EnvSwaggerHost   = "SWAGGER_HOST"
)
