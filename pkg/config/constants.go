package config

// EnvPrefix is applied by envconfig when the struct tags omit a full name.
const EnvPrefix = "WISHERR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "WISHERR_DB_DSN"
	EnvDBHost = "WISHERR_DB_HOST"
	EnvDBUser = "WISHERR_DB_USER"
	EnvDBName = "WISHERR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
