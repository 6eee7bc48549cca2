package config

const EnvPrefix = "PEYKAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN           = "PEYKAN_DB_DSN"
	EnvDBHost          = "PEYKAN_DB_HOST"
	EnvDBUser          = "PEYKAN_DB_USER"
	EnvDBName          = "PEYKAN_DB_NAME"
	EnvUpstreamBaseURL = "PEYKAN_UPSTREAM_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
