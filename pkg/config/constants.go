package config

const (
	EnvPrefix = "PORTAL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "PORTAL_APP_ENV"
	EnvPort                   = "PORTAL_APP_PORT"
	EnvRedisURL               = "PORTAL_REDIS_URL"
	EnvJWTSecret              = "PORTAL_JWT_SECRET"
	EnvJWTIssuer              = "PORTAL_JWT_ISSUER"
	EnvJWTExpMins             = "PORTAL_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PORTAL_REFRESH_TOKEN_TTL_MINUTES"

	EnvAirtableAPIURL        = "PORTAL_AIRTABLE_API_URL"
	EnvAirtableDefaultBaseID = "PORTAL_AIRTABLE_DEFAULT_BASE_ID"
	EnvAirtableBaseID        = "PORTAL_AIRTABLE_BASE_ID"
	EnvAirtableToken         = "PORTAL_AIRTABLE_PAT"
	EnvAirtableIDChunkSize   = "PORTAL_AIRTABLE_ID_CHUNK_SIZE"
	EnvAirtablePageSize      = "PORTAL_AIRTABLE_PAGE_SIZE"

	// The store rejects page sizes above 100; record-id disjunctions beyond ~100
	// terms push list URLs past the store's length limit.
	maxPageSize     = 100
	maxFormulaChunk = 100
)
