// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvConfigFile points at an optional YAML file overlaying the environment configuration
	EnvConfigFile = "JOBTRACK_CONFIG"

	// EnvServerPort is the port the API server listens on
	EnvServerPort = "SERVER_PORT"

	// EnvDBDriver selects the database driver ("postgres" or "sqlite")
	EnvDBDriver = "DB_DRIVER"
	// EnvDBHost is the database host
	EnvDBHost = "DB_HOST"
	// EnvDBPort is the database port
	EnvDBPort = "DB_PORT"
	// EnvDBUser is the database user
	EnvDBUser = "DB_USER"
	// EnvDBPassword is the database password
	EnvDBPassword = "DB_PASSWORD"
	// EnvDBName is the database name
	EnvDBName = "DB_NAME"
	// EnvDBSSLMode is the postgres sslmode
	EnvDBSSLMode = "DB_SSL_MODE"
	// EnvDBPath is the sqlite database file
	EnvDBPath = "DB_PATH"

	// EnvJWTSecret is the HMAC secret used to sign session tokens
	EnvJWTSecret = "JWT_SECRET"
	// EnvTokenTTL is how long an issued session token stays valid
	EnvTokenTTL = "TOKEN_TTL"
	// EnvAdminUsername is the username of the bootstrap admin account
	EnvAdminUsername = "ADMIN_USERNAME"
	// EnvAdminPassword is the password of the bootstrap admin account
	EnvAdminPassword = "ADMIN_PASSWORD"

	// EnvRejectPolicy selects where an admin rejection sends a job ("rework" or "terminal")
	EnvRejectPolicy = "REJECT_POLICY"

	// EnvPollInterval is the dashboard refresh interval
	EnvPollInterval = "DASHBOARD_POLL_INTERVAL"
	// EnvRequestTimeout bounds each API request made by the client
	EnvRequestTimeout = "REQUEST_TIMEOUT"

	// EnvLogLevel is the logrus level name
	EnvLogLevel = "LOG_LEVEL"

	// EnvServerAddress is the API address used by the CLI
	EnvServerAddress = "JOBTRACK_SERVER_ADDRESS"
	// EnvToken is the session token used by the CLI
	EnvToken = "JOBTRACK_TOKEN"
)
