package config

// Network defaults for the records API
const (
	// API_SERVER_PORT avoids the common development ports (8080, 3000, 5000)
	API_SERVER_PORT = 2847

	// Default bind address for the API server
	DEFAULT_SERVER_ADDRESS = "0.0.0.0"

	// Localhost address for development
	LOCALHOST_ADDRESS = "127.0.0.1"
)

// Relational store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"

	DEFAULT_POSTGRES_PORT = 5432
)

// Object store types
const (
	ObjectStoreMinIO  = "minio"
	ObjectStoreMemory = "memory"
)

// Schema comparison modes
const (
	// SchemaModeSymmetric requires both column sets to match exactly
	SchemaModeSymmetric = "symmetric"
	// SchemaModeStoreSubset only requires store columns to be present in the artifact
	SchemaModeStoreSubset = "store_subset"
)

// Port validation constants
const (
	MIN_PORT = 1
	MAX_PORT = 65535
)

// IsValidPort checks if a port number is within valid range
func IsValidPort(port int) bool {
	return port >= MIN_PORT && port <= MAX_PORT
}
