package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the parity configuration
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Export      ExportConfig      `yaml:"export"`
	Consistency ConsistencyConfig `yaml:"consistency"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	API         APIConfig         `yaml:"api"`
	Registry    RegistryConfig    `yaml:"registry"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`      // "json" or "console"
	FilePath   string `yaml:"file_path"`   // Path to log file
	Console    bool   `yaml:"console"`     // Whether to log to console
	MaxSize    int    `yaml:"max_size"`    // Max file size in MB
	MaxBackups int    `yaml:"max_backups"` // Max number of backup files
	MaxAge     int    `yaml:"max_age"`     // Max age in days
	Cleanup    bool   `yaml:"cleanup"`     // Whether to cleanup log file on startup
}

// DatabaseConfig describes the relational store holding the loaded tables
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres, sqlite or duckdb
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	Path     string `yaml:"path"` // file path for sqlite/duckdb, empty means in-memory
}

// ObjectStoreConfig describes where artifacts are uploaded
type ObjectStoreConfig struct {
	Type         string `yaml:"type"` // minio or memory
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Region       string `yaml:"region"`
	UseSSL       bool   `yaml:"use_ssl"`
	CreateBucket bool   `yaml:"create_bucket"`
}

// ExportConfig controls artifact layout and encoding
type ExportConfig struct {
	Prefix      string `yaml:"prefix"`
	Compression string `yaml:"compression"`
}

// ConsistencyConfig controls the schema comparison policy
type ConsistencyConfig struct {
	SchemaMode string `yaml:"schema_mode"`
}

// PipelineConfig controls a pipeline run
type PipelineConfig struct {
	DataDir           string `yaml:"data_dir"`
	RollbackOnFailure bool   `yaml:"rollback_on_failure"`
	SignedIntegers    bool   `yaml:"signed_integers"`
}

// APIConfig configures the records API. Tokens maps a role to its bearer token.
type APIConfig struct {
	Address string            `yaml:"address"`
	Port    int               `yaml:"port"`
	Tokens  map[string]string `yaml:"tokens"`
}

// RegistryConfig locates the run ledger. An empty path disables it.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// LoadDefaultConfig returns a default configuration
func LoadDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			FilePath:   "logs/parity.log",
			Console:    true,
			MaxSize:    100, // 100MB
			MaxBackups: 3,
			MaxAge:     7, // 7 days
			Cleanup:    false,
		},
		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Host:    "localhost",
			Port:    DEFAULT_POSTGRES_PORT,
			Name:    "parity",
			User:    "postgres",
			SSLMode: "disable",
		},
		ObjectStore: ObjectStoreConfig{
			Type:         ObjectStoreMinIO,
			Endpoint:     "localhost:9000",
			Bucket:       "parity",
			Region:       "us-east-1",
			CreateBucket: true,
		},
		Export: ExportConfig{
			Prefix:      "output/",
			Compression: "snappy",
		},
		Consistency: ConsistencyConfig{
			SchemaMode: SchemaModeSymmetric,
		},
		Pipeline: PipelineConfig{
			DataDir:           "./data",
			RollbackOnFailure: true,
		},
		API: APIConfig{
			Address: DEFAULT_SERVER_ADDRESS,
			Port:    API_SERVER_PORT,
			Tokens: map[string]string{
				"doctor": "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9.doctor",
				"nurse":  "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9.nurse",
				"admin":  "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9.admin",
			},
		},
		Registry: RegistryConfig{
			Path: "parity-runs.db",
		},
	}
}

// LoadConfig loads configuration from a file on top of the defaults, then
// applies environment overrides and validates the result.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("path", filename)
	}

	config := LoadDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("path", filename)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, errors.New(ErrConfigValidationFailed, "configuration validation failed", err)
	}

	return config, nil
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are not an error; variables already set are not overwritten.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.New(ErrConfigEnvFileFailed, "failed to load env file", err).AddContext("path", path)
		}
	}
	return nil
}

// ApplyEnv overrides connection settings from the environment. The variable
// names follow the conventional DB_* / AWS_* / S3_* names.
func (c *Config) ApplyEnv() error {
	strVars := map[string]*string{
		"DB_DRIVER":             &c.Database.Driver,
		"DB_HOST":               &c.Database.Host,
		"DB_NAME":               &c.Database.Name,
		"DB_USER":               &c.Database.User,
		"DB_PASSWORD":           &c.Database.Password,
		"DB_SSLMODE":            &c.Database.SSLMode,
		"DB_PATH":               &c.Database.Path,
		"AWS_ACCESS_KEY_ID":     &c.ObjectStore.AccessKey,
		"AWS_SECRET_ACCESS_KEY": &c.ObjectStore.SecretKey,
		"AWS_REGION":            &c.ObjectStore.Region,
		"S3_BUCKET_NAME":        &c.ObjectStore.Bucket,
		"S3_ENDPOINT":           &c.ObjectStore.Endpoint,
		"PARITY_LOG_LEVEL":      &c.Log.Level,
	}
	for name, field := range strVars {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}

	if v, ok := os.LookupEnv("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(ErrConfigInvalidEnvValue, "DB_PORT must be an integer", err).AddContext("value", v)
		}
		c.Database.Port = port
	}

	if v, ok := os.LookupEnv("S3_USE_SSL"); ok && v != "" {
		useSSL, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New(ErrConfigInvalidEnvValue, "S3_USE_SSL must be a boolean", err).AddContext("value", v)
		}
		c.ObjectStore.UseSSL = useSSL
	}

	return nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err).AddContext("path", filename)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	if err := c.ObjectStore.Validate(); err != nil {
		return err
	}

	switch c.Consistency.SchemaMode {
	case SchemaModeSymmetric, SchemaModeStoreSubset:
	default:
		return errors.New(ErrSchemaModeUnknown, "unknown schema comparison mode", nil).AddContext("schema_mode", c.Consistency.SchemaMode)
	}

	if !IsValidPort(c.API.Port) {
		return errors.New(ErrPortOutOfRange, "api port out of range", nil).AddContext("port", strconv.Itoa(c.API.Port))
	}

	if len(c.API.Tokens) == 0 {
		return errors.New(ErrTokensRequired, "at least one api token is required", nil)
	}

	return nil
}

// Validate validates the database configuration
func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.Host == "" {
			return errors.New(ErrDatabaseHostRequired, "database host is required for postgres", nil)
		}
		if d.Name == "" {
			return errors.New(ErrDatabaseNameRequired, "database name is required for postgres", nil)
		}
		if !IsValidPort(d.Port) {
			return errors.New(ErrPortOutOfRange, "database port out of range", nil).AddContext("port", strconv.Itoa(d.Port))
		}
	case DriverSQLite, DriverDuckDB:
	default:
		return errors.New(ErrDatabaseDriverUnsupported, "unsupported database driver", nil).AddContext("driver", d.Driver)
	}
	return nil
}

// Validate validates the object store configuration
func (o *ObjectStoreConfig) Validate() error {
	switch o.Type {
	case ObjectStoreMinIO:
		if o.Endpoint == "" {
			return errors.New(ErrEndpointRequired, "object store endpoint is required for minio", nil)
		}
	case ObjectStoreMemory:
	default:
		return errors.New(ErrObjectStoreTypeUnknown, "unknown object store type", nil).AddContext("type", o.Type)
	}

	if o.Bucket == "" {
		return errors.New(ErrBucketRequired, "object store bucket is required", nil)
	}
	return nil
}

// PostgresURL renders the connection URL for the postgres driver
func (d *DatabaseConfig) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// GetAPIAddress returns the host:port the records API listens on
func (c *Config) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.Address, c.API.Port)
}
