package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Artifact backends.
const (
	ArtifactBackendFile     = "file"
	ArtifactBackendPostgres = "postgres"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, database connection,
// the transform pipeline, the classifier, artifact storage and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the level implied by Environment when set
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MaxBodyBytes limits the size of request bodies
		MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" env-default:"1048576" yaml:"maxBodyBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// AllowedOrigins lists the origins allowed by CORS; empty allows all
		AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" yaml:"allowedOrigins"`
		// Pprof exposes the runtime profiler under /debug/pprof
		Pprof bool `env:"HTTP_PPROF" env-default:"false" yaml:"pprof"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"loanapproval" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
		// ConnectTimeout bounds connecting and the startup ping
		ConnectTimeout time.Duration `env:"DATABASE_CONNECT_TIMEOUT" env-default:"10s" yaml:"connectTimeout"`
	} `yaml:"database"`

	// Pipeline configures the fit phase of the feature transform
	Pipeline struct {
		// TestRatio is the share of each class held out for evaluation
		TestRatio float64 `env:"PIPELINE_TEST_RATIO" env-default:"0.2" yaml:"testRatio"`
		// Seed drives the stratified split and SMOTE sampling
		Seed uint64 `env:"PIPELINE_SEED" env-default:"42" yaml:"seed"`
		// SmoteNeighbours is the number of nearest minority neighbours used by SMOTE
		SmoteNeighbours int `env:"PIPELINE_SMOTE_NEIGHBOURS" env-default:"5" yaml:"smoteNeighbours"`
		// BalanceRatio is the target minority to majority ratio after SMOTE
		BalanceRatio float64 `env:"PIPELINE_BALANCE_RATIO" env-default:"1" yaml:"balanceRatio"`
	} `yaml:"pipeline"`

	// Model configures the random forest classifier
	Model struct {
		// Trees is the number of trees in the forest
		Trees int `env:"MODEL_TREES" env-default:"100" yaml:"trees"`
		// MaxDepth limits tree depth, 0 means unlimited
		MaxDepth int `env:"MODEL_MAX_DEPTH" env-default:"0" yaml:"maxDepth"`
		// MinSamplesSplit is the minimum number of rows required to split a node
		MinSamplesSplit int `env:"MODEL_MIN_SAMPLES_SPLIT" env-default:"2" yaml:"minSamplesSplit"`
		// MinSamplesLeaf is the minimum number of rows on each side of a split
		MinSamplesLeaf int `env:"MODEL_MIN_SAMPLES_LEAF" env-default:"1" yaml:"minSamplesLeaf"`
		// MaxFeatures is the number of features tried per split, 0 means sqrt
		MaxFeatures int `env:"MODEL_MAX_FEATURES" env-default:"0" yaml:"maxFeatures"`
		// Seed drives bootstrap sampling and feature selection
		Seed uint64 `env:"MODEL_SEED" env-default:"42" yaml:"seed"`
		// Workers bounds concurrent tree construction, 0 means GOMAXPROCS
		Workers int `env:"MODEL_WORKERS" env-default:"0" yaml:"workers"`
	} `yaml:"model"`

	// Artifact configures where trained artifacts are published and read from
	Artifact struct {
		// Backend is either "file" or "postgres"
		Backend string `env:"ARTIFACT_BACKEND" env-default:"file" yaml:"backend"`
		// Path is the directory used by the file backend
		Path string `env:"ARTIFACT_PATH" env-default:"artifacts" yaml:"path"`
		// RefreshInterval is how often the predictor checks for a newer artifact, 0 disables polling
		RefreshInterval time.Duration `env:"ARTIFACT_REFRESH_INTERVAL" env-default:"1m" yaml:"refreshInterval"`
	} `yaml:"artifact"`

	// JWT holds the RSA key pair used for bearer authentication
	JWT struct {
		// PublicKey verifies bearer tokens, empty disables authentication
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey signs tokens issued by the jwt command
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
	} `yaml:"jwt"`

	// Worker configures the background training job processor
	Worker struct {
		// MaxWorkers is the number of training jobs processed concurrently
		MaxWorkers int `env:"WORKER_MAX_WORKERS" env-default:"1" yaml:"maxWorkers"`
		// MaxAttempts is the maximum number of times a failed training job is tried
		MaxAttempts int `env:"WORKER_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
		// Dataset is the labeled CSV used by training jobs that do not name one
		Dataset string `env:"WORKER_DATASET" env-default:"data/loans.csv" yaml:"dataset"`
	} `yaml:"worker"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Artifact.Backend {
	case ArtifactBackendFile, ArtifactBackendPostgres:
	default:
		return fmt.Errorf("invalid artifact backend %q", c.Artifact.Backend)
	}
	if c.Pipeline.TestRatio <= 0 || c.Pipeline.TestRatio >= 1 {
		return fmt.Errorf("pipeline test ratio must be in (0, 1), got %v", c.Pipeline.TestRatio)
	}

	return nil
}
