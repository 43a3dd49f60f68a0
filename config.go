package yachtsql

import (
	"time"
)

// Config consolidates every tunable of the engine: storage connectivity,
// query execution limits, transaction policy, execution concurrency,
// logging and metrics. The composition mirrors the Config struct
// (one sub-config per concern, populated with defaults by DefaultConfig).
type Config struct {
	Database    DatabaseConfig    `json:"database"`
	Query       QueryConfig       `json:"query"`
	Catalog     CatalogConfig     `json:"catalog"`
	Transaction TransactionConfig `json:"transaction"`
	Performance PerformanceConfig `json:"performance"`
	Logging     LoggingConfig     `json:"logging"`
	Metrics     MetricsConfig     `json:"metrics"`
}

// StorageKind selects which internal/storageadapter implementation backs a
// Dataset: Postgres for OLTP-shaped sources, DuckDB for analytic/in-process
// execution, matching internal/federated_routing.go's Hot/Warm/Cold tiers.
type StorageKind string

const (
	StoragePostgres StorageKind = "postgres"
	StorageDuckDB   StorageKind = "duckdb"
)

// DatabaseConfig contains storage backend connection settings.
type DatabaseConfig struct {
	Kind            StorageKind   `json:"kind"`
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	MaxConnections  int           `json:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout"`
	DuckDBPath      string        `json:"duckdbPath,omitempty"` // ":memory:" or a file path
}

// QueryConfig contains query planning and execution settings.
type QueryConfig struct {
	DefaultTimeout     time.Duration `json:"defaultTimeout"`
	MaxRows            int           `json:"maxRows"`
	DefaultPageSize    int           `json:"defaultPageSize"`
	MaxPageSize        int           `json:"maxPageSize"`
	EnableOptimization bool          `json:"enableOptimization"` // if false, physical planner runs directly off the unoptimized logical plan
	OptimizerMaxPasses int           `json:"optimizerMaxPasses"` // fixpoint iteration cap for the rule-based optimizer
	CacheQueryPlans    bool          `json:"cacheQueryPlans"`
	QueryPlanCacheTTL  time.Duration `json:"queryPlanCacheTTL"`
	DefaultNullsOrder  NullsOrder    `json:"defaultNullsOrder"`
}

// CatalogConfig contains dataset/view/schema management settings,
// generalizing the EntityConfig+ReferenceConfig into catalog-level
// policy (cascading drops, schema caching) rather than per-entity validation.
type CatalogConfig struct {
	EnableConstraintValidation bool          `json:"enableConstraintValidation"`
	DefaultCascadeOnDrop       bool          `json:"defaultCascadeOnDrop"`
	MaxCascadeDepth            int           `json:"maxCascadeDepth"`
	CacheEnabled               bool          `json:"cacheEnabled"`
	CacheTTL                   time.Duration `json:"cacheTTL"`
	SchemaDirectory            string        `json:"schemaDirectory"`
}

// TransactionConfig contains MVCC transaction settings.
type TransactionConfig struct {
	DefaultTimeout           time.Duration  `json:"defaultTimeout"`
	MaxTimeout               time.Duration  `json:"maxTimeout"`
	MaxRetryAttempts         int            `json:"maxRetryAttempts"`
	RetryDelay               time.Duration  `json:"retryDelay"`
	IsolationLevel           IsolationLevel `json:"isolationLevel"`
	SlowTransactionThreshold time.Duration  `json:"slowTransactionThreshold"`
	MinSuccessRate           float64        `json:"minSuccessRate"`
	MaxConnectionPoolUsage   float64        `json:"maxConnectionPoolUsage"`
}

// PerformanceConfig contains execution concurrency and batching settings
// consumed by internal/exec's parallel operators and internal/physicalplan's
// ExecutionHints.
type PerformanceConfig struct {
	EnableMonitoring       bool          `json:"enableMonitoring"`
	SlowQueryThreshold     time.Duration `json:"slowQueryThreshold"`
	SlowOperatorThreshold  time.Duration `json:"slowOperatorThreshold"`
	BatchSize              int           `json:"batchSize"`
	MaxBatchSize           int           `json:"maxBatchSize"`
	Parallel               ParallelConfig `json:"parallel"`
	EnableMemoryMonitoring bool          `json:"enableMemoryMonitoring"`
	MemoryThreshold        int64         `json:"memoryThreshold"`
}

// ParallelConfig governs operator-level fan-out, the generalization of
// BatchConfig's worker/chunk knobs to physical operator parallelism.
type ParallelConfig struct {
	Enabled            bool `json:"enabled"`
	MaxWorkers         int  `json:"maxWorkers"`
	ParallelThreshold  int  `json:"parallelThreshold"` // rows below this run single-threaded
	ChunkSize          int  `json:"chunkSize"`
	CircuitBreakerOpen int  `json:"circuitBreakerOpenSeconds"`
}

// LoggingConfig contains zap logger settings.
type LoggingConfig struct {
	Level              string `json:"level"`
	Format             string `json:"format"`
	EnableQueryLogging bool   `json:"enableQueryLogging"`
	LogSlowQueries     bool   `json:"logSlowQueries"`
	SanitizeParameters bool   `json:"sanitizeParameters"`
}

// MetricsConfig contains metrics collection settings.
type MetricsConfig struct {
	Enabled            bool              `json:"enabled"`
	Namespace          string            `json:"namespace"`
	Labels             map[string]string `json:"labels"`
	CollectionInterval time.Duration     `json:"collectionInterval"`
}

// DefaultConfig returns a default configuration suitable for an in-process
// DuckDB-backed engine with optimization and parallel execution enabled.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Kind:            StorageDuckDB,
			DuckDBPath:      ":memory:",
			MaxConnections:  25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,
		},
		Query: QueryConfig{
			DefaultTimeout:     30 * time.Second,
			MaxRows:            100000,
			DefaultPageSize:    50,
			MaxPageSize:        1000,
			EnableOptimization: true,
			OptimizerMaxPasses: 10,
			CacheQueryPlans:    true,
			QueryPlanCacheTTL:  1 * time.Hour,
			DefaultNullsOrder:  NullsLast,
		},
		Catalog: CatalogConfig{
			EnableConstraintValidation: true,
			DefaultCascadeOnDrop:       false,
			MaxCascadeDepth:            5,
			CacheEnabled:               true,
			CacheTTL:                   5 * time.Minute,
		},
		Transaction: TransactionConfig{
			DefaultTimeout:           30 * time.Second,
			MaxTimeout:               5 * time.Minute,
			MaxRetryAttempts:         3,
			RetryDelay:               100 * time.Millisecond,
			IsolationLevel:           IsolationReadCommitted,
			SlowTransactionThreshold: 2 * time.Second,
			MinSuccessRate:           95.0,
			MaxConnectionPoolUsage:   80.0,
		},
		Performance: PerformanceConfig{
			EnableMonitoring:      true,
			SlowQueryThreshold:    1 * time.Second,
			SlowOperatorThreshold: 2 * time.Second,
			BatchSize:             1024,
			MaxBatchSize:          8192,
			Parallel: ParallelConfig{
				Enabled:            true,
				MaxWorkers:         4,
				ParallelThreshold:  50000,
				ChunkSize:          1024,
				CircuitBreakerOpen: 30,
			},
			EnableMemoryMonitoring: true,
			MemoryThreshold:        512 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "json",
			EnableQueryLogging: false,
			LogSlowQueries:     true,
			SanitizeParameters: true,
		},
		Metrics: MetricsConfig{
			Enabled:             true,
			Namespace:           "yachtsql",
			CollectionInterval:  30 * time.Second,
		},
	}
}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	if c.Database.Kind == StoragePostgres && c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}
	if c.Query.DefaultPageSize <= 0 {
		return &ConfigError{Field: "query.defaultPageSize", Message: "must be greater than 0"}
	}
	if c.Query.MaxPageSize < c.Query.DefaultPageSize {
		return &ConfigError{Field: "query.maxPageSize", Message: "must be greater than or equal to defaultPageSize"}
	}
	if c.Performance.BatchSize <= 0 {
		return &ConfigError{Field: "performance.batchSize", Message: "must be greater than 0"}
	}
	if c.Performance.MaxBatchSize < c.Performance.BatchSize {
		return &ConfigError{Field: "performance.maxBatchSize", Message: "must be greater than or equal to batchSize"}
	}
	if c.Performance.Parallel.MaxWorkers <= 0 {
		return &ConfigError{Field: "performance.parallel.maxWorkers", Message: "must be greater than 0"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
