package yachtsql

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Database.Kind != StorageDuckDB {
		t.Errorf("expected duckdb storage by default, got %s", config.Database.Kind)
	}
	if config.Database.MaxConnections != 25 {
		t.Errorf("expected max connections to be 25, got %d", config.Database.MaxConnections)
	}

	if config.Query.DefaultTimeout != 30*time.Second {
		t.Errorf("expected default timeout to be 30s, got %v", config.Query.DefaultTimeout)
	}
	if config.Query.DefaultPageSize != 50 {
		t.Errorf("expected default page size to be 50, got %d", config.Query.DefaultPageSize)
	}
	if config.Query.MaxPageSize != 1000 {
		t.Errorf("expected max page size to be 1000, got %d", config.Query.MaxPageSize)
	}
	if config.Query.DefaultNullsOrder != NullsLast {
		t.Errorf("expected default nulls order to be NullsLast, got %s", config.Query.DefaultNullsOrder)
	}

	if !config.Catalog.EnableConstraintValidation {
		t.Error("expected constraint validation to be enabled by default")
	}
	if config.Catalog.DefaultCascadeOnDrop {
		t.Error("expected cascade-on-drop to be disabled by default")
	}

	if config.Transaction.DefaultTimeout != 30*time.Second {
		t.Errorf("expected transaction timeout to be 30s, got %v", config.Transaction.DefaultTimeout)
	}
	if config.Transaction.MaxRetryAttempts != 3 {
		t.Errorf("expected max retry attempts to be 3, got %d", config.Transaction.MaxRetryAttempts)
	}
	if config.Transaction.IsolationLevel != IsolationReadCommitted {
		t.Errorf("expected read_committed isolation by default, got %s", config.Transaction.IsolationLevel)
	}

	if !config.Performance.EnableMonitoring {
		t.Error("expected performance monitoring to be enabled by default")
	}
	if config.Performance.SlowQueryThreshold != 1*time.Second {
		t.Errorf("expected slow query threshold to be 1s, got %v", config.Performance.SlowQueryThreshold)
	}
	if !config.Performance.Parallel.Enabled {
		t.Error("expected parallel execution to be enabled by default")
	}
	if config.Performance.Parallel.MaxWorkers != 4 {
		t.Errorf("expected 4 max workers by default, got %d", config.Performance.Parallel.MaxWorkers)
	}
}

func TestConfigValidationDetailed(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorField  string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(),
			expectError: false,
		},
		{
			name: "invalid max connections for postgres",
			config: &Config{
				Database:    DatabaseConfig{Kind: StoragePostgres, MaxConnections: 0},
				Query:       QueryConfig{DefaultPageSize: 50, MaxPageSize: 100},
				Performance: PerformanceConfig{BatchSize: 100, MaxBatchSize: 1000, Parallel: ParallelConfig{MaxWorkers: 1}},
			},
			expectError: true,
			errorField:  "database.maxConnections",
		},
		{
			name: "invalid page size",
			config: &Config{
				Database:    DatabaseConfig{Kind: StorageDuckDB},
				Query:       QueryConfig{DefaultPageSize: 0, MaxPageSize: 100},
				Performance: PerformanceConfig{BatchSize: 100, MaxBatchSize: 1000, Parallel: ParallelConfig{MaxWorkers: 1}},
			},
			expectError: true,
			errorField:  "query.defaultPageSize",
		},
		{
			name: "max page size less than default",
			config: &Config{
				Database:    DatabaseConfig{Kind: StorageDuckDB},
				Query:       QueryConfig{DefaultPageSize: 100, MaxPageSize: 50},
				Performance: PerformanceConfig{BatchSize: 100, MaxBatchSize: 1000, Parallel: ParallelConfig{MaxWorkers: 1}},
			},
			expectError: true,
			errorField:  "query.maxPageSize",
		},
		{
			name: "invalid batch size",
			config: &Config{
				Database:    DatabaseConfig{Kind: StorageDuckDB},
				Query:       QueryConfig{DefaultPageSize: 50, MaxPageSize: 100},
				Performance: PerformanceConfig{BatchSize: 0, MaxBatchSize: 1000, Parallel: ParallelConfig{MaxWorkers: 1}},
			},
			expectError: true,
			errorField:  "performance.batchSize",
		},
		{
			name: "max batch size less than batch size",
			config: &Config{
				Database:    DatabaseConfig{Kind: StorageDuckDB},
				Query:       QueryConfig{DefaultPageSize: 50, MaxPageSize: 100},
				Performance: PerformanceConfig{BatchSize: 1000, MaxBatchSize: 100, Parallel: ParallelConfig{MaxWorkers: 1}},
			},
			expectError: true,
			errorField:  "performance.maxBatchSize",
		},
		{
			name: "zero parallel workers",
			config: &Config{
				Database:    DatabaseConfig{Kind: StorageDuckDB},
				Query:       QueryConfig{DefaultPageSize: 50, MaxPageSize: 100},
				Performance: PerformanceConfig{BatchSize: 100, MaxBatchSize: 1000, Parallel: ParallelConfig{MaxWorkers: 0}},
			},
			expectError: true,
			errorField:  "performance.parallel.maxWorkers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected validation error but got none")
				} else if configErr, ok := err.(*ConfigError); ok {
					if configErr.Field != tt.errorField {
						t.Errorf("expected error field %s, got %s", tt.errorField, configErr.Field)
					}
				} else {
					t.Errorf("expected ConfigError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no validation error but got: %v", err)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "test.field",
		Message: "test message",
	}

	expected := "config validation error for field 'test.field': test message"
	if err.Error() != expected {
		t.Errorf("expected error message %s, got %s", expected, err.Error())
	}
}
