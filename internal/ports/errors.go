package ports

import (
	"errors"
	"fmt"
)

// Infrastructure errors shared by adapters.
var (
	// ErrRateLimited indicates that a request exceeded the configured rate.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that a backing service such as Redis
	// could not be reached.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrCacheCorrupted indicates that cached data could not be decoded.
	ErrCacheCorrupted = errors.New("cache corrupted")

	// ErrConfigNotFound indicates that a required configuration source is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// CacheError represents a failed cache operation on one key.
type CacheError struct {
	// Key is the cache key that was involved in the failed operation.
	Key string

	// Operation is the name of the cache operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for CacheError.
func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *CacheError) Unwrap() error { return e.Err }

// NewCacheError creates a new CacheError with the given details.
func NewCacheError(key, operation string, err error) *CacheError {
	return &CacheError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error reading or decoding configuration.
type ConfigError struct {
	// ConfigKey names the file or setting involved.
	ConfigKey string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
