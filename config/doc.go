// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// A few settings can be overridden from the environment (PORT,
// SOURCE_BASE_URL, LOG_LEVEL).
package config
