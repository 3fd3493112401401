// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Commands load an optional .env file before calling Load, so secrets such as the
// feed API key never need to live in the YAML itself.
package config
