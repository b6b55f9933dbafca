// Package config handles loading and validating zwaved configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with ZWAVED_* environment variables
//   - Validation of required fields, reporting every problem at once
//   - Default value handling, including the built-in mode catalog
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("/etc/zwaved/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	catalog, _ := cfg.ModeCatalog()
package config
