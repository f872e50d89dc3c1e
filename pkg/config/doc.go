// Package config loads application configuration.
//
// # Overview
//
// Configuration is resolved in three layers: built-in defaults, an optional
// YAML file named by TASKDESK_CONFIG_FILE, and TASKDESK_* environment
// variables. Later layers win.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - cmd/taskdesk: Consumes the loaded configuration at startup
package config
