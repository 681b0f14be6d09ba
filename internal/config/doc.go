// Package config handles configuration loading for console-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	session:
//	  hash_key: "${CONSOLE_HASH_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	backend:
//	  timeout: "15s"
//	session:
//	  ttl: "168h"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # Console UI and API
//
// Platform backend:
//
//	backend:
//	  base_url: "http://localhost:8000"
//	  timeout: "15s"
//
// Database:
//
//	database:
//	  path: "/var/lib/console-gateway/console.db"
//
// Console sessions:
//
//	session:
//	  cookie_name: "console_session"
//	  hash_key: "${CONSOLE_HASH_KEY}"   # Required
//	  block_key: "${CONSOLE_BLOCK_KEY}" # Optional, enables cookie encryption
//	  ttl: "168h"
//
// Navigation routes:
//
//	routes:
//	  login: "/login"
//	  default_landing: "/home"
//	  admin_landing: "/admin"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
