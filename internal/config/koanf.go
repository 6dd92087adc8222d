// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/skillswap/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         3000,
			Host:         "0.0.0.0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 45 * time.Second, // map generation can take up to 30s
			IdleTimeout:  60 * time.Second,
			Environment:  "development",
		},
		Database: DatabaseConfig{
			Path:      "data/skillswap.duckdb",
			MaxMemory: "512MB",
		},
		Security: SecurityConfig{
			SessionTTL:         8 * time.Hour,
			SessionCookieName:  "skillswap_session",
			SessionStore:       "memory",
			SessionStorePath:   "data/sessions",
			RateLimitReqs:      300,
			RateLimitWindow:    time.Minute,
			AuthRateLimitReqs:  30,
			LoginRateLimitReqs: 10,
			CORSOrigins:        []string{"http://localhost:5173"},
			AdminUsername:      "admin",
		},
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Prefix: "skillswap:session:",
		},
		SMTP: SMTPConfig{
			Port:         587,
			From:         "no-reply@skillswap.local",
			ResetBaseURL: "http://localhost:5173/reset-password",
			Timeout:      10 * time.Second,
		},
		Upload: UploadConfig{
			Dir:          "uploads",
			MaxSizeBytes: 10 << 20,
			ThumbWidth:   300,
		},
		Map: MapConfig{
			Python:     "python3",
			ScriptPath: "scripts/generate_map.py",
			OutputPath: "public/map.html",
			Timeout:    30 * time.Second,
			MaxAge:     5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers (defaults, file, env)
// and validates it. Environment variables win over the file.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			continue
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed are ignored.
var envMappings = map[string]string{
	// Server
	"port":               "server.port",
	"http_port":          "server.port",
	"http_host":          "server.host",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"http_idle_timeout":  "server.idle_timeout",
	"environment":        "server.environment",
	"node_env":           "server.environment",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Security
	"session_ttl":           "security.session_ttl",
	"session_cookie_name":   "security.session_cookie_name",
	"session_store":         "security.session_store",
	"session_store_path":    "security.session_store_path",
	"rate_limit_requests":   "security.rate_limit_reqs",
	"rate_limit_window":     "security.rate_limit_window",
	"disable_rate_limit":    "security.rate_limit_disabled",
	"auth_rate_limit":       "security.auth_rate_limit_reqs",
	"login_rate_limit":      "security.login_rate_limit_reqs",
	"cors_origins":          "security.cors_origins",
	"client_origin":         "security.cors_origins",
	"admin_username":        "security.admin_username",
	"admin_email":           "security.admin_email",
	"admin_password":        "security.admin_password",
	"casbin_policy_path":    "security.casbin_policy_path",

	// Redis
	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",
	"redis_prefix":   "redis.prefix",

	// SMTP
	"smtp_host":         "smtp.host",
	"smtp_port":         "smtp.port",
	"smtp_user":         "smtp.username",
	"smtp_pass":         "smtp.password",
	"mail_from":         "smtp.from",
	"frontend_base_url": "smtp.reset_base_url",
	"smtp_timeout":      "smtp.timeout",

	// Upload
	"upload_dir":       "upload.dir",
	"upload_max_bytes": "upload.max_size_bytes",

	// Map
	"map_python":      "map.python",
	"map_script_path": "map.script_path",
	"map_output_path": "map.output_path",
	"map_timeout":     "map.timeout",
	"map_max_age":     "map.max_age",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
