// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

// Package config loads SkillSwap configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Redis    RedisConfig    `koanf:"redis"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Upload   UploadConfig   `koanf:"upload"`
	Map      MapConfig      `koanf:"map"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `koanf:"port"`
	Host         string        `koanf:"host"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// Environment is development, staging or production. Production turns on
	// Secure cookies and rejects wildcard CORS.
	Environment string `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SecurityConfig holds session, rate limit, CORS and admin bootstrap settings.
//
// Environment Variables:
//   - SESSION_TTL: session lifetime (default: 8h)
//   - SESSION_COOKIE_NAME: cookie name (default: skillswap_session)
//   - SESSION_STORE: memory, badger or redis (default: memory)
//   - SESSION_STORE_PATH: BadgerDB directory when SESSION_STORE=badger
//   - ADMIN_EMAIL / ADMIN_PASSWORD: bootstrap admin created at startup
//   - CORS_ORIGINS: comma-separated allowed origins
type SecurityConfig struct {
	SessionTTL        time.Duration `koanf:"session_ttl"`
	SessionCookieName string        `koanf:"session_cookie_name"`
	SessionStore      string        `koanf:"session_store"`
	SessionStorePath  string        `koanf:"session_store_path"`

	RateLimitReqs      int           `koanf:"rate_limit_reqs"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled  bool          `koanf:"rate_limit_disabled"`
	AuthRateLimitReqs  int           `koanf:"auth_rate_limit_reqs"`
	LoginRateLimitReqs int           `koanf:"login_rate_limit_reqs"`

	CORSOrigins []string `koanf:"cors_origins"`

	AdminUsername string `koanf:"admin_username"`
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`

	// CasbinPolicyPath overrides the embedded authorization policy.
	CasbinPolicyPath string `koanf:"casbin_policy_path"`
}

// RedisConfig is used when security.session_store is redis.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// SMTPConfig configures the password reset mailer. An empty Host selects the
// log-only mailer.
type SMTPConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	From         string        `koanf:"from"`
	ResetBaseURL string        `koanf:"reset_base_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

// UploadConfig controls where uploaded files land.
type UploadConfig struct {
	Dir          string `koanf:"dir"`
	MaxSizeBytes int64  `koanf:"max_size_bytes"`
	ThumbWidth   int    `koanf:"thumb_width"`
}

// MapConfig controls the map generator subprocess.
type MapConfig struct {
	Python     string        `koanf:"python"`
	ScriptPath string        `koanf:"script_path"`
	OutputPath string        `koanf:"output_path"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxAge     time.Duration `koanf:"max_age"`
}

// LoggingConfig holds zerolog settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from all layers and validates the result:
//  1. Built-in defaults
//  2. Config file (CONFIG_PATH or config.yaml in the working directory)
//  3. Environment variables
func Load() (*Config, error) {
	return LoadWithKoanf()
}
