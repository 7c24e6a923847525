// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	API    APIConfig
	Log    LogConfig
	App    AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `validate:"required,numeric"`
	ReadTimeout  int    `validate:"gte=0"` // seconds
	WriteTimeout int    `validate:"gte=0"` // seconds
	IdleTimeout  int    `validate:"gte=0"` // seconds
}

// APIConfig holds the REST backend settings.
type APIConfig struct {
	URL     string `validate:"required,url"`
	Timeout int    `validate:"gte=0"` // seconds, 0 = none
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level     string `validate:"omitempty,oneof=debug info warn warning error"`
	File      string
	FileSize  int `validate:"gte=0"`
	FileCount int `validate:"gte=0"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev         bool
	DefaultLang string `validate:"oneof=it en"`
}

// ClientTimeout returns the backend call timeout, zero for none.
func (a APIConfig) ClientTimeout() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string { return ":" + s.Port }

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		API: APIConfig{
			URL:     strings.TrimRight(getEnv("API_URL", "http://localhost:8000/api"), "/"),
			Timeout: getEnvInt("API_TIMEOUT", 0),
		},
		Log: LogConfig{
			Level:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
			File:      getEnv("LOG_FILE", ""),
			FileSize:  getEnvInt("LOG_FILE_SIZE", 10),
			FileCount: getEnvInt("LOG_FILE_COUNT", 5),
		},
		App: AppConfig{
			Dev:         getEnvBool("DEV", false),
			DefaultLang: strings.ToLower(getEnv("DEFAULT_LANG", "it")),
		},
	}
}

var validate = validator.New()

// Validate checks the loaded values. The error lists every offending field
// with the failed rule, e.g. "API.URL: url".
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		ns = strings.TrimPrefix(ns, "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: %s", ns, fe.Tag()))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
