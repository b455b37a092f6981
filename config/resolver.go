package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resolver resolves individual configuration values with precedence:
// 1. Config file values
// 2. Environment variables
// 3. Default values
type Resolver struct {
	configData map[string]interface{}
}

// NewResolver creates a resolver, optionally backed by a YAML config file.
// A missing or malformed file is silently skipped; env vars and defaults
// still apply.
func NewResolver(configPath string) *Resolver {
	r := &Resolver{}

	if configPath != "" {
		if data, err := loadConfigFile(configPath); err == nil {
			r.configData = data
		}
	}

	return r
}

// GetString resolves a string value with precedence: file -> env -> default.
func (r *Resolver) GetString(configKey, envKey, defaultValue string) string {
	if value, exists := r.getNestedValue(configKey); exists {
		if str, ok := toString(value); ok {
			return str
		}
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// GetInt resolves an integer value with precedence: file -> env -> default.
func (r *Resolver) GetInt(configKey, envKey string, defaultValue int) int {
	if value, exists := r.getNestedValue(configKey); exists {
		if intVal, ok := toInt(value); ok {
			return intVal
		}
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		if parsed, err := strconv.Atoi(envValue); err == nil {
			return parsed
		}
	}

	return defaultValue
}

// GetBool resolves a boolean value with precedence: file -> env -> default.
func (r *Resolver) GetBool(configKey, envKey string, defaultValue bool) bool {
	if value, exists := r.getNestedValue(configKey); exists {
		if boolVal, ok := toBool(value); ok {
			return boolVal
		}
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		switch strings.ToLower(envValue) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}

	return defaultValue
}

// HasConfigFile returns true if a config file was successfully loaded.
func (r *Resolver) HasConfigFile() bool {
	return r.configData != nil
}

func (r *Resolver) getNestedValue(key string) (interface{}, bool) {
	if r.configData == nil {
		return nil, false
	}

	parts := strings.Split(key, ".")
	current := r.configData

	for i, part := range parts {
		if i == len(parts)-1 {
			if value, exists := current[part]; exists {
				return value, true
			}
			return nil, false
		}

		next, exists := current[part]
		if !exists {
			return nil, false
		}
		nextMap, ok := next.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = nextMap
	}

	return nil, false
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func toBool(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	}
	return false, false
}

func loadConfigFile(configPath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return config, nil
}
