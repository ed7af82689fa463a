package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

var validDrivers = map[string]bool{"pgx": true, "postgres": true, "mysql": true, "memory": true}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Destination validation
	errs = append(errs, validateDestination("RAW", c.Raw.Driver, c.Raw.URL)...)
	errs = append(errs, validateDestination("DW", c.Warehouse.Driver, c.Warehouse.URL)...)

	// Pool validation
	if c.Pool.MaxConns < c.Pool.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Pool.MaxConns, c.Pool.MinConns))
	}
	if c.Pool.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Pool.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Pool.BatchSize <= 0 {
		errs = append(errs, "DB_BATCH_SIZE must be positive")
	}
	if c.Pool.WriteTimeout <= 0 {
		errs = append(errs, "DB_WRITE_TIMEOUT must be positive")
	}

	// Pipeline validation
	if strings.TrimSpace(c.Pipeline.InputDir) == "" {
		errs = append(errs, "INPUT_DIR must not be empty")
	}
	if strings.TrimSpace(c.Pipeline.OutputDir) == "" {
		errs = append(errs, "OUTPUT_DIR must not be empty")
	}
	if c.Report.TopEmployees <= 0 {
		errs = append(errs, "REPORT_TOP_EMPLOYEES must be positive")
	}
	if c.Report.TopProducts <= 0 {
		errs = append(errs, "REPORT_TOP_PRODUCTS must be positive")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.ScheduleInterval < 0 {
		errs = append(errs, "SCHEDULE_INTERVAL must be non-negative")
	}
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "API_KEYS must be set when REQUIRE_API_KEY is true")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func validateDestination(prefix, driver, url string) []string {
	var errs []string
	if !validDrivers[strings.ToLower(driver)] {
		errs = append(errs, fmt.Sprintf("%s_DB_DRIVER (%q) must be one of: pgx, postgres, mysql, memory", prefix, driver))
		return errs
	}
	if strings.ToLower(driver) != "memory" && url == "" {
		errs = append(errs, fmt.Sprintf("%s_DATABASE_URL is required for driver %q", prefix, driver))
	}
	return errs
}

// String returns a safe string representation of the config for logging.
// Database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Pipeline: {InputDir: %q, OutputDir: %q, InferKeyColumns: %v, DateDayFirst: %v}, ",
		c.Pipeline.InputDir, c.Pipeline.OutputDir, c.Pipeline.InferKeyColumns, c.Pipeline.DateDayFirst))
	b.WriteString(fmt.Sprintf("Raw: {Driver: %q, URL: %s}, ", c.Raw.Driver, mask(c.Raw.URL)))
	b.WriteString(fmt.Sprintf("Warehouse: {Driver: %q, URL: %s}, ", c.Warehouse.Driver, mask(c.Warehouse.URL)))
	b.WriteString(fmt.Sprintf("Pool: {MaxConns: %d, MinConns: %d, BatchSize: %d}, ",
		c.Pool.MaxConns, c.Pool.MinConns, c.Pool.BatchSize))
	b.WriteString(fmt.Sprintf("Publish: {Bucket: %q, Prefix: %q}, ", c.Publish.Bucket, c.Publish.Prefix))
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d, ScheduleInterval: %s}, ",
		c.Server.Host, c.Server.Port, c.Server.ScheduleInterval))
	b.WriteString(fmt.Sprintf("Security: {TrustedProxies: %d, RequireAPIKey: %v, APIKeys: %d}, ",
		len(c.Security.TrustedProxies), c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(url string) string {
	if url == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
