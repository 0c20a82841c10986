package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks startup configuration. Missing backend credentials are a
// misconfiguration, not something to discover at request time.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Backend.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.baseURL",
			Message: "analysis backend base URL is required (or set API_BASE_URL)",
		})
	} else if _, err := url.Parse(c.Backend.BaseURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "backend.baseURL",
			Message: "invalid base URL",
		})
	}

	if c.Backend.APIKey == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.apiKey",
			Message: "analysis backend API key is required (or set API_KEY)",
		})
	}

	if c.Backend.Mode != "rest" && c.Backend.Mode != "agent" {
		errs = append(errs, ValidationError{
			Field:   "backend.mode",
			Message: fmt.Sprintf("unknown mode %q (allowed: rest, agent)", c.Backend.Mode),
		})
	}

	if c.Backend.TimeoutMS <= 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeoutMS",
			Message: "timeout must be positive",
		})
	}

	if len(c.Auth.Keys) == 0 {
		errs = append(errs, ValidationError{
			Field:   "auth.keys",
			Message: "at least one client API key is required",
		})
	}

	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, ValidationError{
			Field:   "database.driver",
			Message: fmt.Sprintf("unknown driver %q (allowed: mysql, postgres)", c.Database.Driver),
		})
	}

	if c.Minio.Enabled {
		if c.Minio.Endpoint == "" || c.Minio.BucketName == "" {
			errs = append(errs, ValidationError{
				Field:   "minio",
				Message: "endpoint and bucketName are required when minio is enabled",
			})
		}
	}

	if c.Upload.MaxFileBytes < 1 {
		errs = append(errs, ValidationError{
			Field:   "upload.maxFileBytes",
			Message: "maxFileBytes must be positive",
		})
	}

	return errs
}
