// Package config provides configuration management for the Pitchside pipeline.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// knownProviders lists the feed providers the client understands.
var knownProviders = []string{"apifootball", "sportmonks", "goalserve"}

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("provider", validateProvider)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateProvider validates the active feed provider selection
func validateProvider(fl validator.FieldLevel) bool {
	provider := fl.Field().String()
	for _, known := range knownProviders {
		if provider == known {
			return true
		}
	}
	return false
}

// validateCrossField performs validations spanning multiple fields
func validateCrossField(cfg *Config) error {
	// The staleness sweep is redundancy for the immediate odds dispatch; a
	// threshold beyond the lead window would never select anything.
	if cfg.Ingestion.StalenessThreshold() >= cfg.Ingestion.LeadWindow() {
		return fmt.Errorf("ingestion.staleness_threshold_minutes must be shorter than the lead window")
	}

	if cfg.RateLimit.RequestsPerWindow < cfg.Ingestion.FetchWorkers {
		return fmt.Errorf("rate_limit.requests_per_window (%d) must be at least the fetch worker count (%d)",
			cfg.RateLimit.RequestsPerWindow, cfg.Ingestion.FetchWorkers)
	}

	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
