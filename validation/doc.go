// Package validation checks configuration and inbound messages.
//
// Struct validation uses go-playground/validator tags and reports field
// names by their mapstructure key, so errors read like the config file:
//
//	type Config struct {
//	    APIKey string `mapstructure:"api_key" validate:"required"`
//	}
//	err := validation.Validate(cfg) // "api_key: is required"
//
// The fluent Validator collects ad-hoc checks the same way:
//
//	err := validation.New().
//	    Required("platform", msg.Origin.Platform).
//	    Custom(msg.HasAudio(), "audio", "url or file is required").
//	    Err()
package validation
