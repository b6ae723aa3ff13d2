// Package validation validates configuration and request structs using
// go-playground/validator struct tags and reports failures as AppErrors.
//
//	type Config struct {
//	    SampleRate int `mapstructure:"sample_rate" validate:"gt=0"`
//	}
//	if err := validation.Validate(cfg); err != nil { ... }
package validation
