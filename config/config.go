package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/plasmakit/imascompose/errors"
	"github.com/plasmakit/imascompose/logger"
)

// Config holds the settings that parameterize mapper registration and the
// caller-side fetch loop.
type Config struct {
	// Device is the machine identifier the mappings target.
	Device string `yaml:"device" mapstructure:"device" validate:"required,oneof=d3d"`
	// EFITTree selects the equilibrium reconstruction tree.
	EFITTree string `yaml:"efit_tree" mapstructure:"efit_tree" validate:"required"`
	// ProfilesTree selects the fitted-profiles tree for core profiles.
	ProfilesTree string `yaml:"profiles_tree" mapstructure:"profiles_tree" validate:"required"`
	// FastECE selects the high-frequency ECE sampling nodes.
	FastECE bool `yaml:"fast_ece" mapstructure:"fast_ece"`

	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Logging  logger.Config  `yaml:"logging" mapstructure:"logging"`
}

// ResolverConfig bounds the caller-side resolve/fetch loop. The engine itself
// is unbounded; termination policy belongs to the caller layer.
type ResolverConfig struct {
	// MaxPasses caps the resolve/fetch iterations per session.
	MaxPasses int `yaml:"max_passes" mapstructure:"max_passes" validate:"min=1,max=100"`
	// FetchConcurrency limits concurrent fetches per pass (0 = unlimited).
	FetchConcurrency int `yaml:"fetch_concurrency" mapstructure:"fetch_concurrency" validate:"min=0"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Device == "" {
		c.Device = "d3d"
	}
	if c.EFITTree == "" {
		c.EFITTree = "EFIT01"
	}
	if c.ProfilesTree == "" {
		c.ProfilesTree = "ZIPFIT01"
	}
	if c.Resolver.MaxPasses == 0 {
		c.Resolver.MaxPasses = 10
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the configuration via struct tags plus the logging
// section's own rules.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperrors.InvalidConfig(err.Error())
		}
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s %s", toSnakeCase(e.Field()), formatValidationError(e)))
		}
		return apperrors.InvalidConfig(strings.Join(messages, "; "))
	}
	if err := c.Logging.Validate(); err != nil {
		return apperrors.InvalidConfig(err.Error())
	}
	return nil
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return toSnakeCase(fld.Name)
			}
			return name
		})
	})
	return validate
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
