package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Sentinel errors. Every error returned by the registry wraps one of these,
// so callers match with errors.Is.
var (
	ErrDuplicateID     = errors.New("plugin: duplicate id")
	ErrNotFound        = errors.New("plugin: not found")
	ErrActivation      = errors.New("plugin: activation failed")
	ErrNotConfigurable = errors.New("plugin: not configurable")
	ErrInvalidConfig   = errors.New("plugin: invalid configuration")
	ErrInvalidMetadata = errors.New("plugin: invalid metadata")
	ErrIncompatible    = errors.New("plugin: incompatible app version")
)

// Code is the machine-readable identifier attached to registry errors.
type Code string

const (
	CodeRegisterDuplicateID     Code = "plugin.register.duplicate_id"
	CodeRegisterInvalidMetadata Code = "plugin.register.invalid_metadata"
	CodeRegisterIncompatible    Code = "plugin.register.incompatible"
	CodeNotFound                Code = "plugin.not_found"
	CodeLifecycleInitialize     Code = "plugin.lifecycle.initialize.failure"
	CodeLifecycleCleanup        Code = "plugin.lifecycle.cleanup.failure"
	CodeConfigureUnsupported    Code = "plugin.configure.unsupported"
	CodeConfigureInvalid        Code = "plugin.configure.invalid_value"
	CodeConfigureFailure        Code = "plugin.configure.failure"
)

// CodeOf returns the code attached to err, or "" when err carries none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	case nil:
		return ""
	default:
		return Code(fmt.Sprintf("%v", code))
	}
}

// ConfigError lists the validation errors produced for a rejected
// configuration. It unwraps to ErrInvalidConfig.
type ConfigError struct {
	ID     string
	Errors []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("plugin: invalid configuration for %q: %s", e.ID, strings.Join(e.Errors, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func notFound(id string) error {
	return oops.Code(CodeNotFound).With("plugin", id).Wrapf(ErrNotFound, "plugin %q", id)
}

func lifecycleError(code Code, id, phase string, cause error) error {
	return oops.Code(code).
		With("plugin", id, "phase", phase).
		Wrapf(fmt.Errorf("%w: %w", ErrActivation, cause), "%s %q", phase, id)
}
