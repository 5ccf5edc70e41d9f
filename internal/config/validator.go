package config

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/semantic-rs/semantic-rs/internal/protocol"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	pluginNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("plugin_name", func(fl validator.FieldLevel) bool {
			return pluginNamePattern.MatchString(fl.Field().String())
		})
		validateInst = v
	})
	return validateInst
}

// Validate performs the cross-field checks spec Sec.3's invariants demand:
// plugin names match the plugin_name pattern, every plugin named in steps is
// present in plugins and listed at most once per step, and singleton-only
// steps are never assigned shared. Duplicate plugin names and unknown
// locations are not checked here; they are rejected while decoding (yaml.v3
// refuses duplicate mapping keys, Location.UnmarshalYAML unknown kinds).
func Validate(doc *Document) error {
	if doc == nil {
		return streamyerrors.NewConfigError("configuration document is nil", nil)
	}

	v := validatorInstance()
	for name := range doc.Plugins {
		if err := v.Var(name, "plugin_name"); err != nil {
			return streamyerrors.NewConfigError(fmt.Sprintf("invalid plugin name %q", name), nil)
		}
	}

	for step, assignment := range doc.Steps {
		if err := validateAssignment(doc, step, assignment); err != nil {
			return err
		}
	}

	return nil
}

func validateAssignment(doc *Document, step protocol.Step, assignment StepAssignment) error {
	switch assignment.Mode {
	case ModeSingleton:
		if len(assignment.Names) != 1 {
			return streamyerrors.NewConfigError(fmt.Sprintf("step %q: singleton requires exactly one plugin", step), nil)
		}
		return requirePlugins(doc, step, assignment.Names)
	case ModeShared:
		if step.SingletonOnly() {
			return streamyerrors.NewConfigError(
				fmt.Sprintf("step %q is singleton-only and cannot use shared assignment", step), nil)
		}
		if len(assignment.Names) == 0 {
			return streamyerrors.NewConfigError(fmt.Sprintf("step %q: shared requires at least one plugin", step), nil)
		}
		return requirePlugins(doc, step, assignment.Names)
	case ModeDiscover:
		return nil
	default:
		return streamyerrors.NewConfigError(fmt.Sprintf("step %q: unknown assignment mode %q", step, assignment.Mode), nil)
	}
}

func requirePlugins(doc *Document, step protocol.Step, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return streamyerrors.NewConfigError(fmt.Sprintf("step %q: plugin %q listed more than once", step, name), nil)
		}
		seen[name] = true
		if _, ok := doc.Plugins[name]; !ok {
			return streamyerrors.NewConfigError(fmt.Sprintf("step %q: plugin %q is not declared in plugins", step, name), nil)
		}
	}
	return nil
}
