package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AssignmentMode is one of the three ways a step can be assigned to
// plugins.
type AssignmentMode string

const (
	ModeSingleton AssignmentMode = "singleton"
	ModeShared    AssignmentMode = "shared"
	ModeDiscover  AssignmentMode = "discover"
)

// StepAssignment is one entry of the steps table: singleton(name),
// shared([name, ...]), or the literal "discover".
type StepAssignment struct {
	Mode  AssignmentMode
	Names []string
}

// Singleton builds a singleton assignment.
func Singleton(name string) StepAssignment {
	return StepAssignment{Mode: ModeSingleton, Names: []string{name}}
}

// Shared builds a shared assignment.
func Shared(names []string) StepAssignment {
	return StepAssignment{Mode: ModeShared, Names: names}
}

// Discover builds a discover assignment.
func Discover() StepAssignment {
	return StepAssignment{Mode: ModeDiscover}
}

// UnmarshalYAML accepts three shapes:
//   - the scalar "discover"
//   - a scalar plugin name (singleton)
//   - a sequence of plugin names (shared)
func (a *StepAssignment) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == string(ModeDiscover) {
			*a = Discover()
			return nil
		}
		*a = Singleton(s)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*a = Shared(names)
		return nil
	default:
		return fmt.Errorf("invalid step assignment: expected scalar or sequence, got %v", value.Kind)
	}
}
