package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LocationKind enumerates how a plugin provider is reached.
type LocationKind string

const (
	// LocationBuiltin dispenses an in-process reference plugin; see
	// internal/builtin and cmd/semrel/plugins_import.go.
	LocationBuiltin LocationKind = "builtin"
	// LocationExec spawns an external plugin process speaking the
	// go-plugin/net-rpc protocol over Command.
	LocationExec LocationKind = "exec"
)

// Location describes where to find a plugin provider. It accepts either
// the literal string "builtin" or a table such as
// { location: "exec", command: ["./plugins/gitscm"] }.
type Location struct {
	Kind    LocationKind
	Command []string
}

// UnmarshalYAML accepts both the bare scalar "builtin" and a mapping form.
func (l *Location) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s != string(LocationBuiltin) {
			return fmt.Errorf("unrecognized plugin location %q", s)
		}
		l.Kind = LocationBuiltin
		return nil
	}

	var raw struct {
		Location string   `yaml:"location"`
		Command  []string `yaml:"command"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	switch LocationKind(raw.Location) {
	case LocationBuiltin:
		l.Kind = LocationBuiltin
	case LocationExec:
		if len(raw.Command) == 0 {
			return fmt.Errorf("exec location requires a non-empty command")
		}
		l.Kind = LocationExec
		l.Command = raw.Command
	default:
		return fmt.Errorf("unrecognized plugin location %q", raw.Location)
	}
	return nil
}
