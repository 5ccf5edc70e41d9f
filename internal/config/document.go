// Package config decodes and validates the release engine's configuration
// document: the plugins table (name -> location), the steps table
// (step-name -> assignment descriptor), and the cfg tree (a reserved
// subtree per plugin name). It follows the teacher's YAML + validator
// layering (gopkg.in/yaml.v3 decoding, a go-playground/validator/v10
// custom plugin_name rule, a sync.Once-guarded shared validator instance).
package config

import (
	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

// Document is the full parsed configuration.
type Document struct {
	Plugins map[string]PluginSpec
	Steps   map[protocol.Step]StepAssignment
	Cfg     map[string]map[string]any

	// pluginOrder preserves declaration order for deterministic Resolver
	// iteration and for Discover's "registration order" tie-break.
	pluginOrder []string
}

// PluginOrder returns plugin names in the order they were declared in the
// plugins table.
func (d *Document) PluginOrder() []string {
	return append([]string(nil), d.pluginOrder...)
}

// PluginSpec is one entry of the plugins table.
type PluginSpec struct {
	Location Location
}

// CfgFor returns the cfg subtree reserved for pluginName, or an empty map
// if none was declared. The returned map must be treated as read-only by
// callers; the Resolver hands it to pluginhandle.Start once per plugin.
func (d *Document) CfgFor(pluginName string) map[string]any {
	if sub, ok := d.Cfg[pluginName]; ok {
		return sub
	}
	return map[string]any{}
}
