package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/semantic-rs/semantic-rs/internal/protocol"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// rawDocument mirrors the three top-level tables before step names have
// been checked against the fixed enumeration.
type rawDocument struct {
	Plugins map[string]Location       `yaml:"plugins"`
	Steps   map[string]StepAssignment `yaml:"steps"`
	Cfg     map[string]map[string]any `yaml:"cfg"`
}

// Load reads, parses, and validates a configuration document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, streamyerrors.NewConfigError(fmt.Sprintf("read config %s", path), err)
	}

	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, streamyerrors.NewConfigError(
			fmt.Sprintf("parse config %s:%d", path, extractLine(err)), err)
	}

	doc := &Document{
		Plugins: make(map[string]PluginSpec, len(raw.Plugins)),
		Steps:   make(map[protocol.Step]StepAssignment, len(raw.Steps)),
		Cfg:     raw.Cfg,
	}
	if doc.Cfg == nil {
		doc.Cfg = map[string]map[string]any{}
	}

	// yaml.v3 map decoding does not preserve declaration order; re-scan the
	// raw document node to recover it for deterministic Resolver iteration.
	doc.pluginOrder = pluginDeclarationOrder(data)

	for name, loc := range raw.Plugins {
		doc.Plugins[name] = PluginSpec{Location: loc}
	}

	for name, assignment := range raw.Steps {
		step := protocol.Step(name)
		if !step.Valid() {
			return nil, streamyerrors.NewConfigError(fmt.Sprintf("unknown step %q", name), nil)
		}
		doc.Steps[step] = assignment
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}

// pluginDeclarationOrder walks the raw YAML mapping node for "plugins" to
// recover source order, since Go maps (and yaml.v3's decode into a Go map)
// do not preserve it.
func pluginDeclarationOrder(data []byte) []string {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i]
		if key.Value != "plugins" {
			continue
		}
		pluginsNode := root.Content[i+1]
		if pluginsNode.Kind != yaml.MappingNode {
			return nil
		}
		names := make([]string, 0, len(pluginsNode.Content)/2)
		for j := 0; j < len(pluginsNode.Content); j += 2 {
			names = append(names, pluginsNode.Content[j].Value)
		}
		return names
	}
	return nil
}
