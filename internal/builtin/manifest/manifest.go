// Package manifest implements the reference prepare-step plugin: it rewrites
// the version field of one or more package manifests (package.json,
// Cargo.toml, a bare YAML manifest, or any combination) to next_version and
// records the touched paths on bus.FilesChanged. In dry-run mode every write
// goes through the Host's Snapshot first so the manifest is restored on
// exit; in write mode no snapshot is taken.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Format names the manifest's encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Entry is one manifest this plugin instance is configured to update.
type Entry struct {
	Path   string `mapstructure:"path"`
	Format Format `mapstructure:"format"`
}

// Plugin is the manifest editor's protocol.Plugin implementation.
type Plugin struct {
	host protocol.Host
}

// New constructs the manifest editor.
func New(host protocol.Host) *Plugin {
	return &Plugin{host: host}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{protocol.Prepare: true}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if req.Step != protocol.Prepare {
		return protocol.Response{}, fmt.Errorf("manifest: unsupported step %q", req.Step)
	}

	next, ok := req.Inputs[bus.NextVersion].(semver.Version)
	if !ok {
		return protocol.Response{}, streamyerrors.NewLogicError("prepare requires next_version to be set", nil)
	}

	entries, err := entriesFromCfg(req.Cfg)
	if err != nil {
		return protocol.Response{}, err
	}

	var changed []any
	for _, entry := range entries {
		if req.DryRun {
			if err := p.host.Snapshot(entry.Path); err != nil {
				return protocol.Response{}, streamyerrors.NewIoError(fmt.Sprintf("snapshot %s", entry.Path), err)
			}
		}
		if err := rewriteVersion(entry, next); err != nil {
			return protocol.Response{}, err
		}
		changed = append(changed, entry.Path)
	}

	return protocol.Ok(map[bus.Slot]any{
		bus.FilesChanged: changed,
	}), nil
}

func entriesFromCfg(cfg map[string]any) ([]Entry, error) {
	raw, ok := cfg["manifests"].([]any)
	if !ok || len(raw) == 0 {
		return nil, streamyerrors.NewConfigError("manifest plugin requires a non-empty manifests list", nil)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, streamyerrors.NewConfigError("each manifests entry must be a mapping of path and format", nil)
		}
		path, _ := m["path"].(string)
		format, _ := m["format"].(string)
		if path == "" {
			return nil, streamyerrors.NewConfigError("manifests entry missing path", nil)
		}
		if format == "" {
			format = string(FormatJSON)
		}
		entries = append(entries, Entry{Path: path, Format: Format(format)})
	}
	return entries, nil
}

func rewriteVersion(entry Entry, next semver.Version) error {
	switch entry.Format {
	case FormatJSON:
		return rewriteJSON(entry.Path, next)
	case FormatTOML:
		return rewriteTOML(entry.Path, next)
	case FormatYAML:
		return rewriteYAML(entry.Path, next)
	default:
		return streamyerrors.NewConfigError(fmt.Sprintf("manifest %q: unrecognized format %q", entry.Path, entry.Format), nil)
	}
}

func rewriteJSON(path string, next semver.Version) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return streamyerrors.NewIoError(fmt.Sprintf("read manifest %s", path), err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return streamyerrors.NewConfigError(fmt.Sprintf("parse manifest %s as JSON", path), err)
	}
	doc["version"] = next.String()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return streamyerrors.NewIoError(fmt.Sprintf("encode manifest %s", path), err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func rewriteTOML(path string, next semver.Version) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return streamyerrors.NewIoError(fmt.Sprintf("read manifest %s", path), err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return streamyerrors.NewConfigError(fmt.Sprintf("parse manifest %s as TOML", path), err)
	}
	setNestedVersion(doc, next.String())

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return streamyerrors.NewIoError(fmt.Sprintf("encode manifest %s", path), err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func rewriteYAML(path string, next semver.Version) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return streamyerrors.NewIoError(fmt.Sprintf("read manifest %s", path), err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return streamyerrors.NewConfigError(fmt.Sprintf("parse manifest %s as YAML", path), err)
	}
	doc["version"] = next.String()

	out, err := yaml.Marshal(doc)
	if err != nil {
		return streamyerrors.NewIoError(fmt.Sprintf("encode manifest %s", path), err)
	}

	return os.WriteFile(path, out, 0o644)
}

// setNestedVersion sets the top-level "version" key, falling back to
// Cargo.toml's [package].version shape when present.
func setNestedVersion(doc map[string]any, version string) {
	if pkg, ok := doc["package"].(map[string]any); ok {
		pkg["version"] = version
		return
	}
	doc["version"] = version
}
