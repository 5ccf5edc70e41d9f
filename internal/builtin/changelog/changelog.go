// Package changelog implements the reference release-notes generator:
// it renders a text/template document from the derived version and the
// commit set since the last release, and writes it to bus.ReleaseNotes.
// Breaking changes, features, and fixes are grouped automatically from
// the same Conventional Commits range commitanalyzer classifies; cfg
// lists, if given, are appended on top of the derived entries rather
// than replacing them.
package changelog

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

var headerPattern = regexp.MustCompile(`^(\w+)(\([^)]*\))?(!)?:\s*(.+)$`)

// commitStop is a sentinel error used to break out of go-git's ForEach
// iterator once the last release's commit is reached, mirroring
// commitanalyzer's own history walk.
var commitStop = fmt.Errorf("changelog: stop iteration")

const defaultTemplate = `## {{.Version}} ({{.Date}})

{{- if .BreakingChanges}}

### Breaking Changes
{{range .BreakingChanges}}
- {{.}}
{{- end}}
{{- end}}

{{- if .Features}}

### Features
{{range .Features}}
- {{.}}
{{- end}}
{{- end}}

{{- if .Fixes}}

### Fixes
{{range .Fixes}}
- {{.}}
{{- end}}
{{- end}}
`

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Plugin is the changelog generator's protocol.Plugin implementation.
type Plugin struct {
	host  protocol.Host
	clock Clock
}

// New constructs the changelog generator.
func New(host protocol.Host) *Plugin {
	return &Plugin{host: host, clock: time.Now}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{protocol.GenerateNotes: true}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if req.Step != protocol.GenerateNotes {
		return protocol.Response{}, fmt.Errorf("changelog: unsupported step %q", req.Step)
	}

	next, ok := req.Inputs[bus.NextVersion].(semver.Version)
	if !ok {
		return protocol.Response{}, streamyerrors.NewLogicError("generate_notes requires next_version to be set", nil)
	}

	tmplSource := defaultTemplate
	if custom, ok := req.Cfg["template"].(string); ok && custom != "" {
		tmplSource = custom
	}

	tmpl, err := template.New("notes").Parse(tmplSource)
	if err != nil {
		return protocol.Response{}, streamyerrors.NewConfigError("parse changelog template", err)
	}

	data := notesData{
		Version: next.String(),
		Date:    p.clock().UTC().Format("2006-01-02"),
	}

	root, _ := req.Inputs[bus.ProjectRoot].(string)
	last, _ := req.Inputs[bus.LastRelease].(semver.LastRelease)
	if root != "" {
		breaking, features, fixes, err := deriveFromHistory(root, last)
		if err != nil {
			return protocol.Response{}, err
		}
		data.BreakingChanges = append(data.BreakingChanges, breaking...)
		data.Features = append(data.Features, features...)
		data.Fixes = append(data.Fixes, fixes...)
	}

	data.BreakingChanges = append(data.BreakingChanges, stringSliceCfg(req.Cfg, "breaking_changes")...)
	data.Features = append(data.Features, stringSliceCfg(req.Cfg, "features")...)
	data.Fixes = append(data.Fixes, stringSliceCfg(req.Cfg, "fixes")...)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return protocol.Response{}, streamyerrors.NewLogicError("render changelog template", err)
	}

	if p.host != nil {
		p.host.Log(protocol.LogInfo, fmt.Sprintf("generated release notes for %s", next), nil)
	}

	return protocol.Ok(map[bus.Slot]any{
		bus.ReleaseNotes: buf.String(),
	}), nil
}

// deriveFromHistory walks the commit range since last (or the whole
// history if last was not found) and groups each Conventional Commits
// header into breaking changes, features, and fixes, in commit order.
func deriveFromHistory(root string, last semver.LastRelease) (breaking, features, fixes []string, err error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, nil, nil, streamyerrors.NewPreconditionError(fmt.Sprintf("open git repository at %q", root), err)
	}

	var since *plumbing.Hash
	if last.Found {
		h := plumbing.NewHash(string(last.Revision))
		since = &h
	}

	head, err := repo.Head()
	if err != nil {
		return nil, nil, nil, streamyerrors.NewPreconditionError("resolve HEAD", err)
	}

	commitIter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, nil, nil, streamyerrors.NewIoError("walk commit log", err)
	}

	if walkErr := commitIter.ForEach(func(c *object.Commit) error {
		if since != nil && c.Hash == *since {
			return commitStop
		}
		switch category, desc := categorize(c.Message); category {
		case "breaking":
			breaking = append(breaking, desc)
		case "feature":
			features = append(features, desc)
		case "fix":
			fixes = append(fixes, desc)
		}
		return nil
	}); walkErr != nil && walkErr != commitStop {
		return nil, nil, nil, streamyerrors.NewIoError("classify commits", walkErr)
	}

	return breaking, features, fixes, nil
}

// categorize reduces one commit message to the changelog section it
// belongs in and the one-line description to render, per the
// Conventional Commits grammar: "!" or a "BREAKING CHANGE" footer is
// breaking, "feat" is a feature, "fix"/"perf" is a fix, anything else
// recognized is omitted from the changelog.
func categorize(message string) (category, description string) {
	lines := strings.SplitN(message, "\n", 2)
	header := strings.TrimSpace(lines[0])

	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", ""
	}
	commitType, _, breakingBang, desc := m[1], m[2], m[3], m[4]

	if breakingBang == "!" || strings.Contains(message, "BREAKING CHANGE") {
		return "breaking", desc
	}
	switch strings.ToLower(commitType) {
	case "feat":
		return "feature", desc
	case "fix", "perf":
		return "fix", desc
	default:
		return "", ""
	}
}

type notesData struct {
	Version         string
	Date            string
	BreakingChanges []string
	Features        []string
	Fixes           []string
}

func stringSliceCfg(cfg map[string]any, key string) []string {
	raw, ok := cfg[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
