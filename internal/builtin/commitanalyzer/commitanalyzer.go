// Package commitanalyzer implements the reference commit-analysis plugin:
// it walks the commit history since the last release tag, classifies each
// commit against the Conventional Commits grammar, and reduces the result
// to a Bump. It advertises pre_flight (repository sanity), get_last_release
// (tag discovery), and derive_next_version.
package commitanalyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

var headerPattern = regexp.MustCompile(`^(\w+)(\([^)]*\))?(!)?:\s*(.+)$`)

const tagPrefix = "v"

// Plugin is the commit analyzer's protocol.Plugin implementation.
type Plugin struct {
	host protocol.Host
}

// New constructs the commit analyzer, wired to host for Snapshot/Log calls.
func New(host protocol.Host) *Plugin {
	return &Plugin{host: host}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) logf(level protocol.LogLevel, message string) {
	if p.host != nil {
		p.host.Log(level, message, nil)
	}
}

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{
		protocol.PreFlight:         true,
		protocol.GetLastRelease:    true,
		protocol.DeriveNextVersion: true,
	}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	switch req.Step {
	case protocol.PreFlight:
		return p.preFlight(req)
	case protocol.GetLastRelease:
		return p.getLastRelease(req)
	case protocol.DeriveNextVersion:
		return p.deriveNextVersion(req)
	default:
		return protocol.Response{}, fmt.Errorf("commitanalyzer: unsupported step %q", req.Step)
	}
}

func (p *Plugin) openRepo(req protocol.Request) (*git.Repository, error) {
	root, _ := req.Inputs[bus.ProjectRoot].(string)
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, streamyerrors.NewPreconditionError(fmt.Sprintf("open git repository at %q", root), err)
	}
	return repo, nil
}

func (p *Plugin) preFlight(req protocol.Request) (protocol.Response, error) {
	if _, err := p.openRepo(req); err != nil {
		return protocol.Response{}, err
	}
	return protocol.Ok(nil), nil
}

func (p *Plugin) getLastRelease(req protocol.Request) (protocol.Response, error) {
	repo, err := p.openRepo(req)
	if err != nil {
		return protocol.Response{}, err
	}

	tagRefs, err := repo.Tags()
	if err != nil {
		return protocol.Response{}, streamyerrors.NewIoError("list tags", err)
	}

	var best semver.Version
	var bestRevision semver.RevisionId
	found := false

	if err := tagRefs.ForEach(func(ref *plumbing.Reference) error {
		name := strings.TrimPrefix(ref.Name().Short(), tagPrefix)
		v, parseErr := semver.Parse(name)
		if parseErr != nil {
			return nil // not a release tag, ignore
		}
		if !found || v.Compare(best) > 0 {
			hash := ref.Hash()
			if tagObj, tagErr := repo.TagObject(hash); tagErr == nil {
				hash = tagObj.Target // annotated tag: record the tagged commit
			}
			best = v
			bestRevision = semver.RevisionId(hash.String())
			found = true
		}
		return nil
	}); err != nil {
		return protocol.Response{}, streamyerrors.NewIoError("walk tags", err)
	}

	if !found {
		return protocol.Ok(map[bus.Slot]any{
			bus.LastRelease: semver.LastRelease{Version: semver.Zero, Found: false},
		}), nil
	}

	return protocol.Ok(map[bus.Slot]any{
		bus.LastRelease: semver.LastRelease{Version: best, Revision: bestRevision, Found: true},
	}), nil
}

func (p *Plugin) deriveNextVersion(req protocol.Request) (protocol.Response, error) {
	repo, err := p.openRepo(req)
	if err != nil {
		return protocol.Response{}, err
	}

	last, _ := req.Inputs[bus.LastRelease].(semver.LastRelease)

	var since *plumbing.Hash
	if last.Found {
		h := plumbing.NewHash(string(last.Revision))
		since = &h
	}

	head, err := repo.Head()
	if err != nil {
		return protocol.Response{}, streamyerrors.NewPreconditionError("resolve HEAD", err)
	}

	commitIter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return protocol.Response{}, streamyerrors.NewIoError("walk commit log", err)
	}

	bump := semver.BumpNone
	if err := commitIter.ForEach(func(c *object.Commit) error {
		if since != nil && c.Hash == *since {
			return storerStop
		}
		if b := classify(c.Message); b > bump {
			bump = b
		}
		return nil
	}); err != nil && err != storerStop {
		return protocol.Response{}, streamyerrors.NewIoError("classify commits", err)
	}

	writes := map[bus.Slot]any{bus.Bump: bump}
	if bump != semver.BumpNone {
		p.logf(protocol.LogInfo, fmt.Sprintf("derived %s bump from %s", bump, last.Version))
	} else {
		p.logf(protocol.LogInfo, "no commits imply a version bump")
	}
	return protocol.Ok(writes), nil
}

// storerStop is a sentinel error used to break out of go-git's ForEach
// iterator once the last release's commit is reached.
var storerStop = fmt.Errorf("commitanalyzer: stop iteration")

// classify reduces one commit message to the Bump its Conventional Commits
// header implies: "!" or a "BREAKING CHANGE" footer is Major, "feat" is
// Minor, "fix", "perf" and "refactor" are Patch, and any other type (or a
// message that is not a Conventional Commits header) is None.
func classify(message string) semver.Bump {
	lines := strings.SplitN(message, "\n", 2)
	header := strings.TrimSpace(lines[0])

	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return semver.BumpNone
	}
	commitType, _, breakingBang, _ := m[1], m[2], m[3], m[4]

	if breakingBang == "!" || strings.Contains(message, "BREAKING CHANGE") {
		return semver.BumpMajor
	}

	switch strings.ToLower(commitType) {
	case "feat":
		return semver.BumpMinor
	case "fix", "perf", "refactor":
		return semver.BumpPatch
	default:
		return semver.BumpNone
	}
}
