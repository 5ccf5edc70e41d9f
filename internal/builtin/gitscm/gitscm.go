// Package gitscm implements the reference source-control plugin: it can
// serve as the get_last_release tag reader (an alternative to
// commitanalyzer's built-in discovery, useful when a repository tags
// releases without relying on the commit grammar) and performs the commit
// step proper — staging changed files, committing, and tagging the new
// version. commit is singleton-only, so only one plugin may be assigned it.
package gitscm

import (
	"context"
	"fmt"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

const tagPrefix = "v"

// Plugin is the source-control plugin's protocol.Plugin implementation.
type Plugin struct {
	host protocol.Host
}

// New constructs the source-control plugin.
func New(host protocol.Host) *Plugin {
	return &Plugin{host: host}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{
		protocol.GetLastRelease: true,
		protocol.Commit:         true,
	}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	switch req.Step {
	case protocol.GetLastRelease:
		return p.getLastRelease(req)
	case protocol.Commit:
		return p.commit(req)
	default:
		return protocol.Response{}, fmt.Errorf("gitscm: unsupported step %q", req.Step)
	}
}

func (p *Plugin) openRepo(req protocol.Request) (*git.Repository, string, error) {
	root, _ := req.Inputs[bus.ProjectRoot].(string)
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, "", streamyerrors.NewPreconditionError(fmt.Sprintf("open git repository at %q", root), err)
	}
	return repo, root, nil
}

func (p *Plugin) getLastRelease(req protocol.Request) (protocol.Response, error) {
	repo, _, err := p.openRepo(req)
	if err != nil {
		return protocol.Response{}, err
	}

	tagRefs, err := repo.Tags()
	if err != nil {
		return protocol.Response{}, streamyerrors.NewIoError("list tags", err)
	}

	type found struct {
		version  semver.Version
		revision plumbing.Hash
	}
	var best *found
	if err := tagRefs.ForEach(func(ref *plumbing.Reference) error {
		v, parseErr := semver.Parse(strings.TrimPrefix(ref.Name().Short(), tagPrefix))
		if parseErr != nil {
			return nil
		}
		if best == nil || v.Compare(best.version) > 0 {
			hash := ref.Hash()
			if tagObj, tagErr := repo.TagObject(hash); tagErr == nil {
				hash = tagObj.Target // annotated tag: record the tagged commit
			}
			best = &found{version: v, revision: hash}
		}
		return nil
	}); err != nil {
		return protocol.Response{}, streamyerrors.NewIoError("walk tags", err)
	}

	if best == nil {
		return protocol.Ok(map[bus.Slot]any{
			bus.LastRelease: semver.LastRelease{Version: semver.Zero, Found: false},
		}), nil
	}
	return protocol.Ok(map[bus.Slot]any{
		bus.LastRelease: semver.LastRelease{Version: best.version, Revision: semver.RevisionId(best.revision.String()), Found: true},
	}), nil
}

func (p *Plugin) commit(req protocol.Request) (protocol.Response, error) {
	repo, root, err := p.openRepo(req)
	if err != nil {
		return protocol.Response{}, err
	}

	next, ok := req.Inputs[bus.NextVersion].(semver.Version)
	if !ok {
		return protocol.Response{}, streamyerrors.NewLogicError("commit requires next_version to be set", nil)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return protocol.Response{}, streamyerrors.NewIoError("open worktree", err)
	}

	// files_changed is an append slot: each prepare plugin contributes either
	// a single path or its own list of paths.
	changed, _ := req.Inputs[bus.FilesChanged].([]any)
	var paths []string
	for _, entry := range changed {
		switch v := entry.(type) {
		case string:
			paths = append(paths, v)
		case []any:
			for _, p := range v {
				if s, ok := p.(string); ok {
					paths = append(paths, s)
				}
			}
		}
	}
	for _, path := range paths {
		if _, err := wt.Add(path); err != nil {
			return protocol.Response{}, streamyerrors.NewIoError(fmt.Sprintf("stage %s", path), err)
		}
	}

	authorName, _ := req.Cfg["author_name"].(string)
	authorEmail, _ := req.Cfg["author_email"].(string)
	if authorName == "" {
		authorName = "semantic-rs"
	}
	if authorEmail == "" {
		authorEmail = "semantic-rs@users.noreply.github.com"
	}

	message := fmt.Sprintf("Bump version to %s", next)
	if custom, ok := req.Cfg["commit_message"].(string); ok && custom != "" {
		message = strings.ReplaceAll(custom, "{{version}}", next.String())
	}

	sig := &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return protocol.Response{}, streamyerrors.NewIoError("create release commit", err)
	}

	tagName := tagPrefix + next.String()
	if _, err := repo.CreateTag(tagName, hash, &git.CreateTagOptions{
		Tagger:  sig,
		Message: message,
	}); err != nil {
		return protocol.Response{}, streamyerrors.NewIoError(fmt.Sprintf("create tag %s", tagName), err)
	}

	if p.host != nil {
		p.host.Log(protocol.LogInfo, fmt.Sprintf("committed release %s in %s as %s, tagged %s", next, root, hash, tagName), nil)
	}

	return protocol.Ok(map[bus.Slot]any{
		bus.NewTag: tagName,
	}), nil
}
