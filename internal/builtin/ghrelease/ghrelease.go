// Package ghrelease implements the reference publish-step plugin for
// GitHub Releases: it creates a release object against a tag via the GitHub
// REST API and attaches the rendered release notes.
package ghrelease

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

const defaultAPIBase = "https://api.github.com"

// Plugin is the GitHub Releases publisher's protocol.Plugin implementation.
type Plugin struct {
	host   protocol.Host
	client *http.Client
}

// New constructs the GitHub Releases publisher with a pooled http.Client.
func New(host protocol.Host) *Plugin {
	return &Plugin{
		host: host,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{protocol.Publish: true}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if req.Step != protocol.Publish {
		return protocol.Response{}, fmt.Errorf("ghrelease: unsupported step %q", req.Step)
	}

	next, ok := req.Inputs[bus.NextVersion].(semver.Version)
	if !ok {
		return protocol.Response{}, streamyerrors.NewLogicError("publish requires next_version to be set", nil)
	}
	tag, _ := req.Inputs[bus.NewTag].(string)
	if tag == "" {
		tag = "v" + next.String()
	}
	// release_notes is an append slot: the bus hands over every
	// generate_notes contribution in plugin order.
	var notes string
	switch v := req.Inputs[bus.ReleaseNotes].(type) {
	case string:
		notes = v
	case []any:
		parts := make([]string, 0, len(v))
		for _, part := range v {
			if s, ok := part.(string); ok {
				parts = append(parts, s)
			}
		}
		notes = strings.Join(parts, "\n\n")
	}

	owner, _ := req.Cfg["owner"].(string)
	repo, _ := req.Cfg["repo"].(string)
	token, _ := req.Cfg["token"].(string)
	if owner == "" || repo == "" {
		return protocol.Response{}, streamyerrors.NewConfigError("ghrelease plugin requires owner and repo", nil)
	}
	if token == "" {
		return protocol.Response{}, streamyerrors.NewConfigError("ghrelease plugin requires a token", nil)
	}

	base := defaultAPIBase
	if custom, ok := req.Cfg["api_base"].(string); ok && custom != "" {
		base = custom
	}

	payload, err := json.Marshal(map[string]any{
		"tag_name": tag,
		"name":     next.String(),
		"body":     notes,
		"draft":    false,
	})
	if err != nil {
		return protocol.Response{}, streamyerrors.NewLogicError("encode release payload", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases", base, owner, repo)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return protocol.Response{}, streamyerrors.NewNetworkError("build release request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/vnd.github+json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return protocol.Response{}, streamyerrors.NewNetworkError(fmt.Sprintf("create release for %s/%s", owner, repo), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return protocol.Response{}, streamyerrors.NewNetworkError(
			fmt.Sprintf("github release API returned status %d for %s/%s", resp.StatusCode, owner, repo), nil)
	}

	target := fmt.Sprintf("github:%s/%s@%s", owner, repo, tag)
	if p.host != nil {
		p.host.Log(protocol.LogInfo, fmt.Sprintf("published release %s", target), nil)
	}

	return protocol.Ok(map[bus.Slot]any{
		bus.PublishedTargets: target,
	}), nil
}
