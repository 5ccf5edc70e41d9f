// Package registrypublish implements the reference publish-step plugin for
// generic package registries (npm-, PyPI-, or crates.io-shaped HTTP APIs):
// it PUTs the artifact at cfg artifact_path to a configured registry endpoint.
package registrypublish

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Plugin is the registry publisher's protocol.Plugin implementation.
type Plugin struct {
	host   protocol.Host
	client *http.Client
}

// New constructs the registry publisher with a pooled http.Client.
func New(host protocol.Host) *Plugin {
	return &Plugin{host: host, client: &http.Client{Timeout: 60 * time.Second}}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{protocol.Publish: true}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if req.Step != protocol.Publish {
		return protocol.Response{}, fmt.Errorf("registrypublish: unsupported step %q", req.Step)
	}

	next, ok := req.Inputs[bus.NextVersion].(semver.Version)
	if !ok {
		return protocol.Response{}, streamyerrors.NewLogicError("publish requires next_version to be set", nil)
	}

	endpoint, _ := req.Cfg["endpoint"].(string)
	if endpoint == "" {
		return protocol.Response{}, streamyerrors.NewConfigError("registrypublish plugin requires an endpoint", nil)
	}
	token, _ := req.Cfg["token"].(string)
	artifactPath, _ := req.Cfg["artifact_path"].(string)
	if artifactPath == "" {
		return protocol.Response{}, streamyerrors.NewConfigError("registrypublish plugin requires artifact_path", nil)
	}

	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return protocol.Response{}, streamyerrors.NewIoError(fmt.Sprintf("read artifact %s", artifactPath), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return protocol.Response{}, streamyerrors.NewNetworkError("build publish request", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return protocol.Response{}, streamyerrors.NewNetworkError(fmt.Sprintf("publish to %s", endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return protocol.Response{}, streamyerrors.NewNetworkError(
			fmt.Sprintf("registry endpoint %s returned status %d", endpoint, resp.StatusCode), nil)
	}

	target := fmt.Sprintf("registry:%s@%s", endpoint, next.String())
	if p.host != nil {
		p.host.Log(protocol.LogInfo, fmt.Sprintf("published artifact to %s", endpoint), nil)
	}

	return protocol.Ok(map[bus.Slot]any{
		bus.PublishedTargets: target,
	}), nil
}
