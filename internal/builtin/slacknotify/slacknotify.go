// Package slacknotify implements the reference notify-step plugin: it posts
// a release summary to a Slack incoming webhook.
package slacknotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Plugin is the Slack notifier's protocol.Plugin implementation.
type Plugin struct {
	host   protocol.Host
	client *http.Client
}

// New constructs the Slack notifier with a pooled http.Client.
func New(host protocol.Host) *Plugin {
	return &Plugin{host: host, client: &http.Client{Timeout: 10 * time.Second}}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{protocol.Notify: true}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if req.Step != protocol.Notify {
		return protocol.Response{}, fmt.Errorf("slacknotify: unsupported step %q", req.Step)
	}

	webhook, _ := req.Cfg["webhook_url"].(string)
	if webhook == "" {
		return protocol.Response{}, streamyerrors.NewConfigError("slacknotify plugin requires webhook_url", nil)
	}

	next, _ := req.Inputs[bus.NextVersion].(semver.Version)
	targets, _ := req.Inputs[bus.PublishedTargets].([]any)

	text := fmt.Sprintf("Released %s", next)
	if len(targets) > 0 {
		text += fmt.Sprintf(" (published to %v)", targets)
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return protocol.Response{}, streamyerrors.NewLogicError("encode slack payload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(payload))
	if err != nil {
		return protocol.Response{}, streamyerrors.NewNetworkError("build slack request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return protocol.Response{}, streamyerrors.NewNetworkError("post slack notification", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return protocol.Response{}, streamyerrors.NewNetworkError(
			fmt.Sprintf("slack webhook returned status %d", resp.StatusCode), nil)
	}

	return protocol.Ok(nil), nil
}
