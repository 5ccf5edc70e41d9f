// Package pluginhandle implements the lifecycle wrapper around one
// provider: spawn/teardown, method dispatch, capability list, and per-call
// timeouts. Builtin and external plugins share the identical Handle
// surface; callers never branch on locality.
package pluginhandle

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	goplugin "github.com/hashicorp/go-plugin"

	"github.com/semantic-rs/semantic-rs/internal/config"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// DefaultTimeout is the per-call timeout applied unless the plugin's cfg
// subtree sets timeout_seconds. That value covers every step of the plugin;
// there is no per-step override.
const DefaultTimeout = 60 * time.Second

// Handle is the running instance of one registered plugin.
type Handle struct {
	Name         string
	Location     config.Location
	Capabilities protocol.MethodSet
	Cfg          map[string]any

	impl   protocol.Plugin
	client *goplugin.Client // nil for builtins
}

// Start spawns (external) or wraps (builtin) a plugin, performs the
// handshake, and records its capability list.
func Start(ctx context.Context, name string, loc config.Location, cfg map[string]any, host protocol.Host, builtins map[string]protocol.Plugin) (*Handle, error) {
	h := &Handle{Name: name, Location: loc, Cfg: cfg}

	switch loc.Kind {
	case config.LocationBuiltin:
		impl, ok := builtins[name]
		if !ok {
			return nil, streamyerrors.NewConfigError(
				fmt.Sprintf("plugin %q declares location builtin but no builtin implementation is registered under that name", name), nil)
		}
		h.impl = impl

	case config.LocationExec:
		client := goplugin.NewClient(&goplugin.ClientConfig{
			HandshakeConfig:  protocol.Handshake,
			Plugins:          protocol.Dispensed(nil, host),
			Cmd:              exec.Command(loc.Command[0], loc.Command[1:]...),
			AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		})
		rpcClient, err := client.Client()
		if err != nil {
			client.Kill()
			return nil, streamyerrors.NewProtocolError(fmt.Sprintf("connect to plugin %q", name), err)
		}
		raw, err := rpcClient.Dispense(protocol.PluginMapKey)
		if err != nil {
			client.Kill()
			return nil, streamyerrors.NewProtocolError(fmt.Sprintf("dispense plugin %q", name), err)
		}
		impl, ok := raw.(protocol.Plugin)
		if !ok {
			client.Kill()
			return nil, streamyerrors.NewProtocolError(fmt.Sprintf("plugin %q does not implement the step protocol", name), nil)
		}
		h.impl = impl
		h.client = client

	default:
		return nil, streamyerrors.NewConfigError(fmt.Sprintf("plugin %q has unrecognized location", name), nil)
	}

	caps, err := h.impl.Methods(ctx)
	if err != nil {
		h.Shutdown(ctx)
		return nil, streamyerrors.NewProtocolError(fmt.Sprintf("handshake with plugin %q", name), err)
	}
	h.Capabilities = caps

	return h, nil
}

// Call performs a single step invocation with a per-call timeout.
func (h *Handle) Call(ctx context.Context, req protocol.Request, timeout time.Duration) (protocol.Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		resp protocol.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := h.impl.Call(callCtx, req)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return protocol.Response{}, streamyerrors.NewProtocolError(
				fmt.Sprintf("plugin %q method %q failed", h.Name, req.Step), r.err)
		}
		return r.resp, nil
	case <-callCtx.Done():
		return protocol.Response{}, streamyerrors.NewProtocolError(
			fmt.Sprintf("plugin %q method %q timed out after %s", h.Name, req.Step, timeout), callCtx.Err())
	}
}

// Shutdown sends a teardown signal and terminates the plugin process. It is
// safe to call on a builtin handle, which is a no-op.
func (h *Handle) Shutdown(_ context.Context) {
	if h.client != nil {
		h.client.Kill()
	}
}

// TimeoutFor reads timeout_seconds from the plugin's cfg subtree, falling
// back to DefaultTimeout. The result applies to every step of the plugin.
func TimeoutFor(cfg map[string]any) time.Duration {
	raw, ok := cfg["timeout_seconds"]
	if !ok {
		return DefaultTimeout
	}
	switch v := raw.(type) {
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v) * time.Second
	default:
		return DefaultTimeout
	}
}
