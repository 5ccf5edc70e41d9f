package pluginhandle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/config"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

type fakePlugin struct {
	caps  protocol.MethodSet
	delay time.Duration
}

func (f *fakePlugin) Methods(ctx context.Context) (protocol.MethodSet, error) {
	return f.caps, nil
}

func (f *fakePlugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return protocol.Response{}, ctx.Err()
		}
	}
	return protocol.Ok(map[bus.Slot]any{bus.NewTag: "v1.0.0"}), nil
}

func TestStartWrapsBuiltinAndRecordsCapabilities(t *testing.T) {
	t.Parallel()

	builtins := map[string]protocol.Plugin{
		"gitscm": &fakePlugin{caps: protocol.MethodSet{protocol.Commit: true}},
	}
	h, err := Start(context.Background(), "gitscm", config.Location{Kind: config.LocationBuiltin}, nil, nil, builtins)
	require.NoError(t, err)
	require.Equal(t, protocol.MethodSet{protocol.Commit: true}, h.Capabilities)
}

func TestStartFailsWhenBuiltinNotRegistered(t *testing.T) {
	t.Parallel()

	_, err := Start(context.Background(), "missing", config.Location{Kind: config.LocationBuiltin}, nil, nil, map[string]protocol.Plugin{})
	require.Error(t, err)
}

func TestCallTimesOut(t *testing.T) {
	t.Parallel()

	h := &Handle{Name: "slow", impl: &fakePlugin{delay: 50 * time.Millisecond}}
	_, err := h.Call(context.Background(), protocol.Request{}, 5*time.Millisecond)
	require.Error(t, err)
}

func TestCallReturnsWrites(t *testing.T) {
	t.Parallel()

	h := &Handle{Name: "fast", impl: &fakePlugin{}}
	resp, err := h.Call(context.Background(), protocol.Request{}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "v1.0.0", resp.Writes[bus.NewTag])
}

func TestTimeoutForParsesConfigOrDefaults(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultTimeout, TimeoutFor(map[string]any{}))
	require.Equal(t, 5*time.Second, TimeoutFor(map[string]any{"timeout_seconds": 5}))
	require.Equal(t, 5*time.Second, TimeoutFor(map[string]any{"timeout_seconds": float64(5)}))
	require.Equal(t, DefaultTimeout, TimeoutFor(map[string]any{"timeout_seconds": "bogus"}))
}

func TestShutdownIsNoopForBuiltinHandle(t *testing.T) {
	t.Parallel()

	h := &Handle{Name: "gitscm"}
	h.Shutdown(context.Background())
}
