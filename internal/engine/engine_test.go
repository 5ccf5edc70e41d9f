package engine

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/config"
	"github.com/semantic-rs/semantic-rs/internal/logging"
	"github.com/semantic-rs/semantic-rs/internal/planner"
	"github.com/semantic-rs/semantic-rs/internal/pluginhandle"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/resolver"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

type stepPlugin struct {
	caps protocol.MethodSet
	call func(ctx context.Context, req protocol.Request) (protocol.Response, error)
}

func (p *stepPlugin) Methods(ctx context.Context) (protocol.MethodSet, error) { return p.caps, nil }
func (p *stepPlugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	return p.call(ctx, req)
}

func mustLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.New(logging.Options{Writer: io.Discard})
	require.NoError(t, err)
	return log
}

func buildEngine(t *testing.T, builtins map[string]protocol.Plugin) (*Engine, *Host) {
	t.Helper()
	host := NewHost(mustLogger(t))
	handles := make(map[string]*pluginhandle.Handle, len(builtins))
	order := make([]string, 0, len(builtins))
	for name := range builtins {
		h, err := pluginhandle.Start(context.Background(), name, config.Location{Kind: config.LocationBuiltin}, nil, host, builtins)
		require.NoError(t, err)
		handles[name] = h
		order = append(order, name)
	}
	res := &resolver.Result{Handles: handles, Order: order}
	return New(res, host), host
}

func TestRunStopsAtFirstFailureOutsidePreFlight(t *testing.T) {
	t.Parallel()

	builtins := map[string]protocol.Plugin{
		"gitscm": &stepPlugin{
			caps: protocol.MethodSet{protocol.Commit: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Err(protocol.NewFailure(streamyerrors.Logic, "boom", nil)), nil
			},
		},
	}
	eng, _ := buildEngine(t, builtins)
	plan := &planner.Plan{Entries: []planner.Entry{
		{Step: protocol.Commit, Mode: config.ModeSingleton, Plugins: []string{"gitscm"}},
	}}

	result := eng.Run(context.Background(), plan, t.TempDir(), false)
	require.Error(t, result.Failure)
	require.Equal(t, Failed, result.StepStates[protocol.Commit])
}

func TestRunSkipsGatedStepsInDryRun(t *testing.T) {
	t.Parallel()

	called := false
	builtins := map[string]protocol.Plugin{
		"gitscm": &stepPlugin{
			caps: protocol.MethodSet{protocol.Commit: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				called = true
				return protocol.Ok(nil), nil
			},
		},
	}
	eng, _ := buildEngine(t, builtins)
	plan := &planner.Plan{Entries: []planner.Entry{
		{Step: protocol.Commit, Mode: config.ModeSingleton, Plugins: []string{"gitscm"}},
	}}

	result := eng.Run(context.Background(), plan, t.TempDir(), true)
	require.NoError(t, result.Failure)
	require.False(t, called)
	require.Equal(t, Skipped, result.StepStates[protocol.Commit])
}

func TestRunFansOutPreFlightAndAggregatesFailures(t *testing.T) {
	t.Parallel()

	builtins := map[string]protocol.Plugin{
		"a": &stepPlugin{
			caps: protocol.MethodSet{protocol.PreFlight: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Err(protocol.NewFailure(streamyerrors.Precondition, "a failed", nil)), nil
			},
		},
		"b": &stepPlugin{
			caps: protocol.MethodSet{protocol.PreFlight: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Err(protocol.NewFailure(streamyerrors.Precondition, "b failed", nil)), nil
			},
		},
	}
	eng, _ := buildEngine(t, builtins)
	plan := &planner.Plan{Entries: []planner.Entry{
		{Step: protocol.PreFlight, Mode: config.ModeDiscover, Plugins: []string{"a", "b"}},
	}}

	result := eng.Run(context.Background(), plan, t.TempDir(), false)
	require.Error(t, result.Failure)
	require.Contains(t, result.Failure.Error(), "a failed")
	require.Contains(t, result.Failure.Error(), "b failed")
}

func TestRunReducesBumpAcrossSharedContributorsAndExitsEarlyOnNone(t *testing.T) {
	t.Parallel()

	builtins := map[string]protocol.Plugin{
		"a": &stepPlugin{
			caps: protocol.MethodSet{protocol.DeriveNextVersion: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Ok(map[bus.Slot]any{bus.Bump: semver.BumpNone}), nil
			},
		},
		"b": &stepPlugin{
			caps: protocol.MethodSet{protocol.DeriveNextVersion: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Ok(map[bus.Slot]any{bus.Bump: semver.BumpNone}), nil
			},
		},
		"publish": &stepPlugin{
			caps: protocol.MethodSet{protocol.Publish: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				t.Fatal("publish should not run when bump is none")
				return protocol.Response{}, nil
			},
		},
	}
	eng, _ := buildEngine(t, builtins)
	plan := &planner.Plan{Entries: []planner.Entry{
		{Step: protocol.DeriveNextVersion, Mode: config.ModeShared, Plugins: []string{"a", "b"}},
		{Step: protocol.Publish, Mode: config.ModeSingleton, Plugins: []string{"publish"}},
	}}

	result := eng.Run(context.Background(), plan, t.TempDir(), false)
	require.NoError(t, result.Failure)
	require.Equal(t, semver.BumpNone, result.Bump)
	require.Equal(t, Pending, result.StepStates[protocol.Publish])
}

func TestRunAppliesMaxBumpAcrossContributorsToNextVersion(t *testing.T) {
	t.Parallel()

	builtins := map[string]protocol.Plugin{
		"patch": &stepPlugin{
			caps: protocol.MethodSet{protocol.DeriveNextVersion: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Ok(map[bus.Slot]any{bus.Bump: semver.BumpPatch}), nil
			},
		},
		"minor": &stepPlugin{
			caps: protocol.MethodSet{protocol.DeriveNextVersion: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Ok(map[bus.Slot]any{bus.Bump: semver.BumpMinor}), nil
			},
		},
		"getlast": &stepPlugin{
			caps: protocol.MethodSet{protocol.GetLastRelease: true},
			call: func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
				return protocol.Ok(map[bus.Slot]any{
					bus.LastRelease: semver.LastRelease{Version: semver.Version{Major: 1, Minor: 2, Patch: 3}, Found: true},
				}), nil
			},
		},
	}
	eng, _ := buildEngine(t, builtins)
	plan := &planner.Plan{Entries: []planner.Entry{
		{Step: protocol.GetLastRelease, Mode: config.ModeSingleton, Plugins: []string{"getlast"}},
		{Step: protocol.DeriveNextVersion, Mode: config.ModeShared, Plugins: []string{"patch", "minor"}},
	}}

	result := eng.Run(context.Background(), plan, t.TempDir(), false)
	require.NoError(t, result.Failure)
	require.Equal(t, semver.BumpMinor, result.Bump)

	next, ok := eng.bus.Read(bus.NextVersion)
	require.True(t, ok)
	require.Equal(t, semver.Version{Major: 1, Minor: 3, Patch: 0}, next)
}
