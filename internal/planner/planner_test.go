package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semantic-rs/semantic-rs/internal/config"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

func TestBuildAppliesImplicitDiscoverDefaults(t *testing.T) {
	t.Parallel()

	caps := Capabilities{
		"commitanalyzer": protocol.MethodSet{protocol.PreFlight: true, protocol.GetLastRelease: true},
	}
	plan, err := Build(map[protocol.Step]config.StepAssignment{}, caps, []string{"commitanalyzer"})
	require.NoError(t, err)

	require.Len(t, plan.Entries, 2)
	require.Equal(t, protocol.PreFlight, plan.Entries[0].Step)
	require.Equal(t, config.ModeDiscover, plan.Entries[0].Mode)
	require.Equal(t, protocol.GetLastRelease, plan.Entries[1].Step)
	require.Equal(t, config.ModeSingleton, plan.Entries[1].Mode)
}

func TestBuildRejectsSharedOnSingletonOnlyStep(t *testing.T) {
	t.Parallel()

	caps := Capabilities{
		"a": protocol.MethodSet{protocol.Commit: true},
		"b": protocol.MethodSet{protocol.Commit: true},
	}
	steps := map[protocol.Step]config.StepAssignment{
		protocol.Commit: config.Shared([]string{"a", "b"}),
	}
	_, err := Build(steps, caps, []string{"a", "b"})
	require.Error(t, err)
}

func TestBuildDiscoverOnSingletonOnlyStepRequiresExactlyOneMatch(t *testing.T) {
	t.Parallel()

	steps := map[protocol.Step]config.StepAssignment{
		protocol.Commit: config.Discover(),
	}

	// "g" satisfies the implicit get_last_release discover in every case.
	last := protocol.MethodSet{protocol.GetLastRelease: true}

	// zero matches
	_, err := Build(steps, Capabilities{"g": last}, []string{"g"})
	require.Error(t, err)

	// two matches
	caps := Capabilities{
		"g": last,
		"a": protocol.MethodSet{protocol.Commit: true},
		"b": protocol.MethodSet{protocol.Commit: true},
	}
	_, err = Build(steps, caps, []string{"g", "a", "b"})
	require.Error(t, err)

	// exactly one match
	caps = Capabilities{"g": last, "a": protocol.MethodSet{protocol.Commit: true}}
	plan, err := Build(steps, caps, []string{"g", "a"})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	require.Equal(t, protocol.Commit, plan.Entries[1].Step)
	require.Equal(t, config.ModeSingleton, plan.Entries[1].Mode)
}

func TestBuildDiscoverWithNoMatchesOnNonSingletonStepEmitsDiagnostic(t *testing.T) {
	t.Parallel()

	steps := map[protocol.Step]config.StepAssignment{
		protocol.Notify: config.Discover(),
	}
	// "g" satisfies the implicit pre_flight and get_last_release discovers,
	// so notify is the only step left without a match.
	caps := Capabilities{"g": protocol.MethodSet{protocol.PreFlight: true, protocol.GetLastRelease: true}}
	plan, err := Build(steps, caps, []string{"g"})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	require.Equal(t, protocol.GetLastRelease, plan.Entries[1].Step)
	require.Len(t, plan.Diagnostics, 1)
	require.Equal(t, protocol.Notify, plan.Diagnostics[0].Step)
}

func TestBuildSingletonRequiresAdvertisedCapability(t *testing.T) {
	t.Parallel()

	steps := map[protocol.Step]config.StepAssignment{
		protocol.Publish: config.Singleton("ghrelease"),
	}
	_, err := Build(steps, Capabilities{"ghrelease": protocol.MethodSet{}}, []string{"ghrelease"})
	require.Error(t, err)
}

func TestBuildSharedCollectsAllNamedPlugins(t *testing.T) {
	t.Parallel()

	caps := Capabilities{
		"g": protocol.MethodSet{protocol.GetLastRelease: true},
		"a": protocol.MethodSet{protocol.DeriveNextVersion: true},
		"b": protocol.MethodSet{protocol.DeriveNextVersion: true},
	}
	steps := map[protocol.Step]config.StepAssignment{
		protocol.DeriveNextVersion: config.Shared([]string{"a", "b"}),
	}
	plan, err := Build(steps, caps, []string{"g", "a", "b"})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	require.Equal(t, []string{"a", "b"}, plan.Entries[1].Plugins)
}
