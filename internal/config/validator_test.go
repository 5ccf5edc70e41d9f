package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

func TestValidateRejectsInvalidPluginName(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Plugins: map[string]PluginSpec{"1bad-name": {Location: Location{Kind: LocationBuiltin}}},
		Steps:   map[protocol.Step]StepAssignment{},
	}
	require.Error(t, Validate(doc))
}

func TestValidateRejectsSharedOnSingletonOnlyStep(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Plugins: map[string]PluginSpec{"a": {}, "b": {}},
		Steps: map[protocol.Step]StepAssignment{
			protocol.Commit: Shared([]string{"a", "b"}),
		},
	}
	require.Error(t, Validate(doc))
}

func TestValidateRejectsStepReferencingUndeclaredPlugin(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Plugins: map[string]PluginSpec{"gitscm": {}},
		Steps: map[protocol.Step]StepAssignment{
			protocol.Commit: Singleton("ghost"),
		},
	}
	require.Error(t, Validate(doc))
}

func TestValidateRejectsDuplicateNamesInSharedAssignment(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Plugins: map[string]PluginSpec{"a": {}},
		Steps: map[protocol.Step]StepAssignment{
			protocol.Prepare: Shared([]string{"a", "a"}),
		},
	}
	require.Error(t, Validate(doc))
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Plugins: map[string]PluginSpec{"gitscm": {}, "manifest": {}},
		Steps: map[protocol.Step]StepAssignment{
			protocol.Commit:  Singleton("gitscm"),
			protocol.Prepare: Shared([]string{"manifest"}),
			protocol.Notify:  Discover(),
		},
	}
	require.NoError(t, Validate(doc))
}

func TestValidateRejectsNilDocument(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
}
