package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func unmarshalAssignment(t *testing.T, src string) StepAssignment {
	t.Helper()
	var a StepAssignment
	require.NoError(t, yaml.Unmarshal([]byte(src), &a))
	return a
}

func TestStepAssignmentUnmarshalScalarIsSingleton(t *testing.T) {
	t.Parallel()

	a := unmarshalAssignment(t, `gitscm`)
	require.Equal(t, Singleton("gitscm"), a)
}

func TestStepAssignmentUnmarshalDiscoverLiteral(t *testing.T) {
	t.Parallel()

	a := unmarshalAssignment(t, `discover`)
	require.Equal(t, Discover(), a)
}

func TestStepAssignmentUnmarshalSequenceIsShared(t *testing.T) {
	t.Parallel()

	a := unmarshalAssignment(t, "[a, b, c]")
	require.Equal(t, Shared([]string{"a", "b", "c"}), a)
}

func TestStepAssignmentUnmarshalRejectsMapping(t *testing.T) {
	t.Parallel()

	var a StepAssignment
	err := yaml.Unmarshal([]byte("mode: singleton\nnames: [a]"), &a)
	require.Error(t, err)
}
