package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

func TestStepSingletonOnlyCoversGetLastReleaseAndCommit(t *testing.T) {
	t.Parallel()

	require.True(t, GetLastRelease.SingletonOnly())
	require.True(t, Commit.SingletonOnly())
	require.False(t, Publish.SingletonOnly())
}

func TestStepImplicitDiscoverCoversPreFlightAndGetLastRelease(t *testing.T) {
	t.Parallel()

	require.True(t, PreFlight.ImplicitDiscover())
	require.True(t, GetLastRelease.ImplicitDiscover())
	require.False(t, Commit.ImplicitDiscover())
}

func TestStepValidRejectsUnknownStep(t *testing.T) {
	t.Parallel()

	require.True(t, Prepare.Valid())
	require.False(t, Step("launch_rockets").Valid())
}

func TestCanonicalOrderMatchesPipelineSequence(t *testing.T) {
	t.Parallel()

	require.Equal(t, []Step{
		PreFlight,
		GetLastRelease,
		DeriveNextVersion,
		GenerateNotes,
		Prepare,
		VerifyRelease,
		Commit,
		Publish,
		Notify,
	}, Canonical())
}

func TestMethodSetAdvertisesHandlesNil(t *testing.T) {
	t.Parallel()

	var m MethodSet
	require.False(t, m.Advertises(Commit))

	m = MethodSet{Commit: true}
	require.True(t, m.Advertises(Commit))
	require.False(t, m.Advertises(Publish))
}

func TestMethodSetStepsReturnsCanonicalOrder(t *testing.T) {
	t.Parallel()

	m := MethodSet{Publish: true, PreFlight: true, Commit: true}
	require.Equal(t, []Step{PreFlight, Commit, Publish}, m.Steps())
}

func TestNewFailureCapturesCauseAsString(t *testing.T) {
	t.Parallel()

	f := NewFailure(streamyerrors.Network, "unreachable", errors.New("dial tcp: timeout"))
	require.Equal(t, streamyerrors.Network, f.Kind)
	require.Equal(t, "unreachable", f.Message)
	require.Equal(t, "dial tcp: timeout", f.Cause)
}

func TestNewFailureWithoutCauseLeavesCauseEmpty(t *testing.T) {
	t.Parallel()

	f := NewFailure(streamyerrors.Logic, "bad state", nil)
	require.Empty(t, f.Cause)
}

func TestFailureToErrorRoundTripsKindMessageAndCause(t *testing.T) {
	t.Parallel()

	f := NewFailure(streamyerrors.Io, "write failed", errors.New("disk full"))
	err := f.ToError()
	require.Equal(t, streamyerrors.Io, err.Kind)
	require.Equal(t, "write failed", err.Message)
	require.EqualError(t, err.Cause, "disk full")
}

func TestFailureToErrorHandlesNilFailure(t *testing.T) {
	t.Parallel()

	var f *Failure
	require.Nil(t, f.ToError())
}

func TestCompatibilityWindowBoundsSupportedVersions(t *testing.T) {
	t.Parallel()

	require.True(t, CompatibilityWindow(MinSupportedVersion))
	require.True(t, CompatibilityWindow(MaxSupportedVersion))
	require.False(t, CompatibilityWindow(MinSupportedVersion-1))
	require.False(t, CompatibilityWindow(MaxSupportedVersion+1))
}
