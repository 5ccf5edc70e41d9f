package verifychecksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestCallSucceedsWhenChecksumsMatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	artifact := writeArtifact(t, dir, "release.tar.gz", "payload")
	checksumFile := filepath.Join(dir, "CHECKSUMS")
	require.NoError(t, os.WriteFile(checksumFile,
		[]byte(fmt.Sprintf("%s  %s\n", sha256Hex("payload"), artifact)), 0o644))

	p := New(nil)
	resp, err := p.Call(context.Background(), protocol.Request{
		Step: protocol.VerifyRelease,
		Cfg:  map[string]any{"checksum_file": checksumFile},
	})
	require.NoError(t, err)
	require.Nil(t, resp.Failure)
}

func TestCallFailsOnChecksumMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	artifact := writeArtifact(t, dir, "release.tar.gz", "payload")
	checksumFile := filepath.Join(dir, "CHECKSUMS")
	require.NoError(t, os.WriteFile(checksumFile,
		[]byte(fmt.Sprintf("%s  %s\n", sha256Hex("wrong"), artifact)), 0o644))

	p := New(nil)
	_, err := p.Call(context.Background(), protocol.Request{
		Step: protocol.VerifyRelease,
		Cfg:  map[string]any{"checksum_file": checksumFile},
	})
	require.Error(t, err)
}

func TestCallRequiresChecksumFileConfig(t *testing.T) {
	t.Parallel()

	p := New(nil)
	_, err := p.Call(context.Background(), protocol.Request{Step: protocol.VerifyRelease, Cfg: map[string]any{}})
	require.Error(t, err)
}

func TestMethodsAdvertisesVerifyReleaseOnly(t *testing.T) {
	t.Parallel()

	p := New(nil)
	caps, err := p.Methods(context.Background())
	require.NoError(t, err)
	require.True(t, caps.Advertises(protocol.VerifyRelease))
	require.False(t, caps.Advertises(protocol.Publish))
}
