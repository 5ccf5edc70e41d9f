// Package verifychecksum implements the reference verify_release plugin: it
// hashes each artifact listed in the configured checksum file and compares
// it against the digest recorded there. This builtin is deliberately left
// on the standard library —
// crypto/sha256 and hash comparison have no third-party equivalent any pack
// example reaches for; see DESIGN.md.
package verifychecksum

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/semantic-rs/semantic-rs/internal/protocol"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Plugin is the checksum verifier's protocol.Plugin implementation.
type Plugin struct {
	host protocol.Host
}

// New constructs the checksum verifier.
func New(host protocol.Host) *Plugin {
	return &Plugin{host: host}
}

var _ protocol.Plugin = (*Plugin)(nil)

func (p *Plugin) Methods(context.Context) (protocol.MethodSet, error) {
	return protocol.MethodSet{protocol.VerifyRelease: true}, nil
}

func (p *Plugin) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if req.Step != protocol.VerifyRelease {
		return protocol.Response{}, fmt.Errorf("verifychecksum: unsupported step %q", req.Step)
	}

	checksumFile, _ := req.Cfg["checksum_file"].(string)
	if checksumFile == "" {
		return protocol.Response{}, streamyerrors.NewConfigError("verifychecksum plugin requires checksum_file", nil)
	}

	expected, err := readChecksums(checksumFile)
	if err != nil {
		return protocol.Response{}, err
	}

	for path, want := range expected {
		got, err := hashFile(path)
		if err != nil {
			return protocol.Response{}, err
		}
		if got != want {
			return protocol.Response{}, streamyerrors.NewPreconditionError(
				fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", path, want, got), nil)
		}
		if p.host != nil {
			p.host.Log(protocol.LogInfo, fmt.Sprintf("verified checksum for %s", path), nil)
		}
	}

	return protocol.Ok(nil), nil
}

// readChecksums parses a sha256sum(1)-style file: "<hex digest>  <path>" per
// line.
func readChecksums(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, streamyerrors.NewIoError(fmt.Sprintf("open checksum file %s", path), err)
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, streamyerrors.NewConfigError(fmt.Sprintf("malformed checksum line: %q", line), nil)
		}
		out[fields[1]] = strings.ToLower(fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, streamyerrors.NewIoError(fmt.Sprintf("read checksum file %s", path), err)
	}
	return out, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", streamyerrors.NewIoError(fmt.Sprintf("open artifact %s", path), err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", streamyerrors.NewIoError(fmt.Sprintf("hash artifact %s", path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
