// Package ci detects the single environment signal the engine reads
// directly: the CI variable. Everything else (registry tokens, committer
// identity) is the plugins' concern, read from their own cfg subtree or
// environment.
package ci

import (
	"os"
	"strings"
)

// Environment is a one-time snapshot of the process environment relevant to
// the engine, read once at startup per the "no process-wide mutable state"
// design note.
type Environment struct {
	CI bool
}

// DetectEnvironment reads CI once and returns the resulting Environment.
func DetectEnvironment() Environment {
	return Environment{CI: isTruthy(os.Getenv("CI"))}
}

func isTruthy(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v != "" && v != "false" && v != "0"
}
