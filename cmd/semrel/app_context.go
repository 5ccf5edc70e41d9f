package main

import (
	"github.com/semantic-rs/semantic-rs/internal/ci"
	"github.com/semantic-rs/semantic-rs/internal/logging"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

// AppContext is the dependency-injection root every cobra command reads
// from, built once in main before the command tree runs. Builtins are
// constructed per-run (not here) because each one needs the real
// engine.Host for the run it will participate in, which does not exist
// until runRelease builds it.
type AppContext struct {
	Logger      *logging.Logger
	Environment ci.Environment
	NewBuiltins func(protocol.Host) map[string]protocol.Plugin
}
