package main

import (
	"github.com/semantic-rs/semantic-rs/internal/builtin/changelog"
	"github.com/semantic-rs/semantic-rs/internal/builtin/commitanalyzer"
	"github.com/semantic-rs/semantic-rs/internal/builtin/ghrelease"
	"github.com/semantic-rs/semantic-rs/internal/builtin/gitscm"
	"github.com/semantic-rs/semantic-rs/internal/builtin/manifest"
	"github.com/semantic-rs/semantic-rs/internal/builtin/registrypublish"
	"github.com/semantic-rs/semantic-rs/internal/builtin/slacknotify"
	"github.com/semantic-rs/semantic-rs/internal/builtin/verifychecksum"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

// registerBuiltins returns every reference plugin this binary ships,
// keyed by the name a configuration document references under
// `location: builtin`. Called once per run with that run's Host so
// Snapshot/Log calls land on the correct Dry-Run Guard and logger.
func registerBuiltins(host protocol.Host) map[string]protocol.Plugin {
	return map[string]protocol.Plugin{
		"commitanalyzer":  commitanalyzer.New(host),
		"changelog":       changelog.New(host),
		"gitscm":          gitscm.New(host),
		"manifest":        manifest.New(host),
		"ghrelease":       ghrelease.New(host),
		"registrypublish": registrypublish.New(host),
		"slacknotify":     slacknotify.New(host),
		"verifychecksum":  verifychecksum.New(host),
	}
}
