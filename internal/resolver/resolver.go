// Package resolver turns the plugins section of a configuration document
// into a registered set of Plugin Handles, checking names and locations.
package resolver

import (
	"context"
	"fmt"

	"github.com/semantic-rs/semantic-rs/internal/config"
	"github.com/semantic-rs/semantic-rs/internal/pluginhandle"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Result is the Resolver's output: every started Handle plus the
// declaration order the Step Planner needs for discovery tie-breaks.
type Result struct {
	Handles map[string]*pluginhandle.Handle
	Order   []string
}

// Resolve starts a Handle for every entry in doc.Plugins. On any failure it
// tears down every handle already started before returning, so a
// misconfigured document never leaves orphaned plugin processes running.
func Resolve(ctx context.Context, doc *config.Document, host protocol.Host, builtins map[string]protocol.Plugin) (*Result, error) {
	order := doc.PluginOrder()
	if len(order) != len(doc.Plugins) {
		// Declaration order could not be recovered (e.g. a document built
		// programmatically rather than parsed); fall back to map order,
		// which is still valid — just not guaranteed stable across runs.
		order = order[:0]
		for name := range doc.Plugins {
			order = append(order, name)
		}
	}

	res := &Result{Handles: make(map[string]*pluginhandle.Handle, len(doc.Plugins))}

	for _, name := range order {
		spec, ok := doc.Plugins[name]
		if !ok {
			continue
		}
		if _, dup := res.Handles[name]; dup {
			teardown(res)
			return nil, streamyerrors.NewConfigError(fmt.Sprintf("duplicate plugin name %q", name), nil)
		}

		handle, err := pluginhandle.Start(ctx, name, spec.Location, doc.CfgFor(name), host, builtins)
		if err != nil {
			teardown(res)
			return nil, err
		}
		res.Handles[name] = handle
		res.Order = append(res.Order, name)
	}

	return res, nil
}

func teardown(res *Result) {
	for _, name := range res.Order {
		res.Handles[name].Shutdown(context.Background())
	}
}

// Shutdown tears down every handle in reverse registration order, matching
// the Engine's teardown discipline.
func Shutdown(ctx context.Context, res *Result) {
	for i := len(res.Order) - 1; i >= 0; i-- {
		res.Handles[res.Order[i]].Shutdown(ctx)
	}
}
