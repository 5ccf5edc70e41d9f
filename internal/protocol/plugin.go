package protocol

import "context"

// Plugin is the contract every provider — builtin or external — satisfies.
// Methods() is called once at startup to obtain the capability list; Call
// dispatches a single step invocation.
type Plugin interface {
	// Methods returns the capability list advertised at startup.
	Methods(ctx context.Context) (MethodSet, error)

	// Call invokes the named step method with req and returns its Response.
	// A plugin that does not implement step should never be called for it
	// (the Resolver/Planner guarantee this), but implementations should
	// still return a Protocol failure defensively.
	Call(ctx context.Context, req Request) (Response, error)
}

// Host is the engine-side counterpart every plugin can reach: the two
// out-of-band calls the protocol defines regardless of which step methods a
// plugin implements. Builtins receive a Host directly at construction.
// External plugins started by pluginhandle.Start get no Host connection:
// rpc.go has a hostServer that can expose a Host on the go-plugin
// MuxBroker, but nothing registers it or passes its broker ID to the plugin.
type Host interface {
	// Snapshot asks the engine to record path's current contents so a
	// later dry-run teardown can restore it.
	Snapshot(path string) error

	// Log forwards a structured log line to the engine's logger.
	Log(level LogLevel, message string, fields map[string]any)
}
