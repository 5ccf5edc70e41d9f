package protocol

import "github.com/semantic-rs/semantic-rs/internal/bus"

// Request is the envelope handed to a plugin's step method: a copy of every
// bus slot written so far (not filtered per step or per plugin), the
// plugin's own cfg subtree, and the dry-run flag. It travels across the wire as a plain value, so every field must be
// gob-encodable.
type Request struct {
	Step   Step
	Inputs map[bus.Slot]any
	Cfg    map[string]any
	DryRun bool
}

// Response is what a step method returns: either a set of new slot writes
// on success, or a Failure. Exactly one of the two is meaningful; Engine
// code checks Failure first.
type Response struct {
	Writes  map[bus.Slot]any
	Failure *Failure
}

// Ok builds a successful Response.
func Ok(writes map[bus.Slot]any) Response {
	return Response{Writes: writes}
}

// Err builds a failed Response.
func Err(f *Failure) Response {
	return Response{Failure: f}
}
