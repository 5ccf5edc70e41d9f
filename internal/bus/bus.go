// Package bus implements the Data Bus: a typed, append-only key/value map
// threaded through the pipeline. Each canonical slot has a declared write
// policy (write_once or append); the Bus enforces it so a second write to a
// write_once slot is a Logic failure rather than silently overwriting data
// a later step already read.
package bus

import (
	"fmt"
	"sync"

	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Slot names a well-known entry in the Data Bus.
type Slot string

const (
	ProjectRoot      Slot = "project_root"
	DryRun           Slot = "dry_run"
	LastRelease      Slot = "last_release"
	Bump             Slot = "bump"
	NextVersion      Slot = "next_version"
	ReleaseNotes     Slot = "release_notes"
	FilesChanged     Slot = "files_changed"
	NewTag           Slot = "new_tag"
	PublishedTargets Slot = "published_targets"
)

// Policy controls how repeated writes to a slot are handled.
type Policy int

const (
	// WriteOnce is the default: a second write is a Logic failure.
	WriteOnce Policy = iota
	// Append accumulates values in invocation order; reads return the
	// accumulated collection.
	Append
)

var slotPolicies = map[Slot]Policy{
	ProjectRoot:      WriteOnce,
	DryRun:           WriteOnce,
	LastRelease:      WriteOnce,
	Bump:             Append, // shared-mode derive_next_version contributors each write their own Bump; the engine reduces via semver.MaxBump
	NextVersion:      WriteOnce,
	ReleaseNotes:     Append,
	FilesChanged:     Append,
	NewTag:           WriteOnce,
	PublishedTargets: Append,
}

// PolicyOf returns the declared policy for slot, defaulting to WriteOnce for
// any slot the engine does not recognize.
func PolicyOf(slot Slot) Policy {
	if p, ok := slotPolicies[slot]; ok {
		return p
	}
	return WriteOnce
}

// Bus is the sole channel for inter-step data transfer over one run.
type Bus struct {
	mu      sync.Mutex
	values  map[Slot]any
	written map[Slot]bool
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		values:  make(map[Slot]any),
		written: make(map[Slot]bool),
	}
}

// Write stores value under slot according to its declared policy.
func (b *Bus) Write(slot Slot, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch PolicyOf(slot) {
	case Append:
		existing, _ := b.values[slot].([]any)
		b.values[slot] = append(existing, value)
		b.written[slot] = true
		return nil
	default:
		if b.written[slot] {
			return streamyerrors.NewLogicError(
				fmt.Sprintf("slot %q is write_once and was already written this run", slot), nil)
		}
		b.values[slot] = value
		b.written[slot] = true
		return nil
	}
}

// Read returns the current value of slot and whether it has been written.
func (b *Bus) Read(slot Slot) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[slot]
	return v, ok
}

// Snapshot returns a defensive copy of every written slot; the Engine hands
// it unfiltered to each plugin call as Request.Inputs.
func (b *Bus) Snapshot() map[Slot]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[Slot]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Filter projects snapshot down to the given slots. The Engine does not call
// it: requests carry the full snapshot, so a plugin can read every slot
// written so far, including ones it did not ask for.
func Filter(snapshot map[Slot]any, allowed []Slot) map[Slot]any {
	out := make(map[Slot]any, len(allowed))
	for _, slot := range allowed {
		if v, ok := snapshot[slot]; ok {
			out[slot] = v
		}
	}
	return out
}
