// Package planner turns the steps table plus plugin capability lists into
// an ordered list of (step, mode, [plugin,...]) assignments. It is pure: it
// never touches a live plugin handle, a file, or the network — only the
// capability data the Resolver already collected.
package planner

import (
	"fmt"

	"github.com/semantic-rs/semantic-rs/internal/config"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// Entry is one planned step assignment in canonical order.
type Entry struct {
	Step    protocol.Step
	Mode    config.AssignmentMode
	Plugins []string
}

// Diagnostic is an informational (non-fatal) note emitted when a discover
// step finds no contributors.
type Diagnostic struct {
	Step    protocol.Step
	Message string
}

// Plan is the Step Planner's output.
type Plan struct {
	Entries     []Entry
	Diagnostics []Diagnostic
}

// Capabilities maps plugin name to its advertised method set, as collected
// by the Resolver.
type Capabilities map[string]protocol.MethodSet

// Build computes the execution plan for steps given the registered
// capabilities and their declaration order (used as the discovery
// tie-break).
func Build(steps map[protocol.Step]config.StepAssignment, caps Capabilities, order []string) (*Plan, error) {
	plan := &Plan{}

	for _, step := range protocol.Canonical() {
		assignment, declared := steps[step]
		if !declared {
			if !step.ImplicitDiscover() {
				continue
			}
			assignment = config.Discover()
		}

		entry, diag, err := planStep(step, assignment, caps, order)
		if err != nil {
			return nil, err
		}
		if diag != nil {
			plan.Diagnostics = append(plan.Diagnostics, *diag)
			continue
		}
		if entry != nil {
			plan.Entries = append(plan.Entries, *entry)
		}
	}

	return plan, nil
}

func planStep(step protocol.Step, assignment config.StepAssignment, caps Capabilities, order []string) (*Entry, *Diagnostic, error) {
	switch assignment.Mode {
	case config.ModeSingleton:
		name := assignment.Names[0]
		if err := requireAdvertises(caps, name, step); err != nil {
			return nil, nil, err
		}
		return &Entry{Step: step, Mode: config.ModeSingleton, Plugins: []string{name}}, nil, nil

	case config.ModeShared:
		if step.SingletonOnly() {
			return nil, nil, streamyerrors.NewConfigError(
				fmt.Sprintf("step %q is singleton-only and cannot be shared", step), nil)
		}
		for _, name := range assignment.Names {
			if err := requireAdvertises(caps, name, step); err != nil {
				return nil, nil, err
			}
		}
		return &Entry{Step: step, Mode: config.ModeShared, Plugins: append([]string(nil), assignment.Names...)}, nil, nil

	case config.ModeDiscover:
		var matches []string
		for _, name := range order {
			if caps[name].Advertises(step) {
				matches = append(matches, name)
			}
		}

		if step.SingletonOnly() {
			switch len(matches) {
			case 1:
				return &Entry{Step: step, Mode: config.ModeSingleton, Plugins: matches}, nil, nil
			case 0:
				return nil, nil, streamyerrors.NewConfigError(
					fmt.Sprintf("step %q is singleton-only: no registered plugin advertises it", step), nil)
			default:
				return nil, nil, streamyerrors.NewConfigError(
					fmt.Sprintf("step %q is singleton-only: multiple plugins advertise it (%v)", step, matches), nil)
			}
		}

		if len(matches) == 0 {
			return nil, &Diagnostic{Step: step, Message: fmt.Sprintf("no plugin advertises step %q; skipping", step)}, nil
		}
		return &Entry{Step: step, Mode: config.ModeDiscover, Plugins: matches}, nil, nil

	default:
		return nil, nil, streamyerrors.NewConfigError(fmt.Sprintf("step %q: unknown assignment mode %q", step, assignment.Mode), nil)
	}
}

func requireAdvertises(caps Capabilities, name string, step protocol.Step) error {
	ms, ok := caps[name]
	if !ok {
		return streamyerrors.NewConfigError(fmt.Sprintf("step %q references unregistered plugin %q", step, name), nil)
	}
	if !ms.Advertises(step) {
		return streamyerrors.NewConfigError(fmt.Sprintf("plugin %q does not advertise step %q", name, step), nil)
	}
	return nil
}
