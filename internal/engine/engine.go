// Package engine executes a planned release pipeline: a strictly sequential
// walk over the Step Planner's ordered entries, dispatching each assigned
// plugin through its Handle, merging writes into the Data Bus, and
// enforcing the dry-run and early-exit invariants.
package engine

import (
	"context"
	"fmt"

	"github.com/semantic-rs/semantic-rs/internal/bus"
	"github.com/semantic-rs/semantic-rs/internal/dryrun"
	"github.com/semantic-rs/semantic-rs/internal/logging"
	"github.com/semantic-rs/semantic-rs/internal/pluginhandle"
	"github.com/semantic-rs/semantic-rs/internal/planner"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/resolver"
	"github.com/semantic-rs/semantic-rs/internal/semver"
	streamyerrors "github.com/semantic-rs/semantic-rs/pkg/errors"
)

// StepState is the per-step outcome recorded for the CLI summary.
type StepState string

const (
	Pending   StepState = "pending"
	Running   StepState = "running"
	Succeeded StepState = "succeeded"
	Skipped   StepState = "skipped"
	Failed    StepState = "failed"
)

// Result is what Run returns: the reduced bump, the derived version and
// published targets (once known), the final per-step states, and the
// terminal failure if the run aborted.
type Result struct {
	Bump             semver.Bump
	NextVersion      semver.Version
	PublishedTargets []string
	StepStates       map[protocol.Step]StepState
	Failure          error
}

// Host implements protocol.Host independently of any resolved plugin set,
// so it can be constructed before the Resolver runs and handed to
// pluginhandle.Start for both builtins and external plugins — which is what
// lets builtins receive a working Host at construction time, before the
// Engine that will later execute the plan even exists.
type Host struct {
	guard *dryrun.Guard
	log   *logging.Logger
}

// NewHost builds a Host backed by a fresh Dry-Run Guard and the given
// logger.
func NewHost(log *logging.Logger) *Host {
	return &Host{guard: dryrun.New(), log: log}
}

// Snapshot implements protocol.Host.
func (h *Host) Snapshot(path string) error { return h.guard.Snapshot(path) }

// Log implements protocol.Host.
func (h *Host) Log(level protocol.LogLevel, message string, fields map[string]any) {
	h.log.Log(level, message, fields)
}

var _ protocol.Host = (*Host)(nil)

// Engine drives one release run over a resolved plugin set, sharing its
// Host's guard and logger with the plugins it dispatches to.
type Engine struct {
	bus     *bus.Bus
	host    *Host
	handles map[string]*pluginhandle.Handle
	order   []string
	log     *logging.Logger
}

// New builds an Engine over the Resolver's result and the Host constructed
// before resolution.
func New(res *resolver.Result, host *Host) *Engine {
	return &Engine{
		bus:     bus.New(),
		host:    host,
		handles: res.Handles,
		order:   res.Order,
		log:     host.log,
	}
}

// Run executes plan sequentially against a project root and dry-run flag.
// Teardown (handle shutdown, then dry-run restore) always happens, even on
// abort, via the deferred cleanup below.
func (e *Engine) Run(ctx context.Context, plan *planner.Plan, projectRoot string, dryRun bool) *Result {
	res := &Result{StepStates: make(map[protocol.Step]StepState, len(plan.Entries))}
	for _, entry := range plan.Entries {
		res.StepStates[entry.Step] = Pending
	}

	defer e.teardown(dryRun)
	defer e.populateResult(res)

	if err := e.bus.Write(bus.ProjectRoot, projectRoot); err != nil {
		res.Failure = err
		return res
	}
	if err := e.bus.Write(bus.DryRun, dryRun); err != nil {
		res.Failure = err
		return res
	}

	for _, diag := range plan.Diagnostics {
		e.log.Info(fmt.Sprintf("step %q: %s", diag.Step, diag.Message))
	}

	for _, entry := range plan.Entries {
		res.StepStates[entry.Step] = Running
		e.log.Info(fmt.Sprintf("Running step '%s'", entry.Step))

		if dryRun && isGated(entry.Step) {
			e.log.Info(fmt.Sprintf("DRY RUN: skipping step %s", entry.Step))
			res.StepStates[entry.Step] = Skipped
			continue
		}

		if entry.Step == protocol.PreFlight {
			if err := e.runFanOut(ctx, entry); err != nil {
				res.StepStates[entry.Step] = Failed
				res.Failure = err
				return res
			}
			res.StepStates[entry.Step] = Succeeded
			continue
		}

		if err := e.runSequential(ctx, entry); err != nil {
			res.StepStates[entry.Step] = Failed
			res.Failure = err
			return res
		}
		res.StepStates[entry.Step] = Succeeded

		if entry.Step == protocol.DeriveNextVersion {
			res.Bump = e.reducedBump()
			if res.Bump == semver.BumpNone {
				e.log.Info("No version bump. Nothing to do")
				return res
			}
			if err := e.writeNextVersion(res.Bump); err != nil {
				res.StepStates[entry.Step] = Failed
				res.Failure = err
				return res
			}
		}
	}

	return res
}

// isGated reports whether step must be skipped in dry-run mode.
func isGated(step protocol.Step) bool {
	return step == protocol.Commit || step == protocol.Publish || step == protocol.Notify
}

// runFanOut invokes every assigned plugin for pre_flight, collecting every
// failure instead of stopping at the first.
func (e *Engine) runFanOut(ctx context.Context, entry planner.Entry) error {
	multi := &streamyerrors.MultiFailure{}
	for _, name := range entry.Plugins {
		if _, err := e.invoke(ctx, entry.Step, name); err != nil {
			multi.Add(err)
		}
	}
	if multi.Len() > 0 {
		return multi
	}
	return nil
}

// runSequential invokes every assigned plugin for entry in order, merging
// writes after each call and stopping at the first failure.
func (e *Engine) runSequential(ctx context.Context, entry planner.Entry) error {
	for _, name := range entry.Plugins {
		if _, err := e.invoke(ctx, entry.Step, name); err != nil {
			return err
		}
	}
	return nil
}

// invoke dispatches one plugin call for step and merges its writes into the
// bus per slot policy.
func (e *Engine) invoke(ctx context.Context, step protocol.Step, name string) (protocol.Response, error) {
	handle, ok := e.handles[name]
	if !ok {
		return protocol.Response{}, streamyerrors.NewLogicError(
			fmt.Sprintf("plan references unresolved plugin %q", name), nil)
	}

	e.log.Info(fmt.Sprintf("Invoking plugin '%s'", name))

	dryRun, _ := e.bus.Read(bus.DryRun)
	req := protocol.Request{
		Step:   step,
		Inputs: e.bus.Snapshot(),
		Cfg:    handle.Cfg,
		DryRun: dryRun == true,
	}

	timeout := pluginhandle.TimeoutFor(handle.Cfg)
	resp, err := handle.Call(ctx, req, timeout)
	if err != nil {
		return protocol.Response{}, err
	}
	if resp.Failure != nil {
		return protocol.Response{}, resp.Failure.ToError()
	}

	for slot, value := range resp.Writes {
		if err := e.bus.Write(slot, value); err != nil {
			return protocol.Response{}, err
		}
	}

	return resp, nil
}

// reducedBump reduces every derive_next_version contributor's Bump write
// via semver.MaxBump, matching the spec's rule that a shared assignment
// takes the largest bump any contributor reports.
func (e *Engine) reducedBump() semver.Bump {
	raw, ok := e.bus.Read(bus.Bump)
	if !ok {
		return semver.BumpNone
	}
	values, _ := raw.([]any)
	reduced := semver.BumpNone
	for _, v := range values {
		if b, ok := v.(semver.Bump); ok {
			reduced = semver.MaxBump(reduced, b)
		}
	}
	return reduced
}

// writeNextVersion applies the reduced bump to the last known release
// version and writes the result to next_version exactly once. Individual
// derive_next_version plugins contribute only a Bump; the Engine owns the
// version arithmetic so a shared assignment's max-bump result is always
// the one value every later step sees.
func (e *Engine) writeNextVersion(bump semver.Bump) error {
	last, _ := e.bus.Read(bus.LastRelease)
	lr, _ := last.(semver.LastRelease)
	next := lr.Version.Apply(bump)
	if err := e.bus.Write(bus.NextVersion, next); err != nil {
		return err
	}
	e.log.Info(fmt.Sprintf("next version: %s", next))
	return nil
}

// populateResult fills in whatever next_version/published_targets the bus
// accumulated before the run ended, success or not, so the CLI can report
// a partial result (e.g. the derived version even if publish later failed).
func (e *Engine) populateResult(res *Result) {
	if v, ok := e.bus.Read(bus.NextVersion); ok {
		if nv, ok := v.(semver.Version); ok {
			res.NextVersion = nv
		}
	}
	if v, ok := e.bus.Read(bus.PublishedTargets); ok {
		if raw, ok := v.([]any); ok {
			for _, t := range raw {
				if s, ok := t.(string); ok {
					res.PublishedTargets = append(res.PublishedTargets, s)
				}
			}
		}
	}
}

func (e *Engine) teardown(dryRun bool) {
	for i := len(e.order) - 1; i >= 0; i-- {
		e.handles[e.order[i]].Shutdown(context.Background())
	}
	if dryRun {
		e.host.guard.Restore(e.log)
	}
}
