package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semantic-rs/semantic-rs/internal/config"
	"github.com/semantic-rs/semantic-rs/internal/engine"
	"github.com/semantic-rs/semantic-rs/internal/planner"
	"github.com/semantic-rs/semantic-rs/internal/protocol"
	"github.com/semantic-rs/semantic-rs/internal/resolver"
)

const configFileName = ".semrel.yaml"

// runRelease is the single command's RunE: load config, resolve plugins,
// plan the run, execute it, and report the outcome.
func runRelease(cmd *cobra.Command, app *AppContext, flags *rootFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dryRun := !resolveWriteMode(
		cmd.Flags().Changed("dry"), flags.dryRun,
		cmd.Flags().Changed("write"), flags.write,
		app.Environment.CI,
	)
	postCommit := runPostCommit(cmd.Flags().Changed("release"), flags.release)

	configPath := filepath.Join(flags.path, configFileName)
	doc, err := config.Load(configPath)
	if err != nil {
		return err
	}

	host := engine.NewHost(app.Logger)
	builtins := app.NewBuiltins(host)

	res, err := resolver.Resolve(ctx, doc, host, builtins)
	if err != nil {
		return err
	}
	defer resolver.Shutdown(context.Background(), res)

	caps := make(planner.Capabilities, len(res.Handles))
	for name, handle := range res.Handles {
		caps[name] = handle.Capabilities
	}

	plan, err := planner.Build(doc.Steps, caps, res.Order)
	if err != nil {
		return err
	}
	if !postCommit {
		plan = dropPostCommitSteps(plan)
	}

	eng := engine.New(res, host)
	result := eng.Run(ctx, plan, flags.path, dryRun)

	printSummary(cmd, result, dryRun)

	if result.Failure != nil {
		return result.Failure
	}
	return nil
}

// dropPostCommitSteps removes publish/notify entries from plan so the
// pipeline stops after commit, implementing --release=false.
func dropPostCommitSteps(plan *planner.Plan) *planner.Plan {
	filtered := &planner.Plan{Diagnostics: plan.Diagnostics}
	for _, entry := range plan.Entries {
		if entry.Step == protocol.Publish || entry.Step == protocol.Notify {
			continue
		}
		filtered.Entries = append(filtered.Entries, entry)
	}
	return filtered
}

func printSummary(cmd *cobra.Command, result *engine.Result, dryRun bool) {
	mode := "write"
	if dryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "semrel (%s mode)\n", mode)
	for _, step := range protocol.Canonical() {
		state, ok := result.StepStates[step]
		if !ok {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s\n", step, state)
	}
	if result.Bump != 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "bump: %s\n", result.Bump)
	}
	if result.Failure == nil && !dryRun && result.Bump != 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", result.NextVersion)
		if len(result.PublishedTargets) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "published: %s\n", strings.Join(result.PublishedTargets, ", "))
		}
	}
}
