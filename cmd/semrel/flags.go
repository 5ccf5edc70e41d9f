package main

// resolveWriteMode implements the dry/write tri-state resolution: an
// explicit --write or --dry always wins; otherwise CI=true flips the
// default from dry-run to write mode. --release is a separate concern
// (see runPostCommit) and plays no part in this decision.
func resolveWriteMode(dryFlagSet, dryFlagValue bool, writeFlagSet, writeFlagValue bool, ci bool) bool {
	if writeFlagSet {
		return writeFlagValue
	}
	if dryFlagSet {
		return !dryFlagValue
	}
	return ci
}

// runPostCommit reports whether publish/notify steps should run after
// commit. --release defaults to true; only an explicit --release=false
// stops the pipeline after commit, independent of dry-run/write mode.
func runPostCommit(releaseFlagSet, releaseFlagValue bool) bool {
	if releaseFlagSet {
		return releaseFlagValue
	}
	return true
}
