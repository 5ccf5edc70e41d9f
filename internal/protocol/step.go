// Package protocol names the methods a plugin may implement, the shape of
// their request/response payloads, and the structured failure carrier
// exchanged between the engine and a plugin. It is the one contract both
// sides of the process boundary depend on; see rpc.go for how it rides over
// github.com/hashicorp/go-plugin.
package protocol

// Step identifies one stage of the release pipeline. The zero value is not
// a valid step; use the named constants.
type Step string

const (
	PreFlight         Step = "pre_flight"
	GetLastRelease    Step = "get_last_release"
	DeriveNextVersion Step = "derive_next_version"
	GenerateNotes     Step = "generate_notes"
	Prepare           Step = "prepare"
	VerifyRelease     Step = "verify_release"
	Commit            Step = "commit"
	Publish           Step = "publish"
	Notify            Step = "notify"
)

// Canonical returns every step in the engine's fixed execution order.
func Canonical() []Step {
	return []Step{
		PreFlight,
		GetLastRelease,
		DeriveNextVersion,
		GenerateNotes,
		Prepare,
		VerifyRelease,
		Commit,
		Publish,
		Notify,
	}
}

// SingletonOnly reports whether a step must be handled by exactly one
// plugin: get_last_release and commit can never be shared or multiply
// discovered.
func (s Step) SingletonOnly() bool {
	return s == GetLastRelease || s == Commit
}

// ImplicitDiscover reports whether the planner should assume a Discover
// assignment when the step is absent from the steps table.
func (s Step) ImplicitDiscover() bool {
	return s == PreFlight || s == GetLastRelease
}

// Valid reports whether s is one of the nine canonical steps.
func (s Step) Valid() bool {
	for _, c := range Canonical() {
		if c == s {
			return true
		}
	}
	return false
}
