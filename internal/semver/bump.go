package semver

// Bump is the magnitude of a version increase, totally ordered
// None < Patch < Minor < Major.
type Bump int

const (
	BumpNone Bump = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

func (b Bump) String() string {
	switch b {
	case BumpNone:
		return "none"
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	default:
		return "unknown"
	}
}

// MaxBump reduces two bumps to the larger magnitude, used to reconcile
// shared-mode derive_next_version contributors.
func MaxBump(a, b Bump) Bump {
	if b > a {
		return b
	}
	return a
}

// Apply returns the next version for the given bump kind. A pre-release tag
// is always cleared by a bump, matching standard semver tooling behaviour.
func (v Version) Apply(bump Bump) Version {
	switch bump {
	case BumpMajor:
		return Version{Major: v.Major + 1, Minor: 0, Patch: 0}
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1, Patch: 0}
	case BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}
