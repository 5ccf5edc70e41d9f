// Package semver implements the subset of semantic version parsing and
// ordering the release engine needs: MAJOR.MINOR.PATCH with an optional
// pre-release tag, plus the Bump kind that drives version derivation.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z-.]+))?(?:\+[0-9A-Za-z-.]+)?$`)

// Version is a parsed semantic version.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   string
}

// Zero is the initial version used for repositories with no prior release.
var Zero = Version{}

// RevisionId identifies a VCS revision (a commit hash, in practice) without
// the engine needing to know anything about the VCS that produced it.
type RevisionId string

// LastRelease is the value written to bus.LastRelease by any
// get_last_release provider. It is the one shared shape every
// derive_next_version contributor reads back, regardless of which plugin
// discovered it.
type LastRelease struct {
	Version  Version
	Revision RevisionId
	Found    bool
}

// Parse decodes a string such as "1.2.3" or "v1.2.3-rc.1" into a Version.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	m := versionPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Version{}, fmt.Errorf("invalid semantic version %q", s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch, Pre: m[4]}, nil
}

// String renders the canonical "MAJOR.MINOR.PATCH[-PRE]" form.
func (v Version) String() string {
	base := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		return base + "-" + v.Pre
	}
	return base
}

// Compare returns -1, 0, or 1: numeric fields compare first, then a version
// without a pre-release outranks one with. Two pre-release tags compare as
// plain strings, not by dot-separated identifiers, so "rc.10" sorts before
// "rc.2".
func (v Version) Compare(other Version) int {
	if d := compareInt(v.Major, other.Major); d != 0 {
		return d
	}
	if d := compareInt(v.Minor, other.Minor); d != 0 {
		return d
	}
	if d := compareInt(v.Patch, other.Patch); d != 0 {
		return d
	}
	return comparePre(v.Pre, other.Pre)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func comparePre(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1 // no pre-release outranks a pre-release
	}
	if b == "" {
		return -1
	}
	return strings.Compare(a, b)
}
