package protocol

// ProtocolVersion is the engine's current protocol revision, carried as the
// hashicorp/go-plugin CoreProtocolVersion during handshake.
const ProtocolVersion = 1

// MinSupportedVersion and MaxSupportedVersion bound the compatibility
// window: the engine refuses to dispense a plugin whose advertised version
// falls outside this inclusive range.
const (
	MinSupportedVersion = 1
	MaxSupportedVersion = 1
)

// CompatibilityWindow reports whether version is acceptable to this engine.
func CompatibilityWindow(version int) bool {
	return version >= MinSupportedVersion && version <= MaxSupportedVersion
}
