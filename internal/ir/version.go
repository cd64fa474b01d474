package ir

// Version constants for the IR shape and the lowering engine.
const (
	// IRVersion is the IR shape version. Bump when any per-construct output
	// shape changes, since cached lowerings are keyed by it.
	IRVersion = "1"

	// EngineVersion is the unwind engine version.
	EngineVersion = "0.1.0"
)
