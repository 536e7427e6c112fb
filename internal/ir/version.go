package ir

// Version constants for the presentation format and the engine.
const (
	// FormatVersion is the presentation file format version.
	FormatVersion = "1"

	// EngineVersion is the semirace engine version.
	EngineVersion = "0.1.0"
)
