package ir

// Version constants for the command log and binary.
const (
	// LogVersion is the command log payload version.
	LogVersion = "1"

	// Version is the diary version reported by the CLI and MCP server.
	Version = "0.1.0"
)
