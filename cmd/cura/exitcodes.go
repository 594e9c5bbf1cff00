package main

// Exit codes used across all commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing project, invalid paths)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitConflict    = 4 // Local edits pending, refresh refused
	ExitRemoteError = 5 // Persistence API unavailable or rejected the request
)
