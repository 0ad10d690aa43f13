package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing token, invalid source)
	ExitDataError   = 3 // Data error (unrecognized identifier, paper not found)
)
