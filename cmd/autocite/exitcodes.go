package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config file or values)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitAPIError    = 4 // Remote API error (network, rate limit, server)
	ExitAuthError   = 5 // Semantic Scholar rejected the request (API key)
	ExitNotFound    = 6 // Requested work not found
)
