package errx

// Reason codes carried by tool results and dispatch failures. Tools report
// failure as data (ok=false plus one of these codes) so a single bad call
// never aborts the turn.
const (
	ReasonTimeout     = "timeout"
	ReasonCircuitOpen = "circuit_open"
	ReasonRateLimited = "rate_limited"
	ReasonUnavailable = "unavailable"
	ReasonNotFound    = "not_found"
	ReasonBadArgs     = "bad_args"
	ReasonUnknownTool = "unknown_tool"
	ReasonException   = "exception"
)
