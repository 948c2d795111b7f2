package models

// RunResult is the response body of a triggered run.
type RunResult struct {
	RunID      string  `json:"runId"`
	Outcome    string  `json:"outcome"`
	Quality    string  `json:"quality,omitempty"`
	Delivered  bool    `json:"delivered"`
	DurationMs int64   `json:"durationMs"`
	Error      *string `json:"error,omitempty"`
}
