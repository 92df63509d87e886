package domain

// LogEntry is one parsed line of a channel log file. Entries are built per
// request and never stored.
type LogEntry struct {
	Timestamp int64          `json:"timestamp"`
	Datetime  string         `json:"datetime"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Date      string         `json:"date"`
	Raw       string         `json:"raw"`
}
