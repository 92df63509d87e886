package logs

import (
	"sort"
	"strings"

	"github.com/steeven-js/madinia-cyber/internal/domain"
)

// Query narrows an already loaded entry list.
type Query struct {
	// Level matches entries case-insensitively; empty or "all" keeps every level.
	Level string
	// Search is a case-insensitive substring of the message or raw line.
	Search string
}

// Filter returns the entries matching q, preserving order.
func Filter(entries []domain.LogEntry, q Query) []domain.LogEntry {
	level := strings.ToLower(strings.TrimSpace(q.Level))
	if level == "all" {
		level = ""
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	if level == "" && search == "" {
		return entries
	}
	out := make([]domain.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if level != "" && entry.Level != level {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(entry.Message), search) &&
			!strings.Contains(strings.ToLower(entry.Raw), search) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Levels lists the distinct levels present in entries, sorted.
func Levels(entries []domain.LogEntry) []string {
	seen := make(map[string]struct{})
	for _, entry := range entries {
		seen[entry.Level] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for level := range seen {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}
