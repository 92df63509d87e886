package logs

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/steeven-js/madinia-cyber/internal/domain"
)

// GrammarVersion identifies the line format shared by FileChannel and the
// reader. Bump it together with LinePattern and FormatLine.
const GrammarVersion = 1

// LinePattern is the version 1 line grammar:
//
//	[<datetime>] <channel>.<LEVEL>: <message>[ <json object>][ []]
//
// Capture groups: datetime, level, body. The body is split by splitBody: the
// context is the longest trailing "{...}" that decodes as a JSON object, and a
// trailing "[]" is the empty "extra" block some writers append.
const LinePattern = `^\[([^\]]+)\] \S*?\.(\w*): ?(.*)$`

const (
	// DatetimeLayout is the datetime written by FormatLine.
	DatetimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
	defaultLevel   = "INFO"
)

var (
	lineRe = regexp.MustCompile(LinePattern)

	// zoneless layouts are interpreted in the service location
	zonelessLayouts = []string{
		DatetimeLayout,
		"2006-01-02 15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999",
	}
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999Z07:00",
		"2006-01-02 15:04:05 Z07:00",
	}

	errNoMatch      = errors.New("logs: line does not match grammar")
	errBadTimestamp = errors.New("logs: unparseable datetime")
)

// ParseLine converts one log line into an entry dated with the owning file's
// calendar date. Lines outside the grammar return errNoMatch; lines whose
// datetime cannot be read return errBadTimestamp.
func ParseLine(line, date string, loc *time.Location) (domain.LogEntry, error) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return domain.LogEntry{}, errNoMatch
	}
	datetime := strings.TrimSpace(m[1])
	ts, err := parseDatetime(datetime, loc)
	if err != nil {
		return domain.LogEntry{}, errBadTimestamp
	}
	message, context := splitBody(m[3])
	level := m[2]
	if level == "" {
		level = defaultLevel
	}
	return domain.LogEntry{
		Timestamp: ts.Unix(),
		Datetime:  datetime,
		Level:     strings.ToLower(level),
		Message:   message,
		Context:   context,
		Date:      date,
		Raw:       line,
	}, nil
}

// FormatLine renders an entry the way ParseLine expects to read it back.
// Newlines in the message are flattened so one entry stays on one line, and a
// context block is always written ("{}" when empty) so it is the final segment.
func FormatLine(at time.Time, env, level, message string, context map[string]any) (string, error) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(at.Format(DatetimeLayout))
	b.WriteString("] ")
	b.WriteString(env)
	b.WriteString(".")
	b.WriteString(strings.ToUpper(level))
	b.WriteString(": ")
	b.WriteString(flatten(message))
	b.WriteString(" ")
	if len(context) == 0 {
		b.WriteString("{}")
		return b.String(), nil
	}
	data, err := json.Marshal(context)
	if err != nil {
		return "", err
	}
	b.Write(data)
	return b.String(), nil
}

func parseDatetime(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadTimestamp
}

const emptyBlock = "[]"

// splitBody separates the message from its trailing context. Without a
// decodable trailing object the whole body is the message and the context is {}.
func splitBody(body string) (string, map[string]any) {
	body = strings.TrimRightFunc(body, unicode.IsSpace)
	body = trimBlock(body)
	if strings.HasSuffix(body, "}") {
		if message, context, ok := trailingObject(body); ok {
			return message, context
		}
	}
	if trimmed := trimBlock(body); trimmed != body {
		return trimmed, map[string]any{}
	}
	return body, map[string]any{}
}

// trailingObject tries each "{" that starts the body or follows a space, left
// to right, so the first suffix that decodes is the longest one.
func trailingObject(body string) (string, map[string]any, bool) {
	for i := 0; i < len(body); i++ {
		if body[i] != '{' || (i > 0 && body[i-1] != ' ') {
			continue
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(body[i:]), &decoded); err != nil || decoded == nil {
			continue
		}
		return strings.TrimRight(body[:i], " "), decoded, true
	}
	return "", nil, false
}

// trimBlock drops one trailing " []".
func trimBlock(body string) string {
	if body == emptyBlock {
		return ""
	}
	if strings.HasSuffix(body, " "+emptyBlock) {
		return strings.TrimSuffix(body, " "+emptyBlock)
	}
	return body
}

func flatten(message string) string {
	if !strings.ContainsAny(message, "\r\n") {
		return message
	}
	replacer := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
	return replacer.Replace(message)
}
