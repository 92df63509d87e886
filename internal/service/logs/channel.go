package logs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// Channel is a destination for structured log lines.
type Channel interface {
	Write(message string, context map[string]any) error
}

// Publisher receives every entry a FileChannel writes, keyed by channel name.
type Publisher interface {
	Broadcast(topic string, payload []byte)
}

// Channel drivers, mirroring the daily and single file handlers.
const (
	DriverDaily  = "daily"
	DriverSingle = "single"
)

// FileChannel appends lines to <dir>/<name>-YYYY-MM-DD.log (daily driver) or
// <dir>/<name>.log (single driver).
type FileChannel struct {
	mu         sync.Mutex
	dir        string
	name       string
	env        string
	driver     string
	retention  int
	loc        *time.Location
	now        func() time.Time
	publisher  Publisher
	datedFile  *regexp.Regexp
	lastPruned string
}

// ChannelOption customises a FileChannel.
type ChannelOption func(*FileChannel)

// WithDriver selects DriverDaily or DriverSingle. Unknown values keep the default.
func WithDriver(driver string) ChannelOption {
	return func(c *FileChannel) {
		if driver == DriverDaily || driver == DriverSingle {
			c.driver = driver
		}
	}
}

// WithRetention keeps at most days of dated files. Zero disables pruning.
func WithRetention(days int) ChannelOption {
	return func(c *FileChannel) {
		if days >= 0 {
			c.retention = days
		}
	}
}

// WithChannelLocation sets the timezone used for file dates and line datetimes.
func WithChannelLocation(loc *time.Location) ChannelOption {
	return func(c *FileChannel) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithChannelClock overrides time.Now.
func WithChannelClock(now func() time.Time) ChannelOption {
	return func(c *FileChannel) {
		if now != nil {
			c.now = now
		}
	}
}

// WithPublisher streams each written entry to p.
func WithPublisher(p Publisher) ChannelOption {
	return func(c *FileChannel) {
		c.publisher = p
	}
}

// NewFileChannel builds a channel writing under dir. env is the environment
// segment written before the level (for example "production").
func NewFileChannel(dir, name, env string, opts ...ChannelOption) *FileChannel {
	c := &FileChannel{
		dir:       dir,
		name:      name,
		env:       env,
		driver:    DriverDaily,
		retention: 14,
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.datedFile = datedFilePattern(name)
	return c
}

// Path returns the file a line written at t lands in.
func (c *FileChannel) Path(t time.Time) string {
	if c.driver == DriverSingle {
		return filepath.Join(c.dir, c.name+".log")
	}
	return filepath.Join(c.dir, fmt.Sprintf("%s-%s.log", c.name, t.In(c.loc).Format(dateLayout)))
}

// Write appends one info line.
func (c *FileChannel) Write(message string, context map[string]any) error {
	now := c.now().In(c.loc)
	line, err := FormatLine(now, c.env, "info", message, context)
	if err != nil {
		return fmt.Errorf("format line: %w", err)
	}

	c.mu.Lock()
	err = c.appendLine(now, line)
	if err == nil {
		c.pruneLocked(now)
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.publish(line, now)
	return nil
}

func (c *FileChannel) appendLine(now time.Time, line string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(c.Path(now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write log line: %w", err)
	}
	return f.Close()
}

// pruneLocked removes dated files older than the retention window, once per day.
func (c *FileChannel) pruneLocked(now time.Time) {
	if c.driver != DriverDaily || c.retention <= 0 {
		return
	}
	today := now.Format(dateLayout)
	if c.lastPruned == today {
		return
	}
	c.lastPruned = today

	cutoff := startOfDay(now).AddDate(0, 0, -(c.retention - 1))
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := c.datedFile.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		day, err := time.ParseInLocation(dateLayout, m[1], c.loc)
		if err != nil || !day.Before(cutoff) {
			continue
		}
		_ = os.Remove(filepath.Join(c.dir, entry.Name()))
	}
}

func (c *FileChannel) publish(line string, now time.Time) {
	if c.publisher == nil {
		return
	}
	entry, err := ParseLine(line, now.Format(dateLayout), c.loc)
	if err != nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.publisher.Broadcast(c.name, payload)
}

func datedFilePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `-(\d{4}-\d{2}-\d{2})\.log$`)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
