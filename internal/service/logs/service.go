package logs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/steeven-js/madinia-cyber/internal/domain"
)

// ErrInvalidDays is returned when the day window is not a positive integer.
var ErrInvalidDays = errors.New("days must be a positive integer")

// Service reads a channel's rotated log files and writes new entries to it.
type Service struct {
	dir       string
	prefix    string
	channel   Channel
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	datedFile *regexp.Regexp
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the timezone used for day windows and zoneless datetimes.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New constructs a log service over dir for files named prefix*.log. Writes go
// to channel; write failures are reported to logger.
func New(dir, prefix string, channel Channel, logger *slog.Logger, opts ...Option) Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := Service{
		dir:     dir,
		prefix:  prefix,
		channel: channel,
		logger:  logger,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.datedFile = datedFilePattern(prefix)
	return s
}

// Channel returns the channel name served by this service.
func (s Service) Channel() string {
	return s.prefix
}

// Log appends an info entry to the channel. It never fails: errors and panics
// from the channel are reported to the service logger instead.
func (s Service) Log(message string, fields map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("log channel panicked", "channel", s.prefix, "panic", r, "message", message)
		}
	}()
	if s.channel == nil {
		s.logger.Warn("log channel not configured", "channel", s.prefix, "message", message)
		return
	}
	if err := s.channel.Write(message, fields); err != nil {
		s.logger.Error("log channel write failed", "channel", s.prefix, "error", err, "message", message)
	}
}

type logFile struct {
	path    string
	name    string
	modTime time.Time
}

// GetLogs returns every entry from files dated within the last days days,
// newest first. A missing directory yields an empty result.
func (s Service) GetLogs(ctx context.Context, days int) ([]domain.LogEntry, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	today := startOfDay(s.now().In(s.loc))
	dateLimit := today.AddDate(0, 0, -days)

	entries := make([]domain.LogEntry, 0)
	files, err := s.files()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("log directory unreadable", "dir", s.dir, "error", err)
		}
		return entries, nil
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileDate := s.fileDate(file)
		if fileDate.Before(dateLimit) || fileDate.After(today) {
			continue
		}
		data, err := os.ReadFile(file.path)
		if err != nil {
			s.logger.Warn("log file unreadable", "file", file.name, "error", err)
			continue
		}
		parsed, dropped := parseContent(string(data), fileDate.Format(dateLayout), s.loc)
		if dropped > 0 {
			s.logger.Debug("log lines dropped", "file", file.name, "count", dropped)
		}
		entries = append(entries, parsed...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

func (s Service) files() ([]logFile, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	files := make([]logFile, 0, len(dirEntries))
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, s.prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{
			path:    filepath.Join(s.dir, name),
			name:    name,
			modTime: info.ModTime(),
		})
	}
	return files, nil
}

// fileDate prefers the date embedded in the name and falls back to mtime.
func (s Service) fileDate(file logFile) time.Time {
	if m := s.datedFile.FindStringSubmatch(file.name); m != nil {
		if day, err := time.ParseInLocation(dateLayout, m[1], s.loc); err == nil {
			return day
		}
	}
	return startOfDay(file.modTime.In(s.loc))
}

// parseContent returns the entries of one file and how many non-blank lines
// were dropped, either for not matching the grammar or for an unreadable datetime.
func parseContent(content, date string, loc *time.Location) ([]domain.LogEntry, int) {
	lines := strings.Split(content, "\n")
	entries := make([]domain.LogEntry, 0, len(lines))
	dropped := 0
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseLine(line, date, loc)
		if err != nil {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, dropped
}
