package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/steeven-js/madinia-cyber/internal/domain"
	"github.com/steeven-js/madinia-cyber/pkg/config"
)

// metadataLayout is the shape user metadata dates are returned in.
const metadataLayout = "2006-01-02 15:04:05"

var (
	ErrMissingUID      = errors.New("uid is required")
	ErrInvalidRole     = errors.New("role must be one of super_admin, admin, user")
	ErrProvider        = errors.New("identity provider request failed")
	ErrProviderTimeout = errors.New("identity provider timed out")
)

// EventLogger records operator-visible events; logs.Service satisfies it.
type EventLogger interface {
	Log(message string, fields map[string]any)
}

// ConnectionResult describes a connectivity check.
type ConnectionResult struct {
	OK        bool      `json:"success"`
	Message   string    `json:"message"`
	ProjectID string    `json:"projectId"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// RoleResult describes a role assignment.
type RoleResult struct {
	OK      bool   `json:"success"`
	Message string `json:"message"`
	UID     string `json:"uid,omitempty"`
	Role    string `json:"role,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Service exposes the identity provider's admin operations to operators.
type Service struct {
	provider Provider
	events   EventLogger
	logger   *slog.Logger
	timeout  time.Duration
	maxUsers int
	loc      *time.Location
	now      func() time.Time
}

// New constructs an identity service.
func New(provider Provider, events EventLogger, logger *slog.Logger, cfg config.APIConfig) Service {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.FirebaseTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxUsers := cfg.FirebaseMaxUsers
	if maxUsers <= 0 {
		maxUsers = 1000
	}
	return Service{
		provider: provider,
		events:   events,
		logger:   logger,
		timeout:  timeout,
		maxUsers: maxUsers,
		loc:      cfg.Location(),
		now:      time.Now,
	}
}

// TestConnection checks that the provider accepts our credentials. It never
// fails; the outcome is carried in the result.
func (s Service) TestConnection(ctx context.Context) ConnectionResult {
	projectID := s.provider.ProjectID()
	if projectID == "" {
		projectID = "unknown"
	}
	result := ConnectionResult{ProjectID: projectID}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.provider.Ping(callCtx)
	cancel()
	result.CheckedAt = s.now().UTC()
	if err != nil {
		err = s.remoteError(err)
		s.logger.Warn("identity provider unreachable", "project", projectID, "error", err)
		result.Message = "Firebase connection failed"
		result.Error = err.Error()
		return result
	}
	result.OK = true
	result.Message = "Firebase connection successful"
	return result
}

// ListUsers returns every account up to the configured maximum.
func (s Service) ListUsers(ctx context.Context) ([]domain.AuthUser, error) {
	users := make([]domain.AuthUser, 0)
	token := ""
	for len(users) < s.maxUsers {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		page, next, err := s.provider.ListUsers(callCtx, token)
		cancel()
		if err != nil {
			err = s.remoteError(err)
			s.logger.Warn("list users failed", "error", err)
			return nil, err
		}
		for _, remote := range page {
			if len(users) == s.maxUsers {
				break
			}
			users = append(users, s.reshape(remote))
		}
		if next == "" || next == token {
			break
		}
		token = next
	}
	return users, nil
}

// SetUserRole replaces uid's custom claims with {"role": role}. Input is
// validated before the provider is contacted.
func (s Service) SetUserRole(ctx context.Context, uid, role string) (RoleResult, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return RoleResult{Message: "Invalid role assignment", Error: ErrMissingUID.Error()}, ErrMissingUID
	}
	parsed, ok := domain.ParseRole(role)
	if !ok {
		return RoleResult{Message: "Invalid role assignment", Error: ErrInvalidRole.Error()}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.provider.SetCustomClaims(callCtx, uid, map[string]any{"role": string(parsed)})
	cancel()
	if err != nil {
		err = s.remoteError(err)
		s.logger.Warn("set role failed", "uid", uid, "role", parsed, "error", err)
		s.record("Firebase role assignment failed", map[string]any{"uid": uid, "role": string(parsed), "error": err.Error()})
		return RoleResult{Message: "Failed to assign role", UID: uid, Role: string(parsed), Error: err.Error()}, err
	}

	s.record("Firebase role assigned", map[string]any{"uid": uid, "role": string(parsed)})
	return RoleResult{
		OK:      true,
		Message: fmt.Sprintf("Role %s assigned to user", parsed),
		UID:     uid,
		Role:    string(parsed),
	}, nil
}

func (s Service) record(message string, fields map[string]any) {
	if s.events != nil {
		s.events.Log(message, fields)
	}
}

func (s Service) remoteError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrProviderTimeout, s.timeout, err)
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}

func (s Service) reshape(remote RemoteUser) domain.AuthUser {
	user := domain.AuthUser{
		UID:           remote.UID,
		Email:         optional(remote.Email),
		DisplayName:   optional(remote.DisplayName),
		PhoneNumber:   optional(remote.PhoneNumber),
		PhotoURL:      optional(remote.PhotoURL),
		EmailVerified: remote.EmailVerified,
		Disabled:      remote.Disabled,
		Metadata: domain.UserMetadata{
			CreatedAt:   s.formatDate(remote.CreatedAt),
			LastLoginAt: s.formatDate(remote.LastLoginAt),
		},
	}
	if raw, ok := remote.CustomClaims["role"].(string); ok {
		if role, ok := domain.ParseRole(raw); ok {
			user.Role = &role
		}
	}
	return user
}

// formatDate normalizes a provider timestamp. Unreadable values are passed
// through unchanged; empty values become nil.
func (s Service) formatDate(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, ok := parseProviderTime(raw)
	if !ok {
		return &raw
	}
	formatted := t.In(s.loc).Format(metadataLayout)
	return &formatted
}

func parseProviderTime(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC1123, time.RFC1123Z, metadataLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
		// 12+ digits can only be milliseconds for any date after 1973.
		if len(raw) >= 12 {
			return time.UnixMilli(n), true
		}
		return time.Unix(n, 0), true
	}
	return time.Time{}, false
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
