package identity

import "context"

// RemoteUser is an account as returned by the identity provider, before
// reshaping. Timestamps are the provider's raw values.
type RemoteUser struct {
	UID           string
	Email         string
	DisplayName   string
	PhoneNumber   string
	PhotoURL      string
	EmailVerified bool
	Disabled      bool
	CustomClaims  map[string]any
	CreatedAt     string
	LastLoginAt   string
}

// Provider is the slice of the identity provider's admin API the service needs.
type Provider interface {
	ProjectID() string
	// Ping performs a cheap authenticated call.
	Ping(ctx context.Context) error
	// ListUsers returns one page of users and the token of the next page,
	// empty when there are no more pages.
	ListUsers(ctx context.Context, pageToken string) ([]RemoteUser, string, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
}

// Unavailable returns a Provider that fails every call with err. It stands in
// when the real provider cannot be constructed at startup.
func Unavailable(err error) Provider {
	return unavailableProvider{err: err}
}

type unavailableProvider struct {
	err error
}

func (p unavailableProvider) ProjectID() string { return "" }

func (p unavailableProvider) Ping(context.Context) error { return p.err }

func (p unavailableProvider) ListUsers(context.Context, string) ([]RemoteUser, string, error) {
	return nil, "", p.err
}

func (p unavailableProvider) SetCustomClaims(context.Context, string, map[string]any) error {
	return p.err
}
