package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// firebasePageSize is the Firebase Auth maximum for one listUsers page.
const firebasePageSize = 1000

// ErrMissingCredentials is returned when no service-account file is configured.
var ErrMissingCredentials = errors.New("FIREBASE_CREDENTIALS is not configured")

// FirebaseProvider implements Provider on the Firebase Admin SDK.
type FirebaseProvider struct {
	client    *auth.Client
	projectID string
}

// NewFirebaseProvider authenticates with the service account at credentialsPath.
// projectID overrides the project_id found in the credentials file.
func NewFirebaseProvider(ctx context.Context, credentialsPath, projectID string) (*FirebaseProvider, error) {
	credentialsPath = strings.TrimSpace(credentialsPath)
	if credentialsPath == "" {
		return nil, ErrMissingCredentials
	}
	if strings.TrimSpace(projectID) == "" {
		id, err := readProjectID(credentialsPath)
		if err != nil {
			return nil, err
		}
		projectID = id
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firebase auth client: %w", err)
	}
	return &FirebaseProvider{client: client, projectID: projectID}, nil
}

// ProjectID returns the Firebase project the client is bound to.
func (p *FirebaseProvider) ProjectID() string {
	return p.projectID
}

// Ping fetches a single-user page.
func (p *FirebaseProvider) Ping(ctx context.Context) error {
	pager := iterator.NewPager(p.client.Users(ctx, ""), 1, "")
	var records []*auth.ExportedUserRecord
	_, err := pager.NextPage(&records)
	return err
}

// ListUsers fetches one page of users.
func (p *FirebaseProvider) ListUsers(ctx context.Context, pageToken string) ([]RemoteUser, string, error) {
	pager := iterator.NewPager(p.client.Users(ctx, ""), firebasePageSize, pageToken)
	var records []*auth.ExportedUserRecord
	next, err := pager.NextPage(&records)
	if err != nil {
		return nil, "", err
	}
	users := make([]RemoteUser, 0, len(records))
	for _, record := range records {
		if record == nil || record.UserRecord == nil {
			continue
		}
		users = append(users, fromFirebase(record.UserRecord))
	}
	return users, next, nil
}

// SetCustomClaims replaces the user's custom claims.
func (p *FirebaseProvider) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	return p.client.SetCustomUserClaims(ctx, uid, claims)
}

func fromFirebase(record *auth.UserRecord) RemoteUser {
	user := RemoteUser{
		EmailVerified: record.EmailVerified,
		Disabled:      record.Disabled,
		CustomClaims:  record.CustomClaims,
	}
	if record.UserInfo != nil {
		user.UID = record.UID
		user.Email = record.Email
		user.DisplayName = record.DisplayName
		user.PhoneNumber = record.PhoneNumber
		user.PhotoURL = record.PhotoURL
	}
	if record.UserMetadata != nil {
		user.CreatedAt = millisToRFC3339(record.UserMetadata.CreationTimestamp)
		user.LastLoginAt = millisToRFC3339(record.UserMetadata.LastLogInTimestamp)
	}
	return user
}

func millisToRFC3339(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func readProjectID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read firebase credentials: %w", err)
	}
	var account struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &account); err != nil {
		return "", fmt.Errorf("decode firebase credentials: %w", err)
	}
	return account.ProjectID, nil
}
