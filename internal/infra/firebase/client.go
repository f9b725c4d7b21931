package firebase

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	scopeDatabase = "https://www.googleapis.com/auth/firebase.database"
	scopeEmail    = "https://www.googleapis.com/auth/userinfo.email"
)

// Client wraps the Firebase Admin SDK for realtime-database writes. Change
// listening is not part of the Go admin SDK, so the listener half speaks the
// database's REST streaming protocol directly (see listener.go) using the
// same service-account credentials.
type Client struct {
	db          *db.Client
	databaseURL string
	tokens      oauth2.TokenSource
	httpClient  *http.Client
}

func NewClient(ctx context.Context, credentialsFile, databaseURL string) (*Client, error) {
	app, err := firebase.NewApp(ctx,
		&firebase.Config{DatabaseURL: databaseURL},
		option.WithCredentialsFile(credentialsFile),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing database client: %w", err)
	}

	credJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, credJSON, scopeDatabase, scopeEmail)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	return &Client{
		db:          dbClient,
		databaseURL: strings.TrimRight(databaseURL, "/"),
		tokens:      creds.TokenSource,
		httpClient:  &http.Client{Timeout: 0},
	}, nil
}

// Update merges values into the record at path; absent fields keep their
// stored values.
func (c *Client) Update(ctx context.Context, path string, values map[string]any) error {
	if err := c.db.NewRef(path).Update(ctx, values); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	return nil
}

// Set overwrites the value at path.
func (c *Client) Set(ctx context.Context, path string, value any) error {
	if err := c.db.NewRef(path).Set(ctx, value); err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	return nil
}

// Push appends value as a new child of path and returns the store-assigned
// id.
func (c *Client) Push(ctx context.Context, path string, value any) (string, error) {
	ref, err := c.db.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", fmt.Errorf("pushing to %s: %w", path, err)
	}
	return ref.Key, nil
}

func (c *Client) accessToken() (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}
	return token.AccessToken, nil
}
