// Package backend connects the process to the Firebase project: one auth
// client and one Firestore client shared by everything that needs them.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"guffcircle/internal/config"
	"guffcircle/internal/session"
)

// TokenVerifier checks Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Backend is the configured handle pair.
type Backend struct {
	App  *firebase.App
	DB   *firestore.Client
	Auth *auth.Client
}

// AppConfig maps the credentials record onto the SDK configuration.
func AppConfig(creds config.Credentials) *firebase.Config {
	return &firebase.Config{
		ProjectID:     creds.ProjectID,
		StorageBucket: creds.StorageBucket,
	}
}

// Connect builds the auth and Firestore clients. Errors come from the SDK.
func Connect(ctx context.Context, creds config.Credentials, opts ...option.ClientOption) (*Backend, error) {
	app, err := firebase.NewApp(ctx, AppConfig(creds), opts...)
	if err != nil {
		return nil, fmt.Errorf("backend: init app: %w", err)
	}
	db, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("backend: firestore: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("backend: auth: %w", err)
	}
	return &Backend{App: app, DB: db, Auth: authClient}, nil
}

// Close releases the Firestore connection.
func (b *Backend) Close() error {
	if b == nil || b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

var (
	defaultOnce sync.Once
	defaultB    *Backend
	defaultErr  error

	connect = Connect
)

// Default returns the process-wide backend, connecting on first use. Later
// calls return the first result, including its error.
func Default(ctx context.Context, creds config.Credentials, opts ...option.ClientOption) (*Backend, error) {
	defaultOnce.Do(func() {
		defaultB, defaultErr = connect(ctx, creds, opts...)
	})
	return defaultB, defaultErr
}

var ErrNoEmail = errors.New("backend: token has no email claim")

// UserFromToken extracts the session user from a verified token.
func UserFromToken(tok *auth.Token) (session.User, error) {
	if tok == nil {
		return session.User{}, errors.New("backend: nil token")
	}
	email, _ := tok.Claims["email"].(string)
	if email == "" {
		return session.User{UID: tok.UID}, ErrNoEmail
	}
	return session.User{UID: tok.UID, Email: email}, nil
}
