package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	clientapi "github.com/wordbase/wordbase/internal/client/api"
	"github.com/wordbase/wordbase/internal/client/storage"
	"github.com/wordbase/wordbase/pkg/api"
)

// accessToken returns a valid access token, refreshing the session
// when the stored one has expired.
func accessToken(ctx context.Context, client *clientapi.Client, store storage.AuthStorage) (string, error) {
	auth, err := store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return "", errors.New("not logged in, run 'wordbase login' first")
		}
		return "", err
	}

	if time.Now().UnixMilli() < auth.ExpiresAt {
		return auth.AccessToken, nil
	}

	resp, err := client.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		if clientapi.IsUnauthorized(err) {
			return "", errors.New("session expired, run 'wordbase login' again")
		}
		return "", fmt.Errorf("failed to refresh session: %w", err)
	}

	if err := store.SaveAuth(ctx, sessionFromAuth(auth.Email, resp)); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return resp.AccessToken, nil
}

// sessionFromAuth converts a token response into persisted session
// state. The expiry is shortened slightly so a token is refreshed
// before the server would reject it.
func sessionFromAuth(email string, resp *api.AuthResponse) *storage.AuthData {
	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - 30*time.Second)

	return &storage.AuthData{
		Email:        email,
		UserID:       resp.UserID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt.UnixMilli(),
	}
}

// readPassword prompts for a password without echoing it.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
