package common

import "golang.org/x/oauth2"

// AuthClient defines the ability to refresh an OAuth2 token.
// The Giftify backend sits behind a standard bearer-token scheme; when a
// request comes back 401/403 the client asks this interface for a fresh
// token and retries once.
type AuthClient interface {
	// RefreshToken attempts to refresh using the given refresh token string.
	// Returns a new *oauth2.Token on success, or an error if refresh fails.
	RefreshToken(refreshToken string) (*oauth2.Token, error)
}
