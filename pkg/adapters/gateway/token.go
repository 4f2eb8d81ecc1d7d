package gateway

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	tokenSubject = "linkvault"
	tokenTTL     = time.Hour
)

// secretSource mints short-lived HS256 tokens from the shared API secret.
type secretSource struct {
	secret []byte
	now    func() time.Time
}

func (s *secretSource) Token() (*oauth2.Token, error) {
	now := s.now()
	expiry := now.Add(tokenTTL)
	claims := &jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: signed, TokenType: "Bearer", Expiry: expiry}, nil
}

// NewTokenSource returns a caching source of bearer tokens signed with secret.
func NewTokenSource(secret string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &secretSource{secret: []byte(secret), now: time.Now})
}

// AuthTransport wraps base so every request carries a bearer token. An empty
// secret means the endpoint runs without auth and base is returned as is.
func AuthTransport(secret string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if secret == "" {
		return base
	}
	return &oauth2.Transport{Source: NewTokenSource(secret), Base: base}
}

// NewHTTPClient is the client the page uses for the endpoint.
func NewHTTPClient(secret string, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: AuthTransport(secret, base)}
}
