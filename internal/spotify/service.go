// Package spotify wraps the Spotify accounts and player APIs: it keeps one
// token record per session in the database, refreshes expired access tokens
// through the accounts token endpoint, and proxies playback commands.
package spotify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/npezzotti/go-musicroom/internal/config"
	"github.com/npezzotti/go-musicroom/internal/database"
	"golang.org/x/oauth2"
)

// ErrNotAuthenticated is returned when no token record exists for a session.
var ErrNotAuthenticated = errors.New("no spotify token for session")

// timeNow is swapped out in tests that exercise expiry handling.
var timeNow = time.Now

type AuthStatus int

const (
	StatusNotAuthenticated AuthStatus = iota
	StatusAuthenticated
	StatusRefreshFailed
)

func (s AuthStatus) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshFailed:
		return "refresh_failed"
	default:
		return "not_authenticated"
	}
}

var playerScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
}

type Service struct {
	log        *log.Logger
	db         database.MusicroomRepository
	conf       *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

func NewService(logger *log.Logger, db database.MusicroomRepository, cfg *config.Config) *Service {
	return &Service{
		log: logger,
		db:  db,
		conf: &oauth2.Config{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RedirectURL:  cfg.SpotifyRedirectURL,
			Scopes:       playerScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.SpotifyAuthURL,
				TokenURL: cfg.SpotifyTokenURL,
			},
		},
		apiBaseURL: cfg.SpotifyAPIURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// AuthURL returns the accounts authorize URL the browser is sent to.
func (s *Service) AuthURL(state string) string {
	return s.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens and stores them for the
// session.
func (s *Service) Exchange(ctx context.Context, sessionId, code string) error {
	tok, err := s.conf.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}

	if err := s.saveToken(sessionId, tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	return nil
}

// Status reports whether the session holds usable Spotify credentials,
// refreshing the access token first if it has expired. A failed refresh is
// reported as StatusRefreshFailed together with the refresh error rather
// than being treated as authenticated.
func (s *Service) Status(ctx context.Context, sessionId string) (AuthStatus, error) {
	tok, err := s.db.GetTokensBySessionId(sessionId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StatusNotAuthenticated, nil
		}
		return StatusNotAuthenticated, err
	}

	if tok.ExpiresAt.Before(timeNow()) {
		if err := s.Refresh(ctx, sessionId); err != nil {
			return StatusRefreshFailed, err
		}
	}

	return StatusAuthenticated, nil
}

// Refresh exchanges the stored refresh token for a new access token and
// updates the session's record. The stored refresh token is kept when the
// provider does not return a new one.
func (s *Service) Refresh(ctx context.Context, sessionId string) error {
	rec, err := s.db.GetTokensBySessionId(sessionId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotAuthenticated
		}
		return err
	}

	// TokenSource issues the grant_type=refresh_token POST on demand.
	ts := s.conf.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: rec.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	if tok.RefreshToken == "" {
		tok.RefreshToken = rec.RefreshToken
	}

	if err := s.saveToken(sessionId, tok); err != nil {
		return fmt.Errorf("save refreshed token: %w", err)
	}

	return nil
}

func (s *Service) saveToken(sessionId string, tok *oauth2.Token) error {
	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		if prev, err := s.db.GetTokensBySessionId(sessionId); err == nil {
			refreshToken = prev.RefreshToken
		}
	}

	_, err := s.db.UpsertTokens(database.UpsertTokenParams{
		SessionId:    sessionId,
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry.UTC(),
	})

	return err
}

// clientContext routes oauth2's token-endpoint calls through the service's
// HTTP client so they share its timeout.
func (s *Service) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}
