package spotify

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// PlayerService is what the HTTP layer needs from this package.
type PlayerService interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, sessionId, code string) error
	Status(ctx context.Context, sessionId string) (AuthStatus, error)
	Refresh(ctx context.Context, sessionId string) error
	Play(ctx context.Context, sessionId, songId string) error
	Pause(ctx context.Context, sessionId string) error
	Skip(ctx context.Context, sessionId string) error
	CurrentlyPlaying(ctx context.Context, sessionId string) (*PlaybackState, error)
}

// APIError is a non-2xx reply from the player API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api: status %d: %s", e.StatusCode, e.Body)
}

// PlaybackState is the trimmed view of player/currently-playing the handlers
// expose to clients.
type PlaybackState struct {
	SongId    string
	Title     string
	Artist    string
	ImageURL  string
	Duration  int
	Progress  int
	IsPlaying bool
}

type currentlyPlayingResponse struct {
	ProgressMs int  `json:"progress_ms"`
	IsPlaying  bool `json:"is_playing"`
	Item       struct {
		Id         string `json:"id"`
		Name       string `json:"name"`
		DurationMs int    `json:"duration_ms"`
		Artists    []struct {
			Name string `json:"name"`
		} `json:"artists"`
		Album struct {
			Images []struct {
				URL string `json:"url"`
			} `json:"images"`
		} `json:"album"`
	} `json:"item"`
}

// executeRequest issues a bearer-authenticated call to the player API using
// the session's stored access token. Callers are expected to have checked
// Status first; a missing token surfaces as ErrNotAuthenticated.
func (s *Service) executeRequest(ctx context.Context, sessionId, method, endpoint string, body any) (*http.Response, error) {
	tok, err := s.db.GetTokensBySessionId(sessionId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	reqBody := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiBaseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}

// playerCommand runs a bodyless-response player mutation (play, pause, next).
func (s *Service) playerCommand(ctx context.Context, sessionId, method, endpoint string, body any) error {
	resp, err := s.executeRequest(ctx, sessionId, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}

	return nil
}

// Play resumes playback, or starts the given track when songId is set.
func (s *Service) Play(ctx context.Context, sessionId, songId string) error {
	var body any
	if songId != "" {
		body = map[string][]string{
			"uris": {"spotify:track:" + songId},
		}
	}

	return s.playerCommand(ctx, sessionId, http.MethodPut, "/player/play", body)
}

func (s *Service) Pause(ctx context.Context, sessionId string) error {
	return s.playerCommand(ctx, sessionId, http.MethodPut, "/player/pause", nil)
}

func (s *Service) Skip(ctx context.Context, sessionId string) error {
	return s.playerCommand(ctx, sessionId, http.MethodPost, "/player/next", nil)
}

// CurrentlyPlaying returns the session's playback state, or nil when nothing
// is playing (the player API answers 204 in that case).
func (s *Service) CurrentlyPlaying(ctx context.Context, sessionId string) (*PlaybackState, error) {
	resp, err := s.executeRequest(ctx, sessionId, http.MethodGet, "/player/currently-playing", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}

	var cur currentlyPlayingResponse
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "malformed player response"}
	}

	artists := make([]string, 0, len(cur.Item.Artists))
	for _, a := range cur.Item.Artists {
		artists = append(artists, a.Name)
	}

	state := &PlaybackState{
		SongId:    cur.Item.Id,
		Title:     cur.Item.Name,
		Artist:    strings.Join(artists, ", "),
		Duration:  cur.Item.DurationMs,
		Progress:  cur.ProgressMs,
		IsPlaying: cur.IsPlaying,
	}

	if len(cur.Item.Album.Images) > 0 {
		state.ImageURL = cur.Item.Album.Images[0].URL
	}

	return state, nil
}
