package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/npezzotti/go-musicroom/internal/database"
	"github.com/npezzotti/go-musicroom/internal/spotify"
	"github.com/npezzotti/go-musicroom/internal/types"
)

type PlayRequest struct {
	SongId string `json:"song_id"`
}

func (s *MusicroomApp) playerError(err error) *ApiError {
	if errors.Is(err, spotify.ErrNotAuthenticated) {
		return NewUnauthorizedError()
	}

	var apiErr *spotify.APIError
	if errors.As(err, &apiErr) {
		return NewBadGatewayError(err)
	}

	return NewInternalServerError(err)
}

// playbackRoom resolves the room the session is listening in. Playback
// always runs against the host's Spotify account, so callers use the
// returned room's Host as the token key.
func (s *MusicroomApp) playbackRoom(sess database.Session) (database.Room, *ApiError) {
	if sess.RoomCode == "" {
		return database.Room{}, NewNotFoundError()
	}

	room, err := s.db.GetRoomByCode(sess.RoomCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Room{}, NewNotFoundError()
		}
		return database.Room{}, NewInternalServerError(err)
	}

	return room, nil
}

func (s *MusicroomApp) spotifyAuthURL(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"url": s.player.AuthURL(sess.Id)})
}

func (s *MusicroomApp) spotifyCallback(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	if code == "" || query.Get("error") != "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// state carries the session id handed out in spotifyAuthURL
	if query.Get("state") != sess.Id {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.player.Exchange(r.Context(), sess.Id, code); err != nil {
		s.log.Println("spotify exchange:", err)
		errResp := NewBadGatewayError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.Redirect(w, r, s.frontendURL, http.StatusFound)
}

func (s *MusicroomApp) spotifyIsAuthenticated(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	status, err := s.player.Status(r.Context(), sess.Id)
	if err != nil {
		s.log.Println("spotify status:", err)
	}

	s.writeJson(w, http.StatusOK, map[string]bool{"status": status == spotify.StatusAuthenticated})
}

func (s *MusicroomApp) currentSong(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.playbackRoom(sess)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	state, err := s.player.CurrentlyPlaying(r.Context(), room.Host)
	if err != nil {
		s.log.Println("currently playing:", err)
		errResp := s.playerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if state == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.writeJson(w, http.StatusOK, types.Song{
		Id:          state.SongId,
		Title:       state.Title,
		Artist:      state.Artist,
		ImageURL:    state.ImageURL,
		Duration:    state.Duration,
		Time:        state.Progress,
		IsPlaying:   state.IsPlaying,
		VotesToSkip: room.VotesToSkip,
	})
}

func (s *MusicroomApp) playSong(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.playbackRoom(sess)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if room.Host != sess.Id && !room.GuestCanPause {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := s.requirePlayerAuth(r, room.Host); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.player.Play(r.Context(), room.Host, req.SongId); err != nil {
		s.log.Println("play:", err)
		errResp := s.playerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr("PlaybackCommands")
	w.WriteHeader(http.StatusNoContent)
}

func (s *MusicroomApp) pauseSong(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.playbackRoom(sess)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if room.Host != sess.Id && !room.GuestCanPause {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := s.requirePlayerAuth(r, room.Host); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.player.Pause(r.Context(), room.Host); err != nil {
		s.log.Println("pause:", err)
		errResp := s.playerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr("PlaybackCommands")
	w.WriteHeader(http.StatusNoContent)
}

func (s *MusicroomApp) skipSong(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.playbackRoom(sess)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := s.requirePlayerAuth(r, room.Host); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.player.Skip(r.Context(), room.Host); err != nil {
		s.log.Println("skip:", err)
		errResp := s.playerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr("PlaybackCommands")
	w.WriteHeader(http.StatusNoContent)
}

// requirePlayerAuth ensures the room host still holds usable Spotify
// credentials, refreshing them if expired, before a playback command runs.
func (s *MusicroomApp) requirePlayerAuth(r *http.Request, host string) *ApiError {
	status, err := s.player.Status(r.Context(), host)
	if err != nil {
		s.log.Println("spotify status:", err)
	}

	if status != spotify.StatusAuthenticated {
		return NewUnauthorizedError()
	}

	return nil
}
