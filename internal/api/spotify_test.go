package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npezzotti/go-musicroom/internal/config"
	"github.com/npezzotti/go-musicroom/internal/database"
	"github.com/npezzotti/go-musicroom/internal/spotify"
	"github.com/npezzotti/go-musicroom/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_spotifyAuthURL(t *testing.T) {
	mockRepo := &database.MockMusicroomRepository{}
	defer mockRepo.AssertExpectations(t)

	mockPlayer := &spotify.MockPlayerService{}
	defer mockPlayer.AssertExpectations(t)
	mockPlayer.On("AuthURL", "sess-a").Return("https://accounts.spotify.com/authorize?state=sess-a").Once()

	app, _ := newTestApp(t, mockRepo, &config.Config{})
	app.player = mockPlayer

	req := sessionRequest(http.MethodGet, "/spotify/get-auth-url", nil, database.Session{Id: "sess-a"})
	rr := httptest.NewRecorder()
	app.spotifyAuthURL(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err, "failed to decode response")
	assert.Equal(t, "https://accounts.spotify.com/authorize?state=sess-a", resp["url"])
}

func Test_spotifyCallback(t *testing.T) {
	frontendURL := "http://localhost:3000"

	tcases := []struct {
		name         string
		target       string
		sess         database.Session
		exchangeErr  error
		exchanged    bool
		expectedCode int
	}{
		{
			name:         "successfully exchanges the code and redirects",
			target:       "/spotify/redirect?code=authcode&state=sess-a",
			sess:         database.Session{Id: "sess-a"},
			exchanged:    true,
			expectedCode: http.StatusFound,
		},
		{
			name:         "fails with missing code",
			target:       "/spotify/redirect?state=sess-a",
			sess:         database.Session{Id: "sess-a"},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails when provider reports an error",
			target:       "/spotify/redirect?code=authcode&state=sess-a&error=access_denied",
			sess:         database.Session{Id: "sess-a"},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails with state for another session",
			target:       "/spotify/redirect?code=authcode&state=sess-b",
			sess:         database.Session{Id: "sess-a"},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails when exchange fails",
			target:       "/spotify/redirect?code=authcode&state=sess-a",
			sess:         database.Session{Id: "sess-a"},
			exchangeErr:  errors.New("exchange failed"),
			exchanged:    true,
			expectedCode: http.StatusBadGateway,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockMusicroomRepository{}
			defer mockRepo.AssertExpectations(t)

			mockPlayer := &spotify.MockPlayerService{}
			defer mockPlayer.AssertExpectations(t)

			if tc.exchanged {
				mockPlayer.On("Exchange", tc.sess.Id, "authcode").Return(tc.exchangeErr).Once()
			}

			app, _ := newTestApp(t, mockRepo, &config.Config{FrontendURL: frontendURL})
			app.player = mockPlayer

			req := sessionRequest(http.MethodGet, tc.target, nil, tc.sess)
			rr := httptest.NewRecorder()
			app.spotifyCallback(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
			if tc.expectedCode == http.StatusFound {
				assert.Equal(t, frontendURL, rr.Header().Get("Location"), "expected redirect to the frontend")
			}
		})
	}
}

func Test_spotifyIsAuthenticated(t *testing.T) {
	tcases := []struct {
		name       string
		mockStatus spotify.AuthStatus
		mockErr    error
		expected   bool
	}{
		{
			name:       "authenticated session",
			mockStatus: spotify.StatusAuthenticated,
			expected:   true,
		},
		{
			name:       "unauthenticated session",
			mockStatus: spotify.StatusNotAuthenticated,
			expected:   false,
		},
		{
			name:       "failed refresh reports unauthenticated",
			mockStatus: spotify.StatusRefreshFailed,
			mockErr:    errors.New("refresh failed"),
			expected:   false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockMusicroomRepository{}
			defer mockRepo.AssertExpectations(t)

			mockPlayer := &spotify.MockPlayerService{}
			defer mockPlayer.AssertExpectations(t)
			mockPlayer.On("Status", "sess-a").Return(tc.mockStatus, tc.mockErr).Once()

			app, _ := newTestApp(t, mockRepo, &config.Config{})
			app.player = mockPlayer

			req := sessionRequest(http.MethodGet, "/spotify/is-authenticated", nil, database.Session{Id: "sess-a"})
			rr := httptest.NewRecorder()
			app.spotifyIsAuthenticated(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)

			var resp map[string]bool
			err := json.NewDecoder(rr.Body).Decode(&resp)
			assert.NoError(t, err, "failed to decode response")
			assert.Equal(t, tc.expected, resp["status"], "expected status to match")
		})
	}
}

func Test_currentSong(t *testing.T) {
	mockRoom := database.Room{
		Id:            1,
		Code:          "EoGKUXPHgz",
		Host:          "sess-a",
		GuestCanPause: true,
		VotesToSkip:   2,
	}
	mockState := &spotify.PlaybackState{
		SongId:    "track-id",
		Title:     "Song Title",
		Artist:    "Artist One, Artist Two",
		ImageURL:  "https://images.example.com/cover.jpg",
		Duration:  240000,
		Progress:  60000,
		IsPlaying: true,
	}

	tcases := []struct {
		name         string
		sess         database.Session
		mockRoomErr  error
		mockState    *spotify.PlaybackState
		mockErr      error
		queried      bool
		expectedCode int
	}{
		{
			name:         "successfully returns the current song",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			mockState:    mockState,
			queried:      true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "no content when nothing is playing",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			queried:      true,
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "fails when session is not in a room",
			sess:         database.Session{Id: "sess-b"},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "fails when the room no longer exists",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			mockRoomErr:  sql.ErrNoRows,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "fails when host is not authenticated",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			mockErr:      spotify.ErrNotAuthenticated,
			queried:      true,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "fails when the player api errors",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			mockErr:      &spotify.APIError{StatusCode: http.StatusBadGateway, Body: "upstream error"},
			queried:      true,
			expectedCode: http.StatusBadGateway,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockMusicroomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.sess.RoomCode != "" {
				mockRepo.On("GetRoomByCode", tc.sess.RoomCode).Return(mockRoom, tc.mockRoomErr).Once()
			}

			mockPlayer := &spotify.MockPlayerService{}
			defer mockPlayer.AssertExpectations(t)

			if tc.queried {
				mockPlayer.On("CurrentlyPlaying", mockRoom.Host).Return(tc.mockState, tc.mockErr).Once()
			}

			app, _ := newTestApp(t, mockRepo, &config.Config{})
			app.player = mockPlayer

			req := sessionRequest(http.MethodGet, "/spotify/current-song", nil, tc.sess)
			rr := httptest.NewRecorder()
			app.currentSong(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")

			if tc.expectedCode != http.StatusOK {
				return
			}

			var song types.Song
			err := json.NewDecoder(rr.Body).Decode(&song)
			assert.NoError(t, err, "failed to decode response")
			assert.Equal(t, tc.mockState.SongId, song.Id)
			assert.Equal(t, tc.mockState.Title, song.Title)
			assert.Equal(t, tc.mockState.Artist, song.Artist)
			assert.Equal(t, tc.mockState.ImageURL, song.ImageURL)
			assert.Equal(t, tc.mockState.Duration, song.Duration)
			assert.Equal(t, tc.mockState.Progress, song.Time)
			assert.Equal(t, tc.mockState.IsPlaying, song.IsPlaying)
			assert.Equal(t, mockRoom.VotesToSkip, song.VotesToSkip, "expected the room's skip threshold")
		})
	}
}

func Test_playSong(t *testing.T) {
	mockRoom := database.Room{
		Id:            1,
		Code:          "EoGKUXPHgz",
		Host:          "sess-a",
		GuestCanPause: false,
		VotesToSkip:   2,
	}

	tcases := []struct {
		name          string
		sess          database.Session
		room          database.Room
		body          []byte
		mockStatus    spotify.AuthStatus
		authChecked   bool
		mockPlayErr   error
		played        bool
		expectedSong  string
		expectedCode  int
		metricCounted bool
	}{
		{
			name:          "host resumes playback",
			sess:          database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:          mockRoom,
			mockStatus:    spotify.StatusAuthenticated,
			authChecked:   true,
			played:        true,
			expectedCode:  http.StatusNoContent,
			metricCounted: true,
		},
		{
			name:          "host starts a specific track",
			sess:          database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:          mockRoom,
			body:          []byte(`{"song_id": "track-id"}`),
			mockStatus:    spotify.StatusAuthenticated,
			authChecked:   true,
			played:        true,
			expectedSong:  "track-id",
			expectedCode:  http.StatusNoContent,
			metricCounted: true,
		},
		{
			name: "guest plays when the room allows it",
			sess: database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			room: database.Room{
				Id:            1,
				Code:          mockRoom.Code,
				Host:          "sess-a",
				GuestCanPause: true,
				VotesToSkip:   2,
			},
			mockStatus:    spotify.StatusAuthenticated,
			authChecked:   true,
			played:        true,
			expectedCode:  http.StatusNoContent,
			metricCounted: true,
		},
		{
			name:         "guest is forbidden when the room disallows it",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			room:         mockRoom,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "fails when session is not in a room",
			sess:         database.Session{Id: "sess-a"},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "fails with invalid json body",
			sess:         database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:         mockRoom,
			body:         []byte("invalid json"),
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails when host is not authenticated",
			sess:         database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:         mockRoom,
			mockStatus:   spotify.StatusNotAuthenticated,
			authChecked:  true,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "fails when the player api errors",
			sess:         database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:         mockRoom,
			mockStatus:   spotify.StatusAuthenticated,
			authChecked:  true,
			mockPlayErr:  &spotify.APIError{StatusCode: http.StatusNotFound, Body: "no active device"},
			played:       true,
			expectedCode: http.StatusBadGateway,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockMusicroomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.sess.RoomCode != "" {
				mockRepo.On("GetRoomByCode", tc.sess.RoomCode).Return(tc.room, nil).Once()
			}

			mockPlayer := &spotify.MockPlayerService{}
			defer mockPlayer.AssertExpectations(t)

			if tc.authChecked {
				mockPlayer.On("Status", tc.room.Host).Return(tc.mockStatus, nil).Once()
			}
			if tc.played {
				mockPlayer.On("Play", tc.room.Host, tc.expectedSong).Return(tc.mockPlayErr).Once()
			}

			app, su := newTestApp(t, mockRepo, &config.Config{})
			app.player = mockPlayer
			if tc.metricCounted {
				su.On("Incr", "PlaybackCommands").Return(nil).Once()
			}

			req := sessionRequest(http.MethodPut, "/spotify/play", tc.body, tc.sess)
			rr := httptest.NewRecorder()
			app.playSong(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
		})
	}
}

func Test_pauseSong(t *testing.T) {
	mockRoom := database.Room{
		Id:            1,
		Code:          "EoGKUXPHgz",
		Host:          "sess-a",
		GuestCanPause: false,
		VotesToSkip:   2,
	}

	tcases := []struct {
		name          string
		sess          database.Session
		room          database.Room
		mockStatus    spotify.AuthStatus
		authChecked   bool
		mockPauseErr  error
		paused        bool
		expectedCode  int
		metricCounted bool
	}{
		{
			name:          "host pauses playback",
			sess:          database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:          mockRoom,
			mockStatus:    spotify.StatusAuthenticated,
			authChecked:   true,
			paused:        true,
			expectedCode:  http.StatusNoContent,
			metricCounted: true,
		},
		{
			name: "guest pauses when the room allows it",
			sess: database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			room: database.Room{
				Id:            1,
				Code:          mockRoom.Code,
				Host:          "sess-a",
				GuestCanPause: true,
				VotesToSkip:   2,
			},
			mockStatus:    spotify.StatusAuthenticated,
			authChecked:   true,
			paused:        true,
			expectedCode:  http.StatusNoContent,
			metricCounted: true,
		},
		{
			name:         "guest is forbidden when the room disallows it",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			room:         mockRoom,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "fails when host is not authenticated",
			sess:         database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:         mockRoom,
			mockStatus:   spotify.StatusRefreshFailed,
			authChecked:  true,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "fails when the player api errors",
			sess:         database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			room:         mockRoom,
			mockStatus:   spotify.StatusAuthenticated,
			authChecked:  true,
			mockPauseErr: &spotify.APIError{StatusCode: http.StatusForbidden, Body: "premium required"},
			paused:       true,
			expectedCode: http.StatusBadGateway,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockMusicroomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.sess.RoomCode != "" {
				mockRepo.On("GetRoomByCode", tc.sess.RoomCode).Return(tc.room, nil).Once()
			}

			mockPlayer := &spotify.MockPlayerService{}
			defer mockPlayer.AssertExpectations(t)

			if tc.authChecked {
				mockPlayer.On("Status", tc.room.Host).Return(tc.mockStatus, nil).Once()
			}
			if tc.paused {
				mockPlayer.On("Pause", tc.room.Host).Return(tc.mockPauseErr).Once()
			}

			app, su := newTestApp(t, mockRepo, &config.Config{})
			app.player = mockPlayer
			if tc.metricCounted {
				su.On("Incr", "PlaybackCommands").Return(nil).Once()
			}

			req := sessionRequest(http.MethodPut, "/spotify/pause", nil, tc.sess)
			rr := httptest.NewRecorder()
			app.pauseSong(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
		})
	}
}

func Test_skipSong(t *testing.T) {
	mockRoom := database.Room{
		Id:            1,
		Code:          "EoGKUXPHgz",
		Host:          "sess-a",
		GuestCanPause: false,
		VotesToSkip:   2,
	}

	tcases := []struct {
		name          string
		sess          database.Session
		mockStatus    spotify.AuthStatus
		authChecked   bool
		mockSkipErr   error
		skipped       bool
		expectedCode  int
		metricCounted bool
	}{
		{
			name:          "host skips the track",
			sess:          database.Session{Id: "sess-a", RoomCode: mockRoom.Code},
			mockStatus:    spotify.StatusAuthenticated,
			authChecked:   true,
			skipped:       true,
			expectedCode:  http.StatusNoContent,
			metricCounted: true,
		},
		{
			name:          "guests may skip regardless of room settings",
			sess:          database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			mockStatus:    spotify.StatusAuthenticated,
			authChecked:   true,
			skipped:       true,
			expectedCode:  http.StatusNoContent,
			metricCounted: true,
		},
		{
			name:         "fails when session is not in a room",
			sess:         database.Session{Id: "sess-b"},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "fails when host is not authenticated",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			mockStatus:   spotify.StatusNotAuthenticated,
			authChecked:  true,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "fails when the player api errors",
			sess:         database.Session{Id: "sess-b", RoomCode: mockRoom.Code},
			mockStatus:   spotify.StatusAuthenticated,
			authChecked:  true,
			mockSkipErr:  &spotify.APIError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"},
			skipped:      true,
			expectedCode: http.StatusBadGateway,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockMusicroomRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.sess.RoomCode != "" {
				mockRepo.On("GetRoomByCode", tc.sess.RoomCode).Return(mockRoom, nil).Once()
			}

			mockPlayer := &spotify.MockPlayerService{}
			defer mockPlayer.AssertExpectations(t)

			if tc.authChecked {
				mockPlayer.On("Status", mockRoom.Host).Return(tc.mockStatus, nil).Once()
			}
			if tc.skipped {
				mockPlayer.On("Skip", mockRoom.Host).Return(tc.mockSkipErr).Once()
			}

			app, su := newTestApp(t, mockRepo, &config.Config{})
			app.player = mockPlayer
			if tc.metricCounted {
				su.On("Incr", "PlaybackCommands").Return(nil).Once()
			}

			req := sessionRequest(http.MethodPost, "/spotify/skip", nil, tc.sess)
			rr := httptest.NewRecorder()
			app.skipSong(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
		})
	}
}
