package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-musicroom/internal/config"
	"github.com/npezzotti/go-musicroom/internal/database"
	"github.com/npezzotti/go-musicroom/internal/spotify"
	"github.com/npezzotti/go-musicroom/internal/stats"
	"github.com/teris-io/shortid"
)

type MusicroomApp struct {
	log         *log.Logger
	db          database.MusicroomRepository
	player      spotify.PlayerService
	stats       stats.StatsProvider
	mux         *http.Server
	frontendURL string

	// injectable for tests
	generateRoomCode func() (string, error)
	newSessionId     func() string
}

func NewMusicroomApp(mux *http.ServeMux, logger *log.Logger, db database.MusicroomRepository, player spotify.PlayerService, su stats.StatsProvider, cfg *config.Config) *MusicroomApp {
	s := &MusicroomApp{
		log:              logger,
		db:               db,
		player:           player,
		stats:            su,
		frontendURL:      cfg.FrontendURL,
		generateRoomCode: shortid.Generate,
		newSessionId:     uuid.NewString,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("GET /api/rooms", s.sessionMiddleware(s.listRooms))
	mux.HandleFunc("GET /api/get-room", s.sessionMiddleware(s.getRoom))
	mux.HandleFunc("POST /api/create-room", s.sessionMiddleware(s.createRoom))
	mux.HandleFunc("POST /api/join-room", s.sessionMiddleware(s.joinRoom))
	mux.HandleFunc("GET /api/user-in-room", s.sessionMiddleware(s.userInRoom))
	mux.HandleFunc("POST /api/leave-room", s.sessionMiddleware(s.leaveRoom))
	mux.HandleFunc("PATCH /api/update-room", s.sessionMiddleware(s.updateRoom))

	mux.HandleFunc("GET /spotify/get-auth-url", s.sessionMiddleware(s.spotifyAuthURL))
	mux.HandleFunc("GET /spotify/redirect", s.sessionMiddleware(s.spotifyCallback))
	mux.HandleFunc("GET /spotify/is-authenticated", s.sessionMiddleware(s.spotifyIsAuthenticated))
	mux.HandleFunc("GET /spotify/current-song", s.sessionMiddleware(s.currentSong))
	mux.HandleFunc("PUT /spotify/play", s.sessionMiddleware(s.playSong))
	mux.HandleFunc("PUT /spotify/pause", s.sessionMiddleware(s.pauseSong))
	mux.HandleFunc("POST /spotify/skip", s.sessionMiddleware(s.skipSong))

	if su != nil {
		su.RegisterMetric("RoomsCreated")
		su.RegisterMetric("RoomsUpdated")
		su.RegisterMetric("RoomsJoined")
		su.RegisterMetric("RoomsDeleted")
		su.RegisterMetric("PlaybackCommands")
	}

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *MusicroomApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *MusicroomApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *MusicroomApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *MusicroomApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
