package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/npezzotti/go-musicroom/internal/api"
	"github.com/npezzotti/go-musicroom/internal/config"
	"github.com/npezzotti/go-musicroom/internal/database"
	"github.com/npezzotti/go-musicroom/internal/spotify"
	"github.com/npezzotti/go-musicroom/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	redirectURL    string
	frontendURL    string
	allowedOrigins stringSliceFlag
)

func main() {
	// .env keeps the Spotify credentials off the command line
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal("load .env:", err)
	}

	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&redirectURL, "redirect-url", "http://localhost:8000/spotify/redirect", "spotify OAuth redirect URL")
	flag.StringVar(&frontendURL, "frontend-url", "http://localhost:3000", "URL the OAuth callback redirects to")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[musicroom] ", log.LstdFlags)

	cfg, err := config.NewConfig(
		addr,
		dsn,
		os.Getenv("SPOTIFY_CLIENT_ID"),
		os.Getenv("SPOTIFY_CLIENT_SECRET"),
		redirectURL,
		frontendURL,
		allowedOrigins,
	)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgMusicroomRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	player := spotify.NewService(logger, dbConn, cfg)

	srv := api.NewMusicroomApp(mux, logger, dbConn, player, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
