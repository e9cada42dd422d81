package config

import (
	"fmt"
	"time"
)

const (
	defaultSpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	defaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
	defaultSpotifyAPIURL   = "https://api.spotify.com/v1/me"

	defaultRequestTimeout = 10 * time.Second
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	AllowedOrigins []string
	FrontendURL    string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURL  string
	SpotifyAuthURL      string
	SpotifyTokenURL     string
	SpotifyAPIURL       string

	RequestTimeout time.Duration
}

func NewConfig(serverAddr, databaseDSN, clientID, clientSecret, redirectURL, frontendURL string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if clientID == "" {
		return nil, fmt.Errorf("spotify client id cannot be empty")
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("spotify client secret cannot be empty")
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("spotify redirect URL cannot be empty")
	}

	if frontendURL == "" {
		frontendURL = "/"
	}

	return &Config{
		ServerAddr:          serverAddr,
		DatabaseDSN:         databaseDSN,
		AllowedOrigins:      allowedOrigins,
		FrontendURL:         frontendURL,
		SpotifyClientID:     clientID,
		SpotifyClientSecret: clientSecret,
		SpotifyRedirectURL:  redirectURL,
		SpotifyAuthURL:      defaultSpotifyAuthURL,
		SpotifyTokenURL:     defaultSpotifyTokenURL,
		SpotifyAPIURL:       defaultSpotifyAPIURL,
		RequestTimeout:      defaultRequestTimeout,
	}, nil
}
