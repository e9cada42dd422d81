package database

import "time"

type Room struct {
	Id            int
	Code          string
	Host          string
	GuestCanPause bool
	VotesToSkip   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Session struct {
	Id        string
	RoomCode  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SpotifyToken struct {
	Id           int
	SessionId    string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UpsertRoomParams struct {
	Code          string
	Host          string
	GuestCanPause bool
	VotesToSkip   int
}

type UpdateRoomParams struct {
	Code          string
	GuestCanPause bool
	VotesToSkip   int
}

type UpsertTokenParams struct {
	SessionId    string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}
