package types

import (
	"time"
)

type Room struct {
	Code          string    `json:"code"`
	GuestCanPause bool      `json:"guest_can_pause"`
	VotesToSkip   int       `json:"votes_to_skip"`
	IsHost        bool      `json:"is_host"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

type Song struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ImageURL    string `json:"image_url"`
	Duration    int    `json:"duration"`
	Time        int    `json:"time"`
	IsPlaying   bool   `json:"is_playing"`
	VotesToSkip int    `json:"votes_required"`
}
