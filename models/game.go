package models

import "time"

// Game is a scheduled matchup pulled from the sports API.
type Game struct {
	ID          int       `json:"id"`
	Home        string    `json:"home"`
	Visitor     string    `json:"visitor"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Day         string    `json:"day"`
	Status      string    `json:"status,omitempty"`
}

type Team struct {
	FullName     string `json:"fullName"`
	Abbreviation string `json:"abbreviation"`
}
