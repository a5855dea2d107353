package model

import "time"

// Score is one finished quiz play on the scoreboard. Every play appends a
// record; there is no per-player aggregation.
type Score struct {
	Name       string    `json:"name"`
	Points     int       `json:"points"`
	AvgScore   float64   `json:"avg_score"` // 5-point scale, one decimal
	LastPlayed time.Time `json:"last_played"`
}
