package models

import "time"

// TripLog is one append-only record of a trip a user took. There is no
// logic here beyond recording; listings come back newest first.
type TripLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Start     string    `json:"start"`
	Stop      string    `json:"stop"`
	Minutes   int       `json:"minutes"`
	Timestamp time.Time `json:"timestamp"`
}
