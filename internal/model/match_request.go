package model

import (
	"time"

	"github.com/Freeeeeet/mealmate/internal/timeslot"
)

type MealType string

const (
	MealTypeLunch  MealType = "lunch"
	MealTypeDinner MealType = "dinner"
)

func (m MealType) Valid() bool {
	return m == MealTypeLunch || m == MealTypeDinner
}

// MatchRequest is an immutable record of a user asking for a meal partner.
type MatchRequest struct {
	ID                 int64          `json:"id"`
	RequesterID        int64          `json:"requester_id"`
	MealType           MealType       `json:"meal_type"`
	RequestDate        timeslot.Date  `json:"request_date"`
	PreferredTimeStart timeslot.Clock `json:"preferred_time_start"`
	PreferredTimeEnd   timeslot.Clock `json:"preferred_time_end"`
	PreferredLocation  string         `json:"preferred_location"`
	Message            string         `json:"message"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Window returns the requested meal window.
func (r *MatchRequest) Window() timeslot.Interval {
	return timeslot.Interval{Start: r.PreferredTimeStart, End: r.PreferredTimeEnd}
}
