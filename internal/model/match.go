package model

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/mealmate/internal/timeslot"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusCompleted MatchStatus = "completed" // no API transition produces it
)

// IsActive reports whether the status blocks the participants from new
// matches on the same date and meal type.
func (s MatchStatus) IsActive() bool {
	return s == MatchStatusPending || s == MatchStatusConfirmed
}

type Match struct {
	ID        int64          `json:"id"`
	RequestID int64          `json:"request_id"`
	User1ID   int64          `json:"user1_id"` // requester
	User2ID   int64          `json:"user2_id"` // matched candidate
	MealType  MealType       `json:"meal_type"`
	MealDate  timeslot.Date  `json:"meal_date"`
	MealTime  timeslot.Clock `json:"meal_time"`
	Location  string         `json:"location"`
	Status    MatchStatus    `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Involves reports whether userID is one of the participants.
func (m *Match) Involves(userID int64) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// MatchDetails is a match joined with both participants and its request,
// as shown in a user's match list.
type MatchDetails struct {
	Match
	User1Name         string  `json:"user1_name"`
	User1Email        string  `json:"user1_email"`
	User1Phone        *string `json:"user1_phone"`
	User2Name         string  `json:"user2_name"`
	User2Email        string  `json:"user2_email"`
	User2Phone        *string `json:"user2_phone"`
	PreferredLocation string  `json:"preferred_location"`
	Message           string  `json:"message"`
}

// CreatedMatch is a freshly created match together with the candidate it
// was made with.
type CreatedMatch struct {
	Match
	Candidate Contact `json:"candidate"`
}

// SlotKey identifies the (user, date, meal type) slot guarded against
// double booking.
type SlotKey struct {
	UserID   int64
	MealDate timeslot.Date
	MealType MealType
}

func (k SlotKey) String() string {
	return fmt.Sprintf("match-slot:%d:%s:%s", k.UserID, k.MealDate, k.MealType)
}
