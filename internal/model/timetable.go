package model

import (
	"time"

	"github.com/Freeeeeet/mealmate/internal/timeslot"
)

// Timetable is the latest schedule snapshot of a user for one semester.
type Timetable struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Semester  string    `json:"semester"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Courses   []*Course `json:"courses"`
}

// Course is one weekly class block of a timetable.
type Course struct {
	ID          int64          `json:"id,omitempty"`
	TimetableID int64          `json:"timetable_id,omitempty"`
	CourseName  string         `json:"course_name"`
	Professor   string         `json:"professor"`
	DayOfWeek   int            `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartTime   timeslot.Clock `json:"start_time"`
	EndTime     timeslot.Clock `json:"end_time"`
	Location    string         `json:"location"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
}

// Interval returns the class block as a half-open clock range.
func (c *Course) Interval() timeslot.Interval {
	return timeslot.Interval{Start: c.StartTime, End: c.EndTime}
}

// Intervals converts course blocks for conflict evaluation.
func Intervals(courses []*Course) []timeslot.Interval {
	out := make([]timeslot.Interval, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Interval())
	}
	return out
}
