// Package analyzer extracts class blocks from a timetable image.
package analyzer

import "context"

// CourseRecord is one class block as reported by an analyzer. Fields may be
// missing or malformed; callers normalize them before storing.
type CourseRecord struct {
	CourseName string `json:"course_name"`
	Professor  string `json:"professor"`
	DayOfWeek  *int   `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Location   string `json:"location"`
}

// Image is an uploaded timetable picture.
type Image struct {
	Data        []byte
	ContentType string
}

type Analyzer interface {
	Analyze(ctx context.Context, img Image) ([]CourseRecord, error)
	// Message describes the source of the courses for the upload response.
	Message() string
}

// FallbackMessage is reported when analysis failed and FallbackCourses were used.
const FallbackMessage = "AI analysis failed - fallback sample data used"

func day(d int) *int { return &d }

// FallbackCourses stand in for the result of a failed analysis.
func FallbackCourses() []CourseRecord {
	return []CourseRecord{
		{CourseName: "Uploaded timetable", Professor: "Instructor", DayOfWeek: day(1), StartTime: "09:00", EndTime: "10:30", Location: "Classroom"},
		{CourseName: "Analyzed class", Professor: "Advisor", DayOfWeek: day(3), StartTime: "13:00", EndTime: "14:30", Location: "Lab"},
	}
}
