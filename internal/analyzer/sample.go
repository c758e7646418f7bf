package analyzer

import "context"

// Sample ignores the image and returns a fixed week. It is used when no
// OpenAI key is configured.
type Sample struct{}

func (Sample) Analyze(_ context.Context, _ Image) ([]CourseRecord, error) {
	return []CourseRecord{
		{CourseName: "Web Programming", Professor: "Prof. Kim", DayOfWeek: day(1), StartTime: "09:00", EndTime: "10:30", Location: "Engineering 301"},
		{CourseName: "Databases", Professor: "Prof. Lee", DayOfWeek: day(1), StartTime: "11:00", EndTime: "12:30", Location: "Engineering 401"},
		{CourseName: "Algorithms", Professor: "Prof. Park", DayOfWeek: day(3), StartTime: "13:00", EndTime: "14:30", Location: "Engineering 201"},
		{CourseName: "Software Engineering", Professor: "Prof. Choi", DayOfWeek: day(5), StartTime: "15:00", EndTime: "16:30", Location: "Engineering 501"},
	}, nil
}

func (Sample) Message() string {
	return "Local development - sample timetable data used"
}
