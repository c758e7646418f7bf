package timeslot

// Interval is a half-open wall-clock range [Start, End).
type Interval struct {
	Start Clock
	End   Clock
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(startA, endA, startB, endB Clock) bool {
	return startA < endB && startB < endA
}

// Overlaps reports whether i and other intersect.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.Start < i.End
}

// HasConflict reports whether the meal window overlaps any class of either
// participant on the requested day. Blocks of the two participants are not
// compared with each other.
func HasConflict(requester, candidate []Interval, windowStart, windowEnd Clock) bool {
	for _, blocks := range [][]Interval{requester, candidate} {
		for _, b := range blocks {
			if Overlaps(b.Start, b.End, windowStart, windowEnd) {
				return true
			}
		}
	}
	return false
}
