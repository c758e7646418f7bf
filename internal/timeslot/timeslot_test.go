package timeslot

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:05", want: 9*60 + 5},
		{in: "9:05", want: 9*60 + 5},
		{in: "23:59", want: 23*60 + 59},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "1205", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockStringAndJSON(t *testing.T) {
	c := MustParseClock("7:30")
	assert.Equal(t, "07:30", c.String())

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `"07:30"`, string(data))

	var back Clock
	require.NoError(t, json.Unmarshal([]byte(`"18:45"`), &back))
	assert.Equal(t, MustParseClock("18:45"), back)

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &back))
	assert.Error(t, json.Unmarshal([]byte(`930`), &back))
}

func TestClockScan(t *testing.T) {
	var c Clock
	require.NoError(t, c.Scan("10:30"))
	assert.Equal(t, 630, c.Minutes())

	require.NoError(t, c.Scan([]byte("11:00")))
	assert.Equal(t, 660, c.Minutes())

	assert.Error(t, c.Scan(42))
}

func TestOverlaps(t *testing.T) {
	c := MustParseClock

	t.Run("touching intervals do not overlap", func(t *testing.T) {
		assert.False(t, Overlaps(c("09:00"), c("10:00"), c("10:00"), c("11:00")))
		assert.False(t, Overlaps(c("10:00"), c("11:00"), c("09:00"), c("10:00")))
	})

	t.Run("partial overlap", func(t *testing.T) {
		assert.True(t, Overlaps(c("09:00"), c("10:30"), c("10:00"), c("11:00")))
	})

	t.Run("containment", func(t *testing.T) {
		assert.True(t, Overlaps(c("08:00"), c("12:00"), c("09:00"), c("10:00")))
	})

	t.Run("disjoint", func(t *testing.T) {
		assert.False(t, Overlaps(c("08:00"), c("09:00"), c("13:00"), c("14:00")))
	})
}

func TestOverlapsIsSymmetric(t *testing.T) {
	// every well-formed pair of intervals on a half-hour grid
	for s1 := 0; s1 < 48; s1++ {
		for e1 := s1 + 1; e1 <= 48; e1++ {
			for s2 := 0; s2 < 48; s2++ {
				for e2 := s2 + 1; e2 <= 48; e2 += 3 {
					a, b := Clock(s1*30), Clock(e1*30)
					x, y := Clock(s2*30), Clock(e2*30)
					if Overlaps(a, b, x, y) != Overlaps(x, y, a, b) {
						t.Fatalf("asymmetric for [%s,%s) and [%s,%s)", a, b, x, y)
					}
				}
			}
		}
	}
}

func TestHasConflict(t *testing.T) {
	c := MustParseClock
	noon := []Interval{{Start: c("12:00"), End: c("13:00")}}

	tests := []struct {
		name      string
		requester []Interval
		candidate []Interval
		start     Clock
		end       Clock
		want      bool
	}{
		{name: "nobody has classes", start: c("12:00"), end: c("13:00"), want: false},
		{name: "requester class overlaps window", requester: noon, start: c("12:30"), end: c("13:30"), want: true},
		{name: "candidate class overlaps window", candidate: noon, start: c("11:30"), end: c("12:30"), want: true},
		{name: "class ends when window starts", requester: noon, start: c("13:00"), end: c("14:00"), want: false},
		{
			name:      "schedules overlap each other but not the window",
			requester: []Interval{{Start: c("09:00"), End: c("11:00")}},
			candidate: []Interval{{Start: c("10:00"), End: c("11:30")}},
			start:     c("12:00"),
			end:       c("13:00"),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasConflict(tt.requester, tt.candidate, tt.start, tt.end))
		})
	}
}

func TestParseDateDayOfWeek(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tests := []struct {
		in   string
		want int
	}{
		{in: "2025-03-09", want: 0},
		{in: "2025-03-10", want: 1},
		{in: "2025-04-01", want: 2},
		{in: "2025-03-15", want: 6},
	}

	for _, tt := range tests {
		for _, loc := range []*time.Location{time.UTC, seoul, nil} {
			d, err := ParseDate(tt.in, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.DayOfWeek(), tt.in)
			assert.Equal(t, tt.in, d.String())
		}
	}

	_, err = ParseDate("2025/03/10", time.UTC)
	assert.Error(t, err)
	_, err = ParseDate("2025-02-30", time.UTC)
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-04-01"`), &d))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-04-01"`, string(data))

	assert.True(t, d.Equal(NewDate(time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC))))
}
