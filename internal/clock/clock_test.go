package clock

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	in := time.Date(2024, 5, 15, 18, 30, 45, 123, time.UTC)
	want := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(in); !got.Equal(want) {
		t.Errorf("StartOfDay(%v) = %v, want %v", in, got, want)
	}
}

func TestStartOfWeek(t *testing.T) {
	cases := []struct {
		in, want time.Time
	}{
		// Wednesday rolls back to Sunday
		{time.Date(2024, 5, 15, 18, 30, 0, 0, time.UTC), time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)},
		// Sunday is its own week start
		{time.Date(2024, 5, 12, 1, 0, 0, 0, time.UTC), time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)},
		// Saturday is the last day of the week
		{time.Date(2024, 5, 18, 23, 59, 0, 0, time.UTC), time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := StartOfWeek(tc.in); !got.Equal(tc.want) {
			t.Errorf("StartOfWeek(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
