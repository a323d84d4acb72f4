package util

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2025, 9, 1, h, m, 0, 0, time.Local)
}

func TestElapsedTradingMinutes(t *testing.T) {
	cases := []struct {
		h, m int
		want int
	}{
		{9, 0, 0},
		{9, 30, 0},
		{10, 30, 60},
		{11, 30, 120},
		{12, 15, 120},
		{13, 0, 120},
		{14, 0, 180},
		{15, 0, 240},
		{18, 45, 240},
	}
	for _, c := range cases {
		if got := ElapsedTradingMinutes(at(c.h, c.m)); got != c.want {
			t.Fatalf("at %02d:%02d expected %d, got %d", c.h, c.m, c.want, got)
		}
	}
}

func TestBuckets(t *testing.T) {
	ts := time.Date(2025, 9, 1, 14, 5, 0, 0, time.Local)
	if got := DayBucket(ts); got != "20250901" {
		t.Fatalf("day bucket %s", got)
	}
	if got := HourBucket(ts); got != "2025090114" {
		t.Fatalf("hour bucket %s", got)
	}
}

func TestNextDay(t *testing.T) {
	ts := time.Date(2025, 8, 31, 23, 10, 0, 0, time.UTC)
	next := NextDay(ts)
	if next.Format("2006-01-02 15:04") != "2025-09-01 00:00" {
		t.Fatalf("next day %v", next)
	}
}
