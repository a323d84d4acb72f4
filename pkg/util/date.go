package util

import "time"

// The exchange trades in two sessions: 09:30-11:30 and 13:00-15:00, for a
// 240-minute day.
const (
	MorningOpen    = 9*60 + 30
	MorningClose   = 11*60 + 30
	AfternoonOpen  = 13 * 60
	AfternoonClose = 15 * 60

	FullDayMinutes = 240
)

// ElapsedTradingMinutes returns how many trading minutes have elapsed at t,
// following the two-session clock. Before the open it is 0; after the close
// it is the full 240.
func ElapsedTradingMinutes(t time.Time) int {
	m := t.Hour()*60 + t.Minute()
	switch {
	case m < MorningOpen:
		return 0
	case m < MorningClose:
		return m - MorningOpen
	case m < AfternoonOpen:
		return MorningClose - MorningOpen
	case m < AfternoonClose:
		return (MorningClose - MorningOpen) + (m - AfternoonOpen)
	default:
		return FullDayMinutes
	}
}

// DayBucket formats t as a daily cache bucket.
func DayBucket(t time.Time) string { return t.Format("20060102") }

// HourBucket formats t as an hourly cache bucket.
func HourBucket(t time.Time) string { return t.Format("2006010215") }

// NextDay returns t plus one calendar day at midnight.
func NextDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
