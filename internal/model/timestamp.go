package model

import (
	"errors"
	"time"
)

const DayLayout = "2006-01-02"

func UnixMilli(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}

// DayRange returns [from, to) in Unix milliseconds covering the calendar days between
// the two dates inclusive.
func DayRange(from, to time.Time) (int64, int64, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if !start.Before(end) {
		return 0, 0, errors.New("range end is before its start")
	}
	return start.UnixMilli(), end.UnixMilli(), nil
}
