package models

import "time"

// GridSize is the side length of the click grid; valid coordinates are
// integers in [0, GridSize-1] on both axes.
const GridSize = 1000

// DayKeyLayout is the format of the calendar-day key used for daily targets
// and click attempts.
const DayKeyLayout = "2006-01-02"

// DayKey returns the UTC calendar-day key for a timestamp. The UTC day is the
// authoritative game day for both the attempt gate and the daily target.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// DailyTarget is the hidden coordinate for one calendar day. At most one row
// exists per date; a forced rotation replaces the coordinates in place and
// increments Version by exactly one.
type DailyTarget struct {
	Date    string `bson:"date" json:"date"`
	X       int    `bson:"x" json:"x"`
	Y       int    `bson:"y" json:"y"`
	Version int64  `bson:"version" json:"version"`
}
