package model

import "time"

// Calendar feature columns.
const (
	ColYear    = "Year"
	ColMonth   = "month"
	ColDay     = "day"
	ColWeekday = "weekday"
	ColHoliday = "holiday"
)

// CalendarColumns lists the calendar feature columns in join order.
var CalendarColumns = []string{ColYear, ColMonth, ColDay, ColWeekday, ColHoliday}

// Holiday is a public holiday returned by the holiday feed.
type Holiday struct {
	Date time.Time
	Name string
}

// WeekdayName maps time.Weekday to the Monday-first names used as categories.
func WeekdayName(d time.Weekday) string {
	return d.String()
}
