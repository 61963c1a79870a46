// Package marketday provides weekday-based trading-day arithmetic. Exchange
// holidays are not modeled; a trading day is any Monday through Friday.
package marketday

import "time"

// Next returns the trading day that is days trading days after date.
func Next(date time.Time, days int) time.Time {
	return step(date, days, 1)
}

// Previous returns the trading day that is days trading days before date.
func Previous(date time.Time, days int) time.Time {
	return step(date, days, -1)
}

func step(date time.Time, days, direction int) time.Time {
	current := date
	count := 0
	for count < days {
		current = current.AddDate(0, 0, direction)
		if IsOpen(current) {
			count++
		}
	}
	return current
}

// IsOpen reports whether the market is open on the given date (weekday check
// only).
func IsOpen(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
