package main

import "time"

// expandRange walks every calendar day of the inclusive [start, end]
// range and calls visit once per day and region code. Days are
// stepped with AddDate so month, year and DST boundaries cannot skip
// or duplicate a date. An empty code set visits nothing. Callers must
// reject start > end upstream as a malformed row.
func expandRange(start, end time.Time, codes []RegionCode, visit func(time.Time, RegionCode)) {
	if len(codes) == 0 {
		return
	}
	start = dateOnly(start)
	end = dateOnly(end)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, code := range codes {
			visit(day, code)
		}
	}
}

// countDays returns the number of calendar days in the inclusive
// [start, end] range, or 0 when the range is reversed.
func countDays(start, end time.Time) int {
	start = dateOnly(start)
	end = dateOnly(end)
	if start.After(end) {
		return 0
	}
	count := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		count++
	}
	return count
}

func dateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
