package main

import (
	"fmt"
	"sort"
	"time"
)

// dailyRow is one row of the destination table: a calendar day, a
// 0/1 flag per region and the school year that day belongs to. Only
// days touched by at least one vacation range are represented; the
// table stays sparse.
type dailyRow struct {
	Date       time.Time
	Flags      map[RegionCode]int
	SchoolYear string
}

// dayAggregate folds expanded (day, region) entries into one row per
// date.
type dayAggregate struct {
	days map[time.Time]*dailyRow
}

func newDayAggregate() *dayAggregate {
	return &dayAggregate{days: map[time.Time]*dailyRow{}}
}

// observe sets the region flag for one day. The first entry for a
// date initializes every flag to 0; later entries OR into the same
// row, so overlapping source ranges combine instead of overwriting.
// When rows with different school-year labels touch the same date,
// the last one observed wins (input order: file order on the command
// line, then row order within a file).
func (a *dayAggregate) observe(day time.Time, code RegionCode, schoolYear string) {
	day = dateOnly(day)
	row, ok := a.days[day]
	if !ok {
		row = &dailyRow{Date: day, Flags: map[RegionCode]int{}}
		for _, region := range allRegions {
			row.Flags[region] = 0
		}
		a.days[day] = row
	}
	row.Flags[code] = 1
	if schoolYear == "" {
		schoolYear = deriveSchoolYear(day)
	}
	row.SchoolYear = schoolYear
}

// rows returns the aggregated rows sorted by date, so repeated runs
// over identical input write a byte-identical table.
func (a *dayAggregate) rows() []dailyRow {
	result := make([]dailyRow, 0, len(a.days))
	for _, row := range a.days {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// deriveSchoolYear labels a date with its French school year, which
// starts at the September rentrée. August belongs to the year about
// to start (summer vacation precedes it in the feeds).
func deriveSchoolYear(day time.Time) string {
	year := day.Year()
	if day.Month() >= time.August {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}
