package main

import (
	"testing"
	"time"
)

func TestAggregateOverlapCombines(t *testing.T) {
	agg := newDayAggregate()
	christmas := day(2024, time.December, 25)
	agg.observe(christmas, regionZoneA, "2024-2025")
	agg.observe(christmas, regionDE, "2024-2025")

	rows := agg.rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Flags[regionZoneA] != 1 || row.Flags[regionDE] != 1 {
		t.Fatalf("expected fr_zone_a and de both set, got %v", row.Flags)
	}
	for _, code := range allRegions {
		if code == regionZoneA || code == regionDE {
			continue
		}
		if row.Flags[code] != 0 {
			t.Fatalf("expected %s to stay 0, got %d", code, row.Flags[code])
		}
	}
}

func TestAggregateNoAllZeroRows(t *testing.T) {
	agg := newDayAggregate()
	agg.observe(day(2024, time.February, 10), regionCorse, "")
	agg.observe(day(2024, time.February, 11), regionZoneB, "")
	agg.observe(day(2024, time.April, 2), regionCH, "")

	for _, row := range agg.rows() {
		set := 0
		for _, flag := range row.Flags {
			set += flag
		}
		if set == 0 {
			t.Fatalf("all-zero row emitted for %s", row.Date.Format("2006-01-02"))
		}
	}
}

func TestAggregateSparse(t *testing.T) {
	agg := newDayAggregate()
	agg.observe(day(2024, time.February, 10), regionZoneA, "")
	agg.observe(day(2024, time.April, 20), regionZoneA, "")

	rows := agg.rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, no dense fill between them, got %d", len(rows))
	}
}

func TestAggregateSchoolYearLastWriteWins(t *testing.T) {
	agg := newDayAggregate()
	shared := day(2024, time.August, 30)
	agg.observe(shared, regionZoneA, "2023-2024")
	agg.observe(shared, regionDE, "2024-2025")

	rows := agg.rows()
	if rows[0].SchoolYear != "2024-2025" {
		t.Fatalf("expected last observed label to win, got %q", rows[0].SchoolYear)
	}
}

func TestAggregateDerivesSchoolYear(t *testing.T) {
	agg := newDayAggregate()
	agg.observe(day(2025, time.February, 14), regionBE, "")

	rows := agg.rows()
	if rows[0].SchoolYear != "2024-2025" {
		t.Fatalf("expected derived 2024-2025, got %q", rows[0].SchoolYear)
	}
}

func TestDeriveSchoolYear(t *testing.T) {
	cases := map[time.Time]string{
		day(2024, time.September, 2): "2024-2025",
		day(2024, time.August, 1):    "2024-2025",
		day(2024, time.December, 25): "2024-2025",
		day(2025, time.February, 10): "2024-2025",
		day(2024, time.July, 5):      "2023-2024",
	}
	for date, expected := range cases {
		if got := deriveSchoolYear(date); got != expected {
			t.Fatalf("%s: expected %s, got %s", date.Format("2006-01-02"), expected, got)
		}
	}
}

func TestAggregateRowsSorted(t *testing.T) {
	agg := newDayAggregate()
	agg.observe(day(2025, time.January, 3), regionZoneA, "")
	agg.observe(day(2024, time.October, 21), regionZoneA, "")
	agg.observe(day(2024, time.December, 25), regionZoneA, "")

	rows := agg.rows()
	for idx := 1; idx < len(rows); idx++ {
		if !rows[idx-1].Date.Before(rows[idx].Date) {
			t.Fatalf("rows out of order at index %d", idx)
		}
	}
}
