package main

import (
	"reflect"
	"testing"
	"time"
)

func TestPipelineOverlapAcrossSources(t *testing.T) {
	frenchCSV := "Date de début;Date de fin;Zones;Académies;annee_scolaire\n" +
		"2024-12-21;2025-01-05;Zone A;Lyon;2024-2025\n"
	germanCSV := "start_date;end_date;zone;school_year\n" +
		"2024-12-23;2024-12-27;de_by;2024-2025\n"

	paths := []string{writeTempCSV(t, frenchCSV), writeTempCSV(t, germanCSV)}
	rows, skipped, err := loadAll(paths)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("expected no skipped rows, got %d", skipped)
	}

	agg, stats := transformRows(rows, defaultAcademyTable())
	if stats.RowsUnmapped != 0 {
		t.Fatalf("expected no unmapped rows, got %d", stats.RowsUnmapped)
	}

	daily := agg.rows()
	if len(daily) != 16 {
		t.Fatalf("expected 16 days, got %d", len(daily))
	}

	byDate := map[time.Time]dailyRow{}
	for _, row := range daily {
		byDate[row.Date] = row
	}

	christmas := byDate[day(2024, time.December, 25)]
	if christmas.Flags[regionZoneA] != 1 || christmas.Flags[regionDE] != 1 {
		t.Fatalf("expected both fr_zone_a and de set on Dec 25, got %v", christmas.Flags)
	}

	newYear := byDate[day(2025, time.January, 1)]
	if newYear.Flags[regionZoneA] != 1 || newYear.Flags[regionDE] != 0 {
		t.Fatalf("expected only fr_zone_a on Jan 1, got %v", newYear.Flags)
	}

	for _, row := range daily {
		set := 0
		for _, flag := range row.Flags {
			set += flag
		}
		if set == 0 {
			t.Fatalf("all-zero row for %s", row.Date.Format("2006-01-02"))
		}
		if row.SchoolYear != "2024-2025" {
			t.Fatalf("unexpected school year %q on %s", row.SchoolYear, row.Date.Format("2006-01-02"))
		}
	}
}

func TestPipelineIdempotent(t *testing.T) {
	csvData := "Date de début;Date de fin;Zones;Académies\n" +
		"2024-10-19;2024-11-03;Zone C;Paris\n" +
		"2024-10-19;2024-11-03;Corse;Académie de Corse (20A/20B)\n"
	path := writeTempCSV(t, csvData)

	build := func() []dailyRow {
		rows, _, err := loadAll([]string{path})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		agg, _ := transformRows(rows, defaultAcademyTable())
		return agg.rows()
	}

	first := build()
	second := build()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two runs over identical input produced different rows")
	}
	if len(first) != 16 {
		t.Fatalf("expected 16 days, got %d", len(first))
	}
	if first[0].Flags[regionZoneC] != 1 || first[0].Flags[regionCorse] != 1 {
		t.Fatalf("expected fr_zone_c and fr_zone_corse set, got %v", first[0].Flags)
	}
}

func TestPipelineCountsMalformedAndUnmapped(t *testing.T) {
	csvData := "Date de début;Date de fin;Zones;Académies\n" +
		"2025-01-05;2024-12-21;Zone A;Lyon\n" + // reversed, skipped
		"2024-12-21;2025-01-05;Guadeloupe;\n" + // unmapped, dropped
		"2024-12-21;2024-12-22;Zone A;Lyon\n"
	path := writeTempCSV(t, csvData)

	rows, skipped, err := loadAll([]string{path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", skipped)
	}

	agg, stats := transformRows(rows, defaultAcademyTable())
	if stats.RowsUnmapped != 1 {
		t.Fatalf("expected 1 unmapped row, got %d", stats.RowsUnmapped)
	}
	if stats.UnmappedLabels["Guadeloupe"] != 1 {
		t.Fatalf("expected Guadeloupe recorded, got %v", stats.UnmappedLabels)
	}
	if len(agg.rows()) != 2 {
		t.Fatalf("expected 2 days from the one valid row, got %d", len(agg.rows()))
	}
}

func TestSchoolYearTieBreakInputOrder(t *testing.T) {
	firstCSV := "start_date;end_date;zone;school_year\n" +
		"2024-08-30;2024-08-31;lu;2023-2024\n"
	secondCSV := "start_date;end_date;zone;school_year\n" +
		"2024-08-31;2024-09-01;be_nl;2024-2025\n"

	rows, _, err := loadAll([]string{writeTempCSV(t, firstCSV), writeTempCSV(t, secondCSV)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	agg, _ := transformRows(rows, defaultAcademyTable())

	byDate := map[time.Time]dailyRow{}
	for _, row := range agg.rows() {
		byDate[row.Date] = row
	}

	shared := byDate[day(2024, time.August, 31)]
	if shared.SchoolYear != "2024-2025" {
		t.Fatalf("expected later file to win the tie, got %q", shared.SchoolYear)
	}
	if shared.Flags[regionLU] != 1 || shared.Flags[regionBE] != 1 {
		t.Fatalf("expected lu and be both set on the shared day, got %v", shared.Flags)
	}
}
