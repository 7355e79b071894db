package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultTable = "t_vacances"

// Exit codes follow the failure classes of the run: configuration
// problems abort before any database contact, parse failures mean no
// usable rows survived, write failures leave the previous table
// intact.
const (
	exitUnexpected = 1
	exitConfig     = 2
	exitParse      = 3
	exitWrite      = 4
)

// transformStats counts what the transform observed, for the run
// summary and the etl_runs log.
type transformStats struct {
	RowsRead       int
	RowsSkipped    int
	RowsUnmapped   int
	UnmappedLabels map[string]int
}

func main() {
	configPath := flag.String("config", "", "JSON config file with a csv_files list (default "+defaultConfigFile+" when no paths are given)")
	academiesPath := flag.String("academies", "", "JSON academy-to-zone table overriding the built-in one")
	table := flag.String("table", defaultTable, "Destination table name")
	sqlDir := flag.String("sql-dir", "", "Directory with post-load SQL scripts")
	dbTimeout := flag.Duration("db-timeout", 30*time.Second, "Deadline for the table write")
	warnUnmapped := flag.Bool("warn-unmapped", false, "Log each distinct zone/academy label that maps to no region")
	dryRun := flag.Bool("dry-run", false, "Transform and report without writing to the database")
	flag.Parse()

	paths, err := resolveInputs(flag.Args(), *configPath)
	if err != nil {
		exitWithError(exitConfig, err)
	}

	academies := defaultAcademyTable()
	if *academiesPath != "" {
		academies, err = loadAcademyTable(*academiesPath)
		if err != nil {
			exitWithError(exitConfig, err)
		}
	}

	startedAt := time.Now().UTC()

	rows, skipped, err := loadAll(paths)
	if err != nil {
		exitWithError(exitConfig, err)
	}
	if len(rows) == 0 {
		exitWithError(exitParse, fmt.Errorf("no usable rows in %d file(s) (%d skipped)", len(paths), skipped))
	}

	agg, stats := transformRows(rows, academies)
	stats.RowsSkipped = skipped
	daily := agg.rows()
	if len(daily) == 0 {
		exitWithError(exitParse, errors.New("no row mapped to any tracked region"))
	}

	reportTransform(paths, daily, stats, *warnUnmapped)

	if *dryRun {
		fmt.Printf("\nDry run: %d row(s) not written to %s\n", len(daily), *table)
		return
	}

	dbURL := dbURLFromEnv()
	if dbURL == "" {
		exitWithError(exitConfig, errors.New("database URL missing; set VACANCES_DB_URL or DATABASE_URL"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *dbTimeout)
	defer cancel()

	db, err := openDatabase(ctx, dbURL)
	if err != nil {
		exitWithError(exitWrite, err)
	}
	defer db.Close()

	if err := ensureRunLog(ctx, db); err != nil {
		exitWithError(exitWrite, err)
	}

	run := runRecord{
		ID:          uuid.New(),
		StartedAt:   startedAt,
		RowsRead:    stats.RowsRead,
		RowsSkipped: stats.RowsSkipped,
		Unmapped:    stats.RowsUnmapped,
	}

	if err := replaceTable(ctx, db, *table, daily, run); err != nil {
		recordFailure(db, run, err)
		exitWithError(exitWrite, fmt.Errorf("table write failed, previous %s left in place: %w", *table, err))
	}

	if *sqlDir != "" {
		runPostLoadScripts(ctx, db, *sqlDir)
	}

	fmt.Printf("\n%d row(s) written to %s (run_id=%s)\n", len(daily), *table, run.ID)
}

// loadAll reads every input file in command-line order, accumulating
// rows and the malformed-row count across files.
func loadAll(paths []string) ([]vacationRow, int, error) {
	var rows []vacationRow
	skipped := 0
	for _, path := range paths {
		logrus.Infof("loading %s", path)
		result, err := loadCSV(path)
		if err != nil {
			return nil, 0, err
		}
		if result.Skipped > 0 {
			logrus.Warnf("%s: skipped %d malformed row(s)", path, result.Skipped)
		}
		rows = append(rows, result.Rows...)
		skipped += result.Skipped
	}
	return rows, skipped, nil
}

// transformRows maps every raw row to its region codes and folds the
// expanded days into the aggregate, preserving input order so the
// school-year tie-break stays deterministic.
func transformRows(rows []vacationRow, academies academyTable) (*dayAggregate, transformStats) {
	agg := newDayAggregate()
	stats := transformStats{
		RowsRead:       len(rows),
		UnmappedLabels: map[string]int{},
	}

	for _, row := range rows {
		codes := mapRegions(row.Zones, row.Academies, academies)
		if len(codes) == 0 {
			stats.RowsUnmapped++
			label := strings.TrimSpace(row.Zones)
			if label == "" {
				label = strings.TrimSpace(row.Academies)
			}
			if label != "" {
				stats.UnmappedLabels[label]++
			}
			continue
		}
		expandRange(row.Start, row.End, codes, func(day time.Time, code RegionCode) {
			agg.observe(day, code, row.SchoolYear)
		})
	}

	return agg, stats
}

func reportTransform(paths []string, daily []dailyRow, stats transformStats, warnUnmapped bool) {
	fmt.Println("School Vacation Calendar ETL")
	fmt.Println(strings.Repeat("=", 38))
	fmt.Printf("Inputs: %d file(s)\n", len(paths))
	fmt.Printf("Rows read: %d | skipped: %d | unmapped: %d\n", stats.RowsRead, stats.RowsSkipped, stats.RowsUnmapped)
	fmt.Printf("Days covered: %d (%s to %s)\n",
		len(daily),
		daily[0].Date.Format("2006-01-02"),
		daily[len(daily)-1].Date.Format("2006-01-02"),
	)

	if warnUnmapped && len(stats.UnmappedLabels) > 0 {
		labels := make([]string, 0, len(stats.UnmappedLabels))
		for label := range stats.UnmappedLabels {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			logrus.Warnf("unmapped label %q (%d row(s))", label, stats.UnmappedLabels[label])
		}
	}
}

func exitWithError(code int, err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(code)
}
