package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

var validIdent = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func sanitizeTable(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("table name is required")
	}
	if !validIdent.MatchString(value) {
		return "", fmt.Errorf("invalid table name: %s", value)
	}
	return value, nil
}

// runRecord is one row of the etl_runs audit table.
type runRecord struct {
	ID          uuid.UUID
	StartedAt   time.Time
	RowsRead    int
	RowsSkipped int
	Unmapped    int
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureRunLog(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS etl_runs (
			id uuid PRIMARY KEY,
			started_at timestamptz NOT NULL,
			finished_at timestamptz NOT NULL,
			status text NOT NULL,
			rows_read integer NOT NULL,
			rows_skipped integer NOT NULL,
			unmapped_labels integer NOT NULL,
			rows_written integer NOT NULL,
			error_message text
		)`)
	return err
}

// replaceTable rebuilds the destination table from the aggregated
// rows inside one transaction: fill a staging table, drop the old
// table, rename. Postgres DDL is transactional, so the previous
// table survives any failure and readers never see a partial state.
// The success row of the run log commits atomically with the swap.
func replaceTable(ctx context.Context, db *sql.DB, table string, rows []dailyRow, run runRecord) error {
	table, err := sanitizeTable(table)
	if err != nil {
		return err
	}
	staging := table + "_staging"

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, staging)); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, createTableSQL(staging)); err != nil {
		return err
	}

	insertSQL := insertRowSQL(staging)

	for _, row := range rows {
		_, err = tx.ExecContext(ctx, insertSQL, insertArgs(row)...)
		if err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, staging, table)); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO etl_runs (
			id, started_at, finished_at, status,
			rows_read, rows_skipped, unmapped_labels, rows_written, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULL)`,
		run.ID,
		run.StartedAt,
		time.Now().UTC(),
		"success",
		run.RowsRead,
		run.RowsSkipped,
		run.Unmapped,
		len(rows),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// tableColumns is the fixed column order of the destination table:
// date, one 0/1 column per region, school_year.
func tableColumns() []string {
	columns := make([]string, 0, len(allRegions)+2)
	columns = append(columns, "date")
	for _, code := range allRegions {
		columns = append(columns, regionColumns[code])
	}
	return append(columns, "school_year")
}

func createTableSQL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n\tdate date PRIMARY KEY", table)
	for _, code := range allRegions {
		fmt.Fprintf(&b, ",\n\t%s integer NOT NULL", regionColumns[code])
	}
	b.WriteString(",\n\tschool_year text NOT NULL\n)")
	return b.String()
}

func insertRowSQL(table string) string {
	columns := tableColumns()
	placeholders := make([]string, len(columns))
	for idx := range columns {
		placeholders[idx] = fmt.Sprintf("$%d", idx+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// insertArgs lays out one dailyRow in the fixed column order of the
// destination table.
func insertArgs(row dailyRow) []any {
	args := make([]any, 0, len(allRegions)+2)
	args = append(args, row.Date)
	for _, code := range allRegions {
		args = append(args, row.Flags[code])
	}
	args = append(args, row.SchoolYear)
	return args
}

// recordFailure writes a failed run into the log, best effort; a
// second failure here must not mask the original error.
func recordFailure(db *sql.DB, run runRecord, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, `
		INSERT INTO etl_runs (
			id, started_at, finished_at, status,
			rows_read, rows_skipped, unmapped_labels, rows_written, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8)`,
		run.ID,
		run.StartedAt,
		time.Now().UTC(),
		"failed",
		run.RowsRead,
		run.RowsSkipped,
		run.Unmapped,
		runErr.Error(),
	)
	if err != nil {
		logrus.Warnf("could not record failed run: %v", err)
	}
}

// postLoadScripts are executed in this order when present in the
// -sql-dir directory; they refresh the derived views that read
// t_vacances.
var postLoadScripts = []string{"t_region_vacances.sql", "t_vacances.sql"}

// runPostLoadScripts executes the auxiliary SQL scripts after a
// successful swap. A script failure is reported and does not undo
// the committed table write.
func runPostLoadScripts(ctx context.Context, db *sql.DB, dir string) {
	for _, name := range postLoadScripts {
		path := filepath.Join(dir, name)
		script, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			logrus.Warnf("post-load script %s: %v", name, err)
			continue
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			logrus.Warnf("post-load script %s failed: %v", name, err)
			continue
		}
		logrus.Infof("post-load script %s executed", name)
	}
}
