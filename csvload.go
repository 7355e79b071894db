package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// vacationRow is one raw CSV record after extraction: a date range,
// the free-text zone and académie labels, and the school-year label
// when the feed carries one. Never mutated after parsing.
type vacationRow struct {
	Start      time.Time
	End        time.Time
	Zones      string
	Academies  string
	SchoolYear string
	Source     string
}

// loadResult carries the usable rows of one file plus the count of
// rows skipped as malformed.
type loadResult struct {
	Rows    []vacationRow
	Skipped int
}

// loadCSV parses one semicolon-separated vacation CSV. The files are
// UTF-8, possibly with a byte-order-mark prefix. Rows with
// unparsable dates or a reversed range are skipped and counted; a
// missing required column fails the whole file.
func loadCSV(path string) (loadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return loadResult{}, err
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	if lead, err := buffered.Peek(3); err == nil && lead[0] == 0xEF && lead[1] == 0xBB && lead[2] == 0xBF {
		if _, err := buffered.Discard(3); err != nil {
			return loadResult{}, err
		}
	}

	reader := csv.NewReader(buffered)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return loadResult{}, fmt.Errorf("unable to read header of %s: %w", path, err)
	}

	colMap := normalizeHeaders(headers)
	startIdx, ok := findColumn(colMap, []string{"date_de_debut", "start_date", "debut", "start"})
	if !ok {
		return loadResult{}, fmt.Errorf("%s: missing start date column", path)
	}
	endIdx, ok := findColumn(colMap, []string{"date_de_fin", "end_date", "fin", "end"})
	if !ok {
		return loadResult{}, fmt.Errorf("%s: missing end date column", path)
	}
	zonesIdx, ok := findColumn(colMap, []string{"zones", "zone", "location"})
	if !ok {
		return loadResult{}, fmt.Errorf("%s: missing zones column", path)
	}
	academiesIdx, _ := findColumn(colMap, []string{"academies", "academie"})
	yearIdx, _ := findColumn(colMap, []string{"annee_scolaire", "school_year", "annee"})

	var result loadResult
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return loadResult{}, fmt.Errorf("unable to read %s: %w", path, err)
		}
		if len(record) == 0 {
			continue
		}

		start, err := parseDate(getValue(record, startIdx))
		if err != nil {
			result.Skipped++
			continue
		}
		end, err := parseDate(getValue(record, endIdx))
		if err != nil {
			result.Skipped++
			continue
		}
		start = dateOnly(start)
		end = dateOnly(end)
		if start.After(end) {
			result.Skipped++
			continue
		}

		row := vacationRow{
			Start:  start,
			End:    end,
			Zones:  getValue(record, zonesIdx),
			Source: path,
		}
		if academiesIdx >= 0 {
			row.Academies = getValue(record, academiesIdx)
		}
		if yearIdx >= 0 {
			row.SchoolYear = getValue(record, yearIdx)
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = normalizeText(value)
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
