// Package sheets loads product catalogs and sales line items from xlsx
// workbooks for offline previews and pricing runs.
package sheets

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// RowError describes a data row that could not be loaded.
type RowError struct {
	Row     int // 1-based worksheet row
	Field   string
	Message string
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// table is a worksheet read into header-indexed rows.
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable reads sheet (or the first sheet when empty) and indexes the
// header row. Header names are matched case-insensitively, with spaces and
// dashes treated as underscores.
func readTable(r io.Reader, sheet string) (*table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet %q is empty", sheet)
	}

	t := &table{columns: make(map[string]int), rows: rows[1:]}
	for i, h := range rows[0] {
		key := normalizeHeader(h)
		if _, dup := t.columns[key]; key != "" && !dup {
			t.columns[key] = i
		}
	}
	return t, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// column returns the index of the first header matching one of names.
func (t *table) column(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := t.columns[n]; ok {
			return i, true
		}
	}
	return -1, false
}

func (t *table) require(names ...string) (int, error) {
	i, ok := t.column(names...)
	if !ok {
		return -1, fmt.Errorf("missing required column %q", names[0])
	}
	return i, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseMoney accepts plain numbers and currency formatted values such as
// "$1,234.50".
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	return decimal.NewFromString(s)
}

func parseOptionalMoney(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseMoney(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Day-first for slashed dates; dashed two-digit years follow the default
// Excel date format (mm-dd-yy).
var dateLayouts = []string{time.DateOnly, "2/1/2006", "01-02-06"}

// parseDate accepts ISO dates, the common spreadsheet display formats and
// raw Excel serial numbers.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
