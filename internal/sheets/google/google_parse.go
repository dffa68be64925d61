package google

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"hisob/internal/core"
)

var header = []string{"Sana", "Summa", "Turi", "Izoh", "Kategoriya"}

func headerRow() []interface{} {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

func formatRow(t core.Transaction) []interface{} {
	return []interface{}{
		t.Timestamp.UTC().Format(time.RFC3339Nano),
		t.Amount.Units,
		t.Kind().Title(),
		t.Note,
		string(t.Category),
	}
}

// parseRows converts a values matrix into transactions. It returns the 1-based
// sheet row numbers that were skipped; the header row is never reported.
func parseRows(values [][]interface{}) ([]core.Transaction, []int) {
	var (
		out     []core.Transaction
		skipped []int
	)
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && len(cols) > 0 && strings.EqualFold(cols[0], header[0]) {
			continue
		}
		if isBlank(cols) {
			continue
		}
		t, err := parseRow(row)
		if err != nil {
			skipped = append(skipped, i+1)
			continue
		}
		out = append(out, t)
	}
	return out, skipped
}

func parseRow(row []interface{}) (core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < 2 {
		return core.Transaction{}, fmt.Errorf("expected at least 2 columns, got %d", len(cols))
	}
	ts, err := parseTimestamp(cols[0])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseAmount(row[1])
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Timestamp: ts,
		Amount:    core.Money{Units: amount},
		Note:      safeGet(cols, 3),
		Category:  core.CategoryOther,
	}
	if c, err := core.ParseCategory(safeGet(cols, 4)); err == nil {
		t.Category = c
	}
	return t, t.Validate()
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// parseAmount accepts API numbers and grouped strings such as "-20,000".
func parseAmount(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64/2 {
			return 0, fmt.Errorf("invalid amount %v", n)
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	s = strings.NewReplacer(",", "", " ", "", " ", "").Replace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
