// Package report renders the ledger as files the bot can send: an .xlsx
// export (which can be read back to restore the ledger) and a PNG chart.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"hisob/internal/category"
	"hisob/internal/core"
)

const (
	// SheetName is the worksheet written by WriteXLSX and preferred by ReadXLSX.
	SheetName = "Hisobot"
	// FileName is the name the export is sent under.
	FileName = "hisobot.xlsx"
)

var columns = []string{"Sana", "Summa", "Turi", "Izoh", "Kategoriya"}

var ErrNoRecords = errors.New("no records")

// noteClassifier labels imported rows that carry no category column.
var noteClassifier = category.Default()

// WriteXLSX renders txs, oldest first, into an in-memory workbook.
func WriteXLSX(txs []core.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", "E1", style)
	}

	for i, t := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			t.Timestamp.Format(time.RFC3339),
			t.Amount.Units,
			t.Kind().Title(),
			t.Note,
			t.Category.Title(),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for col, width := range map[string]float64{"A": 26, "B": 14, "C": 10, "D": 40, "E": 16} {
		_ = f.SetColWidth(SheetName, col, col, width)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadXLSX parses a workbook produced by WriteXLSX, or the older
// date/amount/description/type layout. The first row must be the header and
// columns are found by name. The type column, when present, decides the sign
// of the amount. Rows without a category column are classified from their
// note. Any bad row rejects the whole file so a restore never half-applies.
func ReadXLSX(data []byte) ([]core.Transaction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(SheetName); idx < 0 {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s: missing header %v", sheet, columns)
	}
	l, ok := detectLayout(rows[0])
	if !ok {
		return nil, fmt.Errorf("sheet %s: missing header %v", sheet, columns)
	}

	var out []core.Transaction
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		t, err := l.parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNoRecords
	}
	return out, nil
}

// layout holds the column index of each field; -1 means absent.
type layout struct {
	date, amount, kind, note, category int
}

var headerNames = map[string]string{
	"sana": "date", "date": "date",
	"summa": "amount", "amount": "amount",
	"turi": "kind", "type": "kind",
	"izoh": "note", "description": "note",
	"kategoriya": "category", "category": "category",
}

// detectLayout maps header cells to fields. Date and amount are required.
func detectLayout(header []string) (layout, bool) {
	l := layout{date: -1, amount: -1, kind: -1, note: -1, category: -1}
	for i, h := range header {
		field := headerNames[strings.ToLower(strings.TrimSpace(h))]
		switch {
		case field == "date" && l.date < 0:
			l.date = i
		case field == "amount" && l.amount < 0:
			l.amount = i
		case field == "kind" && l.kind < 0:
			l.kind = i
		case field == "note" && l.note < 0:
			l.note = i
		case field == "category" && l.category < 0:
			l.category = i
		}
	}
	return l, l.date >= 0 && l.amount >= 0
}

func (l layout) parseRow(row []string) (core.Transaction, error) {
	ts, err := parseTime(cell(row, l.date))
	if err != nil {
		return core.Transaction{}, err
	}
	raw := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(cell(row, l.amount))
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q", cell(row, l.amount))
	}
	if amount < -core.MaxAmount || amount > core.MaxAmount {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", cell(row, l.amount), core.ErrAmountTooLarge)
	}
	switch strings.ToLower(cell(row, l.kind)) {
	case "chiqim", "expense":
		if amount > 0 {
			amount = -amount
		}
	case "kirim", "income":
		if amount < 0 {
			amount = -amount
		}
	}

	t := core.Transaction{
		Timestamp: ts,
		Amount:    core.Money{Units: amount},
		Note:      cell(row, l.note),
	}
	if l.category < 0 {
		t.Category = noteClassifier.Classify(t.Note)
	} else if name := cell(row, l.category); name != "" {
		c, err := core.ParseCategory(name)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("unknown category %q", name)
		}
		t.Category = c
	} else {
		t.Category = core.CategoryOther
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
