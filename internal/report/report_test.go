package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"hisob/internal/core"
)

func ledger() []core.Transaction {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return []core.Transaction{
		{Timestamp: at, Amount: core.Money{Units: 5000000}, Note: "oylik tushdi", Category: core.CategoryIncome},
		{Timestamp: at.Add(time.Hour), Amount: core.Money{Units: -20000}, Note: "kofe", Category: core.CategoryFood},
		{Timestamp: at.Add(2 * time.Hour), Amount: core.Money{Units: -8000}, Note: "salfetka oldim", Category: core.CategoryOther},
	}
}

func TestExportCanBeRestored(t *testing.T) {
	in := ledger()
	data, err := WriteXLSX(in)
	if err != nil {
		t.Fatalf("WriteXLSX error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	rows, err := f.GetRows(SheetName)
	f.Close()
	if err != nil {
		t.Fatalf("GetRows error = %v", err)
	}
	if len(rows) != 4 || strings.Join(rows[0], ",") != "Sana,Summa,Turi,Izoh,Kategoriya" {
		t.Fatalf("rows = %v", rows)
	}
	if rows[2][2] != "Chiqim" || rows[2][4] != "Oziq-ovqat" {
		t.Fatalf("row 3 = %v", rows[2])
	}

	out, err := ReadXLSX(data)
	if err != nil {
		t.Fatalf("ReadXLSX error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("restored %d records, want %d", len(out), len(in))
	}
	for i := range in {
		if !out[i].Timestamp.Equal(in[i].Timestamp) || out[i].Amount != in[i].Amount ||
			out[i].Note != in[i].Note || out[i].Category != in[i].Category {
			t.Fatalf("record %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestWriteEmptyLedger(t *testing.T) {
	data, err := WriteXLSX(nil)
	if err != nil {
		t.Fatalf("WriteXLSX error = %v", err)
	}
	if _, err := ReadXLSX(data); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("ReadXLSX error = %v, want ErrNoRecords", err)
	}
}

func workbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatal(err)
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadHandWrittenWorkbook(t *testing.T) {
	data := workbook(t, "Sheet1", [][]interface{}{
		{"Sana", "Summa", "Turi", "Izoh", "Kategoriya"},
		{"2024-06-01 10:00", "20,000", "Chiqim", "taksi", "transport"},
		{},
		{"2024-06-02", 300000, "Kirim", "qarz qaytdi", ""},
	})
	out, err := ReadXLSX(data)
	if err != nil {
		t.Fatalf("ReadXLSX error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("records = %d, want 2", len(out))
	}
	if out[0].Amount.Units != -20000 || out[0].Category != core.CategoryTransport {
		t.Fatalf("record 1 = %+v", out[0])
	}
	if out[1].Amount.Units != 300000 || out[1].Category != core.CategoryOther {
		t.Fatalf("record 2 = %+v", out[1])
	}
}

func TestReadOlderExpensesLayout(t *testing.T) {
	data := workbook(t, "Sheet1", [][]interface{}{
		{"date", "amount", "description", "type"},
		{"2024-05-01 09:15:00", 5000000, "oylik", "income"},
		{"2024-05-01 13:40:00", 20000, "kofe", "expense"},
		{"2024-05-02 08:00:00", 8000, "salfetka", "expense"},
	})
	out, err := ReadXLSX(data)
	if err != nil {
		t.Fatalf("ReadXLSX error = %v", err)
	}
	want := []struct {
		units int64
		note  string
		cat   core.Category
	}{
		{5000000, "oylik", core.CategoryIncome},
		{-20000, "kofe", core.CategoryFood},
		{-8000, "salfetka", core.CategoryOther},
	}
	if len(out) != len(want) {
		t.Fatalf("records = %d, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i].Amount.Units != w.units || out[i].Note != w.note || out[i].Category != w.cat {
			t.Fatalf("record %d = %+v, want %+v", i+1, out[i], w)
		}
	}
	if out[0].Timestamp.Hour() != 9 || out[0].Timestamp.Minute() != 15 {
		t.Fatalf("timestamp = %v", out[0].Timestamp)
	}
}

func TestReadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"not a workbook", []byte("hello"), "open workbook"},
		{"missing header", workbook(t, SheetName, [][]interface{}{{"2024-06-01", 5}}), "missing header"},
		{"bad amount", workbook(t, SheetName, [][]interface{}{
			{"Sana", "Summa"},
			{"2024-06-01", "lots"},
		}), "row 2: invalid amount"},
		{"bad date", workbook(t, SheetName, [][]interface{}{
			{"Sana", "Summa"},
			{"yesterday", 5},
		}), "row 2: invalid date"},
		{"zero amount", workbook(t, SheetName, [][]interface{}{
			{"Sana", "Summa"},
			{"2024-06-01", 0},
		}), "row 2: amount cannot be zero"},
		{"amount out of range", workbook(t, SheetName, [][]interface{}{
			{"Sana", "Summa"},
			{"2024-06-01", "-9223372036854775808"},
		}), "row 2: amount"},
		{"unknown category", workbook(t, SheetName, [][]interface{}{
			{"Sana", "Summa", "Turi", "Izoh", "Kategoriya"},
			{"2024-06-01", 5, "Kirim", "", "Lottery"},
		}), "unknown category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadXLSX(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("ReadXLSX error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPieChart(t *testing.T) {
	png, err := PieChart("Oxirgi 30 kun", []core.CategoryAmount{
		{Category: core.CategoryFood, Amount: core.Money{Units: 20000}},
		{Category: core.CategoryOther, Amount: core.Money{Units: 8000}},
	})
	if err != nil {
		t.Fatalf("PieChart error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("output is not a PNG")
	}

	if _, err := PieChart("", nil); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("empty chart error = %v, want ErrNoRecords", err)
	}
}
