package report

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"hisob/internal/core"
)

// PieChart draws category totals as a PNG. Zero and negative slices are left out.
func PieChart(title string, amounts []core.CategoryAmount) ([]byte, error) {
	values := make([]chart.Value, 0, len(amounts))
	for _, a := range amounts {
		if a.Amount.Units <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(a.Amount.Units),
			Label: fmt.Sprintf("%s: %s", a.Category.Title(), a.Amount),
		})
	}
	if len(values) == 0 {
		return nil, ErrNoRecords
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  640,
		Height: 640,
		Values: values,
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}
