package training

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/YuminosukeSato/burnrate/registry"
)

// WriteReport renders the candidate scores of m as a table, marking the
// selected model.
func WriteReport(w io.Writer, m *registry.Manifest) {
	highlight := color.New(color.FgGreen, color.Bold).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Model", "MSE", "RMSE", "MAE", "R2", ""})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, c := range m.Candidates {
		name, mark := c.Name, ""
		if c.Name == m.Best {
			name, mark = highlight(c.Name), highlight("best")
		}
		table.Append([]string{
			name,
			fmt.Sprintf("%.6f", c.MSE),
			fmt.Sprintf("%.6f", c.RMSE),
			fmt.Sprintf("%.6f", c.MAE),
			fmt.Sprintf("%.4f", c.R2),
			mark,
		})
	}
	table.Render()

	fmt.Fprintf(w, "run %s: %d training rows, %d validation rows, %d dropped\n",
		m.RunID, m.TrainingRows, m.ValidationRows, m.DroppedRows)
}
