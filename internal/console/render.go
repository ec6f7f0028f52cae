package console

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"

	"budget/internal/core"
)

const amountFormat = "#,###.##"

// FormatAmount renders an amount with thousands separators and two decimals.
func FormatAmount(v float64) string {
	return humanize.FormatFloat(amountFormat, v)
}

func renderSummary(w io.Writer, s core.Summary) {
	fmt.Fprintf(w, "Current budget: %s\n", FormatAmount(s.Budget))
	fmt.Fprintf(w, "Remaining budget: %s\n", FormatAmount(s.Remaining))
	fmt.Fprintf(w, "Expenses used: %s\n", FormatAmount(s.TotalExpenses))
}

func renderExpenses(w io.Writer, expenses []core.Expense) {
	table := uitable.New()
	table.MaxColWidth = 50
	table.Wrap = true
	table.RightAlign(1)

	table.AddRow("Date", "Amount", "Category", "Description")
	for _, e := range expenses {
		table.AddRow(e.Date, FormatAmount(e.Amount), e.Category, e.Description)
	}
	table.AddRow("", "", "", "")
	table.AddRow("Total", FormatAmount(core.Total(expenses)), "", "")
	fmt.Fprintln(w, table)
}
