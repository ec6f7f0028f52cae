package core

// Summary combines a user's budget with the total of their recorded expenses.
type Summary struct {
	Budget        float64
	TotalExpenses float64
	Remaining     float64 // negative when over budget
}

// BudgetAlert describes a user whose expenses have passed their budget.
type BudgetAlert struct {
	Email     string
	Budget    float64
	Total     float64
	Remaining float64
}

// Total sums the amounts of the given expenses.
func Total(expenses []Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// NewSummary computes the summary for a budget and its expenses.
func NewSummary(budget float64, expenses []Expense) Summary {
	total := Total(expenses)
	return Summary{
		Budget:        budget,
		TotalExpenses: total,
		Remaining:     budget - total,
	}
}

// OverBudget reports whether expenses exceed the budget.
func (s Summary) OverBudget() bool {
	return s.Remaining < 0
}
