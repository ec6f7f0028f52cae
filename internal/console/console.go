// Package console runs the interactive budget tracker menu on top of the
// ledger service.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"budget/internal/core"
	applog "budget/internal/log"
)

// Ledger is the subset of the ledger service driven by the menu.
type Ledger interface {
	Register(ctx context.Context, name, email, password, confirmPassword string) (core.User, error)
	Login(ctx context.Context, email, password string) (core.User, error)
	SetBudget(ctx context.Context, user core.User, amount float64) error
	AddExpense(ctx context.Context, user core.User, expense core.Expense) error
	BudgetSummary(ctx context.Context, user core.User) (core.Summary, error)
	ListExpenses(ctx context.Context, user core.User) ([]core.Expense, error)
}

const (
	msgRegistered      = "Registration successful!"
	msgPasswordsDiffer = "Passwords do not match."
	msgEmailTaken      = "Email already registered."
	msgAuthFailed      = "Invalid email or password."
	msgBudgetSet       = "Budget set successfully!"
	msgExpenseAdded    = "Expense added successfully!"
	msgNoBudget        = "No budget set. Please set your budget first."
	msgNoExpenses      = "No expenses found."
	msgInvalidChoice   = "Invalid choice. Please choose again."
	msgInvalidAmount   = "Invalid amount. Please enter a number."
)

// Console is one interactive session. Messages go to out, input comes from
// the prompter.
type Console struct {
	ledger Ledger
	in     Prompter
	out    io.Writer
	logger *applog.Logger
}

func New(ledger Ledger, in Prompter, out io.Writer, logger *applog.Logger) *Console {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Console{
		ledger: ledger,
		in:     in,
		out:    out,
		logger: logger.WithComponent(applog.ComponentCLI),
	}
}

// Run shows the login menu until a user authenticates, then the ledger
// menu until they choose Exit. Closing the input ends the session without
// error. Any error other than a user-facing ledger failure is returned;
// errors wrapping core.ErrStoreUnreadable should terminate the process.
func (c *Console) Run(ctx context.Context) error {
	user, err := c.authenticate(ctx)
	if err != nil {
		return ignoreEOF(err)
	}
	return ignoreEOF(c.ledgerMenu(ctx, user))
}

func (c *Console) authenticate(ctx context.Context) (core.User, error) {
	for {
		c.println("1. Register")
		c.println("2. Login")
		// Choices match exactly; " 1" is not "1".
		choice, err := c.in.Prompt("Choose an option: ")
		if err != nil {
			return core.User{}, err
		}

		switch choice {
		case "1":
			if err := c.register(ctx); err != nil {
				return core.User{}, err
			}
		case "2":
			user, ok, err := c.login(ctx)
			if err != nil {
				return core.User{}, err
			}
			if ok {
				return user, nil
			}
		default:
			c.println(msgInvalidChoice)
		}
	}
}

func (c *Console) ledgerMenu(ctx context.Context, user core.User) error {
	for {
		c.println("")
		c.println("1. Set Budget")
		c.println("2. Add Expense")
		c.println("3. Display Budget")
		c.println("4. Display Expenses")
		c.println("5. Exit")
		choice, err := c.in.Prompt("Choose an option: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = c.setBudget(ctx, user)
		case "2":
			err = c.addExpense(ctx, user)
		case "3":
			err = c.displayBudget(ctx, user)
		case "4":
			err = c.displayExpenses(ctx, user)
		case "5":
			return nil
		default:
			c.println(msgInvalidChoice)
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) register(ctx context.Context) error {
	name, err := c.in.Prompt("Enter your name: ")
	if err != nil {
		return err
	}
	email, err := c.in.Prompt("Enter your email: ")
	if err != nil {
		return err
	}
	password, err := c.in.PasswordPrompt("Enter your password: ")
	if err != nil {
		return err
	}
	confirm, err := c.in.PasswordPrompt("Confirm your password: ")
	if err != nil {
		return err
	}

	_, err = c.ledger.Register(ctx, name, email, password, confirm)
	switch {
	case err == nil:
		c.println(msgRegistered)
	case errors.Is(err, core.ErrPasswordMismatch):
		c.println(msgPasswordsDiffer)
	case errors.Is(err, core.ErrDuplicateEmail):
		c.println(msgEmailTaken)
	default:
		return err
	}
	return nil
}

func (c *Console) login(ctx context.Context) (core.User, bool, error) {
	email, err := c.in.Prompt("Enter your email: ")
	if err != nil {
		return core.User{}, false, err
	}
	password, err := c.in.PasswordPrompt("Enter your password: ")
	if err != nil {
		return core.User{}, false, err
	}

	user, err := c.ledger.Login(ctx, email, password)
	if errors.Is(err, core.ErrAuthFailure) {
		c.println(msgAuthFailed)
		return core.User{}, false, nil
	}
	if err != nil {
		return core.User{}, false, err
	}
	c.printf("Welcome, %s!\n", user.Name)
	return user, true, nil
}

func (c *Console) setBudget(ctx context.Context, user core.User) error {
	amount, ok, err := c.promptAmount("Enter your budget amount: ")
	if err != nil || !ok {
		return err
	}

	if err := c.ledger.SetBudget(ctx, user, amount); err != nil {
		return c.ledgerError(err)
	}
	c.println(msgBudgetSet)
	return nil
}

func (c *Console) addExpense(ctx context.Context, user core.User) error {
	amount, ok, err := c.promptAmount("Enter the amount: ")
	if err != nil || !ok {
		return err
	}
	date, err := c.in.Prompt("Enter the date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	category, err := c.in.Prompt("Enter the category: ")
	if err != nil {
		return err
	}
	description, err := c.in.Prompt("Enter the description: ")
	if err != nil {
		return err
	}

	expense := core.Expense{
		Amount:      amount,
		Date:        date,
		Category:    category,
		Description: description,
	}
	if err := c.ledger.AddExpense(ctx, user, expense); err != nil {
		return c.ledgerError(err)
	}
	c.println(msgExpenseAdded)
	return nil
}

func (c *Console) displayBudget(ctx context.Context, user core.User) error {
	summary, err := c.ledger.BudgetSummary(ctx, user)
	if errors.Is(err, core.ErrNoBudgetSet) {
		c.println(msgNoBudget)
		return nil
	}
	if err != nil {
		return err
	}
	renderSummary(c.out, summary)
	return nil
}

func (c *Console) displayExpenses(ctx context.Context, user core.User) error {
	expenses, err := c.ledger.ListExpenses(ctx, user)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		c.println(msgNoExpenses)
		return nil
	}
	renderExpenses(c.out, expenses)
	return nil
}

// promptAmount reads a number. Unparseable input prints a message and
// reports ok=false so the caller returns to the menu.
func (c *Console) promptAmount(prompt string) (float64, bool, error) {
	input, err := c.in.Prompt(prompt)
	if err != nil {
		return 0, false, err
	}
	amount, err := core.ParseAmount(input)
	if err != nil {
		c.logger.Debug("Rejected amount input",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeValidation)
		c.println(msgInvalidAmount)
		return 0, false, nil
	}
	return amount, true, nil
}

func (c *Console) ledgerError(err error) error {
	if errors.Is(err, core.ErrInvalidAmount) {
		c.println(msgInvalidAmount)
		return nil
	}
	return err
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
