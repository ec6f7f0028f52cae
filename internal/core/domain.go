package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
)

type (
	// Document is the whole persisted state, loaded and saved as one unit.
	Document struct {
		Users    []User               `json:"users"`
		Budgets  map[string]float64   `json:"budgets"`
		Expenses map[string][]Expense `json:"expenses"`
	}

	User struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		PasswordDigest string `json:"password"`
	}

	Expense struct {
		Amount      float64 `json:"amount"`
		Date        string  `json:"date"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
	}
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrAuthFailure      = errors.New("invalid email or password")
	ErrNoBudgetSet      = errors.New("no budget set")
	ErrStoreUnreadable  = errors.New("store unreadable")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// NewDocument returns an empty document with non-nil collections.
func NewDocument() Document {
	return Document{
		Users:    []User{},
		Budgets:  map[string]float64{},
		Expenses: map[string][]Expense{},
	}
}

// Normalize replaces nil collections with empty ones so the document
// always serializes as [] and {} rather than null.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Budgets == nil {
		d.Budgets = map[string]float64{}
	}
	if d.Expenses == nil {
		d.Expenses = map[string][]Expense{}
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := NewDocument()
	out.Users = append(out.Users, d.Users...)
	for email, amount := range d.Budgets {
		out.Budgets[email] = amount
	}
	for email, expenses := range d.Expenses {
		out.Expenses[email] = append([]Expense{}, expenses...)
	}
	return out
}

// FindUser returns the index of the user registered with email, or -1.
func (d Document) FindUser(email string) int {
	for i, u := range d.Users {
		if u.Email == email {
			return i
		}
	}
	return -1
}

// Digest returns the lowercase hex SHA-256 of the password text.
func Digest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// ValidateAmount rejects values that cannot be stored in the document.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}
