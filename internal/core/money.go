// Package core provides amount parsing for values typed at the prompt.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts user input to an amount.
//
// Surrounding whitespace is ignored. Negative values are accepted since
// neither budgets nor expenses carry a lower bound. Input that is empty,
// not a number, NaN or infinite yields ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("500")    -> 500, nil
//	ParseAmount(" 12.5 ") -> 12.5, nil
//	ParseAmount("-3")     -> -3, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if err := ValidateAmount(v); err != nil {
		return 0, err
	}
	return v, nil
}
