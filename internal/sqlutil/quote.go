// Package sqlutil provides SQL identifier helpers for historytracker.
package sqlutil

import (
	"regexp"
	"strings"
)

// MaxIdentifierLength is the longest table or column name MySQL accepts.
const MaxIdentifierLength = 64

// identifierPattern restricts names to ASCII letters, digits and underscores.
var identifierPattern = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// QuoteIdentifier wraps a MySQL identifier in backticks, doubling embedded backticks.
//
//	"history_entries" -> "`history_entries`"
//	"odd`name"        -> "`odd``name`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// IsValidIdentifier reports whether name is safe to interpolate as a table or
// column name: non-empty, at most MaxIdentifierLength bytes, and made only of
// letters, digits and underscores.
func IsValidIdentifier(name string) bool {
	return len(name) <= MaxIdentifierLength && identifierPattern.MatchString(name)
}

// QuoteIdentifierSafe validates name and returns it quoted.
// Table names read from configuration go through here before reaching SQL.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// InvalidIdentifierError is returned when an identifier fails validation.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must be 1-64 alphanumeric characters or underscores)"
}
