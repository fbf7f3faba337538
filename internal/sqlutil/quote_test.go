package sqlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "History table", input: "history_entries", expected: "`history_entries`"},
		{name: "Mixed case", input: "BlogPosts", expected: "`BlogPosts`"},
		{name: "Empty string", input: "", expected: "``"},
		{name: "Embedded backtick", input: "odd`name", expected: "`odd``name`"},
		{name: "Only backticks", input: "``", expected: "``````"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "Simple", input: "comments", valid: true},
		{name: "Underscore", input: "post_history", valid: true},
		{name: "Digits", input: "audit2024", valid: true},
		{name: "Max length", input: strings.Repeat("a", MaxIdentifierLength), valid: true},
		{name: "Too long", input: strings.Repeat("a", MaxIdentifierLength+1), valid: false},
		{name: "Empty", input: "", valid: false},
		{name: "Space", input: "history entries", valid: false},
		{name: "Hyphen", input: "history-entries", valid: false},
		{name: "Schema qualified", input: "audit.history", valid: false},
		{name: "Injection", input: "x; DROP TABLE users", valid: false},
		{name: "Unicode", input: "histoire_é", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidIdentifier(tt.input))
		})
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("history_entries")
	require.NoError(t, err)
	assert.Equal(t, "`history_entries`", quoted)

	quoted, err = QuoteIdentifierSafe("bad`name")
	require.Error(t, err)
	assert.Empty(t, quoted)

	var idErr *InvalidIdentifierError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "bad`name", idErr.Name)
	assert.Contains(t, err.Error(), "invalid identifier: bad`name")
}
