// Package strutil provides string utilities for case conversion and SQL naming
// used throughout the erdgen codebase.
package strutil

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// -----------------------------------------------------------------------------
// Case Conversion
// -----------------------------------------------------------------------------

// ToSnakeCase converts a string to snake_case.
// Examples: userName -> user_name, UserName -> user_name, HTTPServer -> http_server
func ToSnakeCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s) + 4)

	for i, r := range s {
		if unicode.IsUpper(r) {
			// Add underscore before uppercase letter if:
			// - Not at the start
			// - Previous char is lowercase, OR
			// - Next char exists and is lowercase (handles "HTTPServer" -> "http_server")
			if i > 0 {
				prev := rune(s[i-1])
				if unicode.IsLower(prev) {
					result.WriteByte('_')
				} else if i+1 < len(s) && unicode.IsLower(rune(s[i+1])) {
					result.WriteByte('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else if r == '-' || r == ' ' {
			result.WriteByte('_')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// ToPascalCase converts a string to PascalCase.
// Examples: user_name -> UserName, user-name -> UserName
func ToPascalCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s))

	capitalizeNext := true
	for _, r := range s {
		if r == '_' || r == '-' || r == ' ' {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			result.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
		} else {
			result.WriteRune(unicode.ToLower(r))
		}
	}

	return result.String()
}

// -----------------------------------------------------------------------------
// SQL Naming
// -----------------------------------------------------------------------------

// TableName derives the SQL table name for an entity: snake_case, pluralized.
// Examples: Author -> authors, OrderItem -> order_items
func TableName(entity string) string {
	return inflection.Plural(ToSnakeCase(entity))
}

// FKColumn returns the default foreign key column name for a target table:
// the singular of the table plus "_id".
// Example: FKColumn("authors") -> "author_id"
func FKColumn(table string) string {
	return inflection.Singular(table) + "_id"
}

// ConstraintName returns the FK constraint name for a table and column.
// Example: ConstraintName("books", "author_id") -> "fk_books_author_id"
func ConstraintName(table, column string) string {
	return "fk_" + table + "_" + column
}

// IndexName returns the index name for a table and columns.
// Example: IndexName("books", "author_id") -> "idx_books_author_id"
func IndexName(table string, cols ...string) string {
	parts := []string{"idx", table}
	parts = append(parts, cols...)
	return strings.Join(parts, "_")
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

// Indent indents each non-empty line of text with the given number of spaces.
func Indent(text string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
