// Package jql provides small helpers for composing JQL expressions.
package jql

import "strings"

const defaultOrdering = " ORDER BY created DESC"

// EnsureOrdering appends a deterministic fallback ordering clause when the
// expression carries no explicit ORDER BY.
func EnsureOrdering(expr string) string {
	if strings.Contains(strings.ToLower(expr), "order by") {
		return expr
	}
	return expr + defaultOrdering
}

// Quote wraps a value in double quotes, escaping backslashes and embedded
// quotes so values like project keys can be placed in a JQL expression.
func Quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
