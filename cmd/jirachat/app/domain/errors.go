package domain

import "errors"

// Credential failures surfaced as HTTP client errors. Everything else in the
// answer path degrades to context text instead of failing the request.
var (
	ErrSettingsNotFound   = errors.New("jira settings not found")
	ErrTokenNotFound      = errors.New("jira token not found")
	ErrIncompleteSettings = errors.New("incomplete jira settings")
	ErrJiraAuth           = errors.New("jira authentication failed")
)
