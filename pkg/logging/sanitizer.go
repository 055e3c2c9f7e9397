// Package logging masks identity-bearing values before they reach log
// output. Error messages and logs must never act as a side channel for
// another customer's data.
package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQuestionLogLength caps how much of a user question is logged.
	MaxQuestionLogLength = 120
	// RedactedText replaces sensitive values.
	RedactedText = "[REDACTED]"
)

var (
	// password=..., pwd=..., pass=... in connection strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// api keys in URLs or error strings
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// user:pass@host credentials in connection URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// MaskEmail hides the local part of an email address: "a***@example.com".
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return RedactedText
	}
	return email[:1] + "***" + email[at:]
}

// MaskSubjectID shortens a caller identity for logging, keeping enough to
// correlate requests without recording the full id.
func MaskSubjectID(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return id[:4] + "****"
}

// SanitizeConnectionString removes credentials from a store URL before it
// is logged.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError scrubs credentials and email addresses from an error
// message before logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return emailPattern.ReplaceAllString(sanitized, RedactedText)
}

// SanitizeQuestion truncates a user question for logging and scrubs any
// embedded email address.
func SanitizeQuestion(question string) string {
	sanitized := emailPattern.ReplaceAllString(question, RedactedText)
	if len(sanitized) > MaxQuestionLogLength {
		sanitized = sanitized[:MaxQuestionLogLength] + "..."
	}
	return sanitized
}
