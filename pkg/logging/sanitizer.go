package logging

import (
	"regexp"

	"go.uber.org/zap"
)

// RedactedText replaces sensitive values in log output.
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx in key/value connection strings
	keyValueSecret = regexp.MustCompile(`(?i)\b(password|pwd|pass)=[^;&\s]+`)

	// user:pass@ in URL-style connection strings
	urlCredentials = regexp.MustCompile(`://([^:/@\s]+):[^@\s]+@`)
)

// SanitizeConnectionString removes passwords from a PostgreSQL or Redis
// connection string. The user name and host are kept for diagnostics.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := keyValueSecret.ReplaceAllString(connStr, "${1}="+RedactedText)
	return urlCredentials.ReplaceAllString(sanitized, "://${1}:"+RedactedText+"@")
}

// SanitizeError returns the error text with any embedded credentials removed.
// Driver errors can echo the DSN they failed to connect with.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeConnectionString(err.Error())
}

// SafeError is zap.Error with the message passed through SanitizeError.
func SafeError(err error) zap.Field {
	return zap.String("error", SanitizeError(err))
}
