// Package logging builds the process logger and redacts secrets before
// they reach it.
package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedText replaces sensitive values.
const RedactedText = "[REDACTED]"

var (
	// user:pass@host in URLs
	credentialsPattern = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)

	// password=xxx in key/value DSNs and query strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+\S+`)
)

// New builds a zap logger. level is a zap level name ("debug", "info",
// ...); development switches to the console encoder with stack traces on
// warnings.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// SanitizeDSN removes credentials from a connection string.
func SanitizeDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	sanitized := credentialsPattern.ReplaceAllString(dsn, "://"+RedactedText+"@")
	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// SanitizeToken masks a bearer credential in a header value.
func SanitizeToken(header string) string {
	return bearerPattern.ReplaceAllString(header, "Bearer "+RedactedText)
}
