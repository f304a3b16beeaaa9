// Package logging builds the application's *slog.Logger.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging and production: JSON output at DEBUG and INFO level respectively.
// Explicit level and format settings override the environment defaults.
//
// Every handler redacts user e-mail addresses and credential-like fields
// through masq before they are written.
package logging

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/m-mizutani/masq"
)

// New returns a logger for env, honoring level and format when set.
func New(env, level, format string, w io.Writer) *slog.Logger {
	defLevel, defFormat := defaults(env)
	if level == "" {
		level = defLevel
	}
	if format == "" {
		format = defFormat
	}

	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: redactor(),
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func defaults(env string) (level, format string) {
	switch env {
	case "prod":
		return "info", "json"
	case "staging":
		return "debug", "json"
	default:
		return "debug", "text"
	}
}

// parseLevel converts a level string to slog.Level.
// Unrecognized values default to slog.LevelInfo.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// emailPattern finds an address anywhere inside a string value, so a
// message or URL that embeds one is masked whatever its attribute key.
var emailPattern = regexp.MustCompile(`[^\s@&=?/"]+@[^\s@&=?/"]+\.[^\s@&=?/"]+`)

// redactor masks PII and secrets by attribute or struct field name, and
// any string value that contains an e-mail address.
func redactor() func([]string, slog.Attr) slog.Attr {
	return masq.New(
		masq.WithRegex(emailPattern),
		masq.WithFieldName("email"),
		masq.WithFieldName("Email"),
		masq.WithFieldName("password"),
		masq.WithFieldName("token"),
		masq.WithFieldPrefix("secret"),
	)
}
