// internal/app/log.go
package app

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger. format "text" selects the text handler,
// anything else JSON. The returned LevelVar can be adjusted after creation.
func NewLogger(w io.Writer, format string) (*slog.Logger, *slog.LevelVar) {
	logLevel := new(slog.LevelVar)
	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler), logLevel
}

// SetLogLevel maps a LOG_LEVEL value onto v. Unknown values mean info.
func SetLogLevel(level string, v *slog.LevelVar) {
	switch strings.ToLower(level) {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
