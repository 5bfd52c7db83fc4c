// Package logging wires zerolog the way cuemby-warren's pkg/log does: one
// configured root logger, per-subsystem children carrying a fixed "comp"
// field, no global mutable logger swapped out from under callers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var root = zerolog.New(defaultWriter()).With().Timestamp().Logger()

func defaultWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

// SetWriter redirects all future loggers (tests use this to capture output).
func SetWriter(w io.Writer) {
	root = zerolog.New(w).With().Timestamp().Logger()
}

// For returns a logger tagged with the given subsystem name, e.g.
// logging.For("indexer") or logging.For("kv").
func For(component string) zerolog.Logger {
	return root.With().Str("comp", component).Logger()
}

// WithIndex attaches the index directory name, used throughout internal/index
// and internal/rank so multi-index processes can be told apart in logs.
func WithIndex(l zerolog.Logger, indexName string) zerolog.Logger {
	return l.With().Str("index", indexName).Logger()
}
