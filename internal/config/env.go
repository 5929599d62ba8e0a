package config

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Environment variables read by a run.
const (
	EnvTimeout = "TIMEOUT"
	EnvDebug   = "DEBUG"
)

// Env holds the environment settings of a run.
type Env struct {
	Timeout string // raw duration text, empty when unbounded
	Debug   bool
}

// FromEnv reads the run environment through lookup (os.LookupEnv in
// production).
func FromEnv(lookup func(string) (string, bool)) Env {
	var e Env
	if v, ok := lookup(EnvTimeout); ok {
		e.Timeout = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDebug); ok {
		e.Debug = truthy(v)
	}
	return e
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// NewLogger returns the diagnostic logger. Debug logging goes to w as
// text; otherwise everything is discarded.
func NewLogger(debug bool, w io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
