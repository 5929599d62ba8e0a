// Package deadline bounds one analysis run by the duration read from the
// TIMEOUT environment variable and terminates the process when it expires.
package deadline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/codacy/codacy-govet/internal/config"
)

// Exit codes of the governed process.
const (
	ExitConfiguration = 1
	ExitTimeout       = 2
)

// ErrTimeout is returned by Run when the deadline expired and Exit returned.
var ErrTimeout = errors.New("analysis timed out")

var timeoutPattern = regexp.MustCompile(`^(\d+)(?:[ .]?([a-z]+))?$`)

var units = map[string]time.Duration{
	"":        time.Second,
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
}

// ParseTimeout parses "<integer>[ |.]<unit>" where unit is second(s),
// minute(s) or hour(s). A bare integer is a number of seconds.
func ParseTimeout(text string) (time.Duration, error) {
	m := timeoutPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: invalid timeout %q", config.ErrConfiguration, text)
	}
	unit, ok := units[m[2]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown timeout unit %q", config.ErrConfiguration, m[2])
	}
	n, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid timeout %q: %w", config.ErrConfiguration, text, err)
	}
	if n > int64(math.MaxInt64/unit) {
		return 0, fmt.Errorf("%w: timeout %q out of range", config.ErrConfiguration, text)
	}
	return time.Duration(n) * unit, nil
}

// Governor runs work under the process-wide deadline. Exit and Stderr
// default to os.Exit and os.Stderr.
type Governor struct {
	Exit   func(code int)
	Stderr io.Writer
	Logger *slog.Logger

	mu       sync.Mutex
	cleanups []func() error
}

// New creates a governor terminating the real process.
func New(logger *slog.Logger) *Governor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Governor{Exit: os.Exit, Stderr: os.Stderr, Logger: logger}
}

// AtExit registers fn to run before Run terminates the process. Functions
// run in reverse registration order, at most once.
func (g *Governor) AtExit(fn func() error) {
	g.mu.Lock()
	g.cleanups = append(g.cleanups, fn)
	g.mu.Unlock()
}

// Run executes work. With empty text work runs unbounded and its error is
// returned. Malformed text writes a diagnostic to Stderr, runs cleanups and
// exits with ExitConfiguration without running work. Otherwise work races a timer:
// if the timer fires first, work's context is cancelled, cleanups run and
// the process exits with ExitTimeout without waiting for work to return.
func (g *Governor) Run(ctx context.Context, text string, work func(context.Context) error) error {
	if text == "" {
		return work(ctx)
	}

	timeout, err := ParseTimeout(text)
	if err != nil {
		fmt.Fprintf(g.stderr(), "can't parse 'TIMEOUT' environment variable (%s)\n", text)
		g.logger().Debug("invalid timeout", "error", err)
		g.runCleanups()
		g.exit(ExitConfiguration)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- work(ctx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		cancel()
		g.logger().Debug("timeout exceeded", "timeout", timeout)
		g.runCleanups()
		g.exit(ExitTimeout)
		return ErrTimeout
	}
}

func (g *Governor) runCleanups() {
	g.mu.Lock()
	fns := slices.Clone(g.cleanups)
	g.cleanups = nil
	g.mu.Unlock()

	for _, fn := range slices.Backward(fns) {
		if err := fn(); err != nil {
			g.logger().Debug("cleanup failed", "error", err)
		}
	}
}

func (g *Governor) exit(code int) {
	if g.Exit != nil {
		g.Exit(code)
	}
}

func (g *Governor) stderr() io.Writer {
	if g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

func (g *Governor) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}
