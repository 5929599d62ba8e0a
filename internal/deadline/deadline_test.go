package deadline_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codacy/codacy-govet/internal/config"
	"github.com/codacy/codacy-govet/internal/deadline"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0", 0},
		{"15", 15 * time.Second},
		{"1 second", time.Second},
		{"30 seconds", 30 * time.Second},
		{"2.minutes", 2 * time.Minute},
		{"1minute", time.Minute},
		{"1 hour", time.Hour},
		{"3 hours", 3 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := deadline.ParseTimeout(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeoutRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-5", "5 days", "1 second extra", "1.5 seconds", "seconds", "99999999999", " 5"} {
		t.Run(in, func(t *testing.T) {
			_, err := deadline.ParseTimeout(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}

type exitRecorder struct {
	codes chan int
}

func newGovernor() (*deadline.Governor, *exitRecorder, *bytes.Buffer) {
	rec := &exitRecorder{codes: make(chan int, 1)}
	var stderr bytes.Buffer
	g := deadline.New(nil)
	g.Exit = func(code int) { rec.codes <- code }
	g.Stderr = &stderr
	return g, rec, &stderr
}

func TestRunWithoutTimeout(t *testing.T) {
	g, rec, _ := newGovernor()
	want := errors.New("work failed")

	err := g.Run(context.Background(), "", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return want
	})
	require.ErrorIs(t, err, want)
	assert.Empty(t, rec.codes)
}

func TestRunMalformedTimeout(t *testing.T) {
	g, rec, stderr := newGovernor()
	ran, cleaned := false, false
	g.AtExit(func() error { cleaned = true; return nil })

	err := g.Run(context.Background(), "ten minutes", func(context.Context) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, config.ErrConfiguration)
	assert.False(t, ran)
	assert.True(t, cleaned)
	assert.Equal(t, deadline.ExitConfiguration, <-rec.codes)
	assert.Equal(t, "can't parse 'TIMEOUT' environment variable (ten minutes)\n", stderr.String())
}

func TestRunFinishesBeforeTimeout(t *testing.T) {
	g, rec, _ := newGovernor()

	err := g.Run(context.Background(), "1 hour", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, rec.codes)
}

func TestRunTimeoutCancelsAndExits(t *testing.T) {
	g, rec, _ := newGovernor()
	var order []string
	g.AtExit(func() error { order = append(order, "first"); return nil })
	g.AtExit(func() error { order = append(order, "second"); return errors.New("ignored") })

	cancelled := make(chan struct{})
	err := g.Run(context.Background(), "0", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	require.ErrorIs(t, err, deadline.ErrTimeout)
	assert.Equal(t, deadline.ExitTimeout, <-rec.codes)
	assert.Equal(t, []string{"second", "first"}, order)

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("work was not cancelled")
	}
}

func TestRunTimeoutDoesNotWaitForWork(t *testing.T) {
	g, rec, _ := newGovernor()
	release := make(chan struct{})
	defer close(release)

	err := g.Run(context.Background(), "0 seconds", func(context.Context) error {
		<-release
		return nil
	})
	require.ErrorIs(t, err, deadline.ErrTimeout)
	assert.Equal(t, deadline.ExitTimeout, <-rec.codes)
}
