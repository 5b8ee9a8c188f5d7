package serial

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrocore/internal/timeutil"
)

// pipePorter adapts an io.Reader/io.Writer pair from io.Pipe into a
// Porter, for tests that don't have real serial hardware.
type pipePorter struct {
	io.Reader
	io.Writer
}

func (pipePorter) Close() error { return nil }

type fakeSink struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeSink) Ingest(name, source string, timeUs int64, data []byte, wallNowUs int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, string(data))
}

func (f *fakeSink) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func TestRunDeliversEachLineToSink(t *testing.T) {
	t.Parallel()
	r, w := io.Pipe()
	port := pipePorter{Reader: r, Writer: w}
	src := New(port, timeutil.NewMockClock(time.Unix(0, 0)), "gnss1", "serial:/dev/ttyUSB0")
	sink := &fakeSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, sink) }()

	io.WriteString(w, "$GPRMC,000000,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\n")
	io.WriteString(w, "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\n")

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, time.Second, time.Millisecond)

	cancel()
	w.Close()
	<-done

	lines := sink.snapshot()
	assert.Contains(t, lines[0], "GPRMC")
	assert.Contains(t, lines[1], "GPGGA")
}

func TestRunReturnsNilOnContextCancel(t *testing.T) {
	t.Parallel()
	r, w := io.Pipe()
	port := pipePorter{Reader: r, Writer: w}
	src := New(port, timeutil.RealClock{}, "gnss1", "serial:/dev/ttyUSB0")
	sink := &fakeSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := src.Run(ctx, sink)
	assert.NoError(t, err)
	w.Close()
}

func TestRunSkipsEmptyLines(t *testing.T) {
	t.Parallel()
	r, w := io.Pipe()
	port := pipePorter{Reader: r, Writer: w}
	src := New(port, timeutil.NewMockClock(time.Unix(0, 0)), "gnss1", "serial:/dev/ttyUSB0")
	sink := &fakeSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, sink) }()

	io.WriteString(w, "\n")
	io.WriteString(w, "$GPRMC,000000,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\n")

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, time.Millisecond)

	cancel()
	w.Close()
	<-done
}
