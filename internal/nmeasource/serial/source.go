package serial

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"

	"hydrocore/internal/obslog"
	"hydrocore/internal/timeutil"
)

// Porter is the minimal interface this package needs from a serial
// port, letting tests substitute an in-memory pipe in place of real
// hardware.
type Porter interface {
	io.ReadWriteCloser
}

// Sink receives sentences read off the serial port. navigation.Model
// satisfies this directly via its own Ingest method.
type Sink interface {
	Ingest(name, source string, timeUs int64, data []byte, wallNowUs int64)
}

// Source reads line-oriented NMEA sentences off a Porter and feeds them
// to a Sink, one Ingest call per line.
type Source struct {
	port   Porter
	clock  timeutil.Clock
	sensor string // name passed through to Sink.Ingest
	origin string // source label passed through to Sink.Ingest
}

// Open opens a real serial port at path with opts and wraps it in a
// Source that will identify itself to the sink as sensor/origin
// (adapted from serialmux/factory.go's NewRealSerialMux).
func Open(path string, opts PortOptions, sensor, origin string) (*Source, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("nmeasource/serial: open %s: %w", path, err)
	}
	obslog.Logf("nmeasource/serial: opened %s for sensor %s", path, sensor)
	return New(port, timeutil.RealClock{}, sensor, origin), nil
}

// New wraps an already-opened Porter (real or fake) in a Source.
func New(port Porter, clock timeutil.Clock, sensor, origin string) *Source {
	return &Source{port: port, clock: clock, sensor: sensor, origin: origin}
}

// Close releases the underlying port.
func (s *Source) Close() error {
	return s.port.Close()
}

// Run reads lines from the port until ctx is cancelled or the port
// returns an error, delivering each non-empty line to sink.Ingest
// stamped with the caller's wall-clock reading. Returns nil on ctx
// cancellation or when the port reaches end of input, otherwise the
// read error that ended the loop.
func (s *Source) Run(ctx context.Context, sink Sink) error {
	scanner := bufio.NewScanner(s.port)
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			if line == "" {
				continue
			}
			now := s.clock.Now().UnixMicro()
			sink.Ingest(s.sensor, s.origin, now, []byte(line), now)
		}
	}
}
