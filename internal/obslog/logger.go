// Package obslog provides a package-level, replaceable logging hook used
// across hydrocore components so tests can mute or capture output without
// threading a logger through every constructor.
package obslog

import "log"

// Logf is called at significant state transitions: acoustic channel
// open/close, speculative cache-entry invalidation, serial port open,
// and a tile request with a negative along extent. It defaults to
// log.Printf and is never called per-sample.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logging hook. Passing nil installs a
// no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
