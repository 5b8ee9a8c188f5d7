// Package bathymetry estimates seabed depth: a two-stage peak detector
// over an acoustic channel's amplitude trace, converting the detected
// seabed echo's sample index to a depth in meters under a
// piecewise-constant (or constant) sound-velocity model.
package bathymetry

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"hydrocore/internal/acoustic"
	"hydrocore/internal/cacheport"
	"hydrocore/internal/hconfig"
)

const maxCandidatePeaks = 10
const mergeGapRatio = 0.25

// Estimator is the Bathymetry Estimator: a consumer of an Acoustic
// Channel's amplitude trace plus an optional piecewise sound-velocity
// profile.
type Estimator struct {
	mu sync.Mutex

	channel *acoustic.Channel
	cache   cacheport.Port // optional

	storeURI, keyPrefix, project, track, channelName string
	sampleRateHz                                     float64
	tuning                                           *hconfig.Tuning
}

// New builds an Estimator over ch, sampling at sampleRateHz (the same
// discretization frequency ch was opened with). keyPrefix may be empty.
// tuning may be nil, selecting the default constant sound velocity
// of 1500 m/s.
func New(ch *acoustic.Channel, cache cacheport.Port, storeURI, keyPrefix, project, track, channelName string, sampleRateHz float64, tuning *hconfig.Tuning) *Estimator {
	return &Estimator{
		channel:      ch,
		cache:        cache,
		storeURI:     storeURI,
		keyPrefix:    keyPrefix,
		project:      project,
		track:        track,
		channelName:  channelName,
		sampleRateHz: sampleRateHz,
		tuning:       tuning,
	}
}

// Depth returns the estimated seabed depth in meters for the ping at
// index, or (-1, false) when no depth is available (store error,
// out-of-range index, or a degenerate trace).
func (e *Estimator) Depth(index int64) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := e.cacheKey(index)
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok && len(data) == 8 {
			return decodeFloat64(data), true
		}
	}

	amp, freqHz, ok := e.readTrace(index)
	if !ok || len(amp) == 0 {
		return -1, false
	}

	k, ok := findSeabedSampleIndex(amp)
	if !ok {
		return -1, false
	}

	depth := e.sampleIndexToDepth(k, freqHz)

	if e.cache != nil {
		e.cache.Set(key, encodeFloat64(depth))
	}
	return depth, true
}

func (e *Estimator) readTrace(index int64) ([]float32, float64, bool) {
	amp, _, ok := e.channel.Amplitude(index)
	if !ok {
		return nil, 0, false
	}
	return amp, e.sampleRateHz, true
}

func (e *Estimator) cacheKey(index int64) string {
	if e.keyPrefix != "" {
		return e.storeURI + "." + e.keyPrefix + "." + e.project + "." + e.track + "." + e.channelName + "." + itoa(index)
	}
	return e.storeURI + "." + e.project + "." + e.track + "." + e.channelName + "." + itoa(index)
}

func (e *Estimator) sampleIndexToDepth(k int, freqHz float64) float64 {
	table := e.tuning.GetVelocityTable()
	if len(table) == 0 {
		c := e.tuning.GetSoundVelocity()
		return float64(k) * c / (2 * freqHz)
	}

	var total float64
	lastBoundary := 0.0
	for _, seg := range table {
		boundary := seg.DepthMeters // upper segment boundary, expressed in samples
		if boundary <= float64(k) {
			total += (boundary - lastBoundary) * seg.SpeedMPS
			lastBoundary = boundary
			continue
		}
		total += (float64(k) - lastBoundary) * seg.SpeedMPS
		lastBoundary = float64(k)
		break
	}
	if lastBoundary < float64(k) && len(table) > 0 {
		last := table[len(table)-1]
		total += (float64(k) - lastBoundary) * last.SpeedMPS
	}
	return total / (2 * freqHz)
}

type run struct {
	start, end int // inclusive sample indices
}

func (r run) width() int { return r.end - r.start + 1 }

// findSeabedSampleIndex runs the full detection pipeline — smooth,
// rescale, threshold, binarize, merge — and returns the widest merged
// peak's start index.
func findSeabedSampleIndex(amp []float32) (int, bool) {
	n := len(amp)
	if n == 0 {
		return 0, false
	}

	smoothed := boxFilter3(amp)
	rescaled := rescaleByIntegral(smoothed)

	mean, std := stat.MeanStdDev(rescaled, nil)
	threshold := mean + 2*std

	runs := collectRuns(rescaled, threshold, maxCandidatePeaks)
	if len(runs) == 0 {
		return 0, false
	}

	runs = mergeRuns(runs)

	widest := runs[0]
	for _, r := range runs[1:] {
		if r.width() > widest.width() {
			widest = r
		}
	}
	return widest.start, true
}

// boxFilter3 applies a 3-tap box filter with endpoints preserved.
func boxFilter3(a []float32) []float64 {
	n := len(a)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 || i == n-1 {
			out[i] = float64(a[i])
			continue
		}
		out[i] = (float64(a[i-1]) + float64(a[i]) + float64(a[i+1])) / 3.0
	}
	return out
}

// rescaleByIntegral computes the running integral and rescales the
// smoothed trace by (1 - I[i]/I[N-1]), down-weighting late samples.
func rescaleByIntegral(smoothed []float64) []float64 {
	n := len(smoothed)
	integral := make([]float64, n)
	running := 0.0
	for i, v := range smoothed {
		running += v
		integral[i] = running
	}
	total := integral[n-1]
	out := make([]float64, n)
	if total == 0 {
		copy(out, smoothed)
		return out
	}
	for i, v := range smoothed {
		out[i] = v * (1 - integral[i]/total)
	}
	return out
}

// collectRuns binarizes the trace against threshold and collects up to
// maxRuns runs of consecutive above-threshold samples.
func collectRuns(trace []float64, threshold float64, maxRuns int) []run {
	var runs []run
	inRun := false
	start := 0
	for i, v := range trace {
		above := v > threshold
		if above && !inRun {
			inRun = true
			start = i
		} else if !above && inRun {
			inRun = false
			runs = append(runs, run{start: start, end: i - 1})
			if len(runs) >= maxRuns {
				return runs
			}
		}
	}
	if inRun {
		runs = append(runs, run{start: start, end: len(trace) - 1})
	}
	if len(runs) > maxRuns {
		runs = runs[:maxRuns]
	}
	return runs
}

// mergeRuns merges adjacent peaks whose gap ratio is within
// mergeGapRatio, repeating until no further merge applies.
func mergeRuns(runs []run) []run {
	changed := true
	for changed {
		changed = false
		merged := make([]run, 0, len(runs))
		i := 0
		for i < len(runs) {
			if i+1 < len(runs) {
				gap := float64(runs[i+1].start - runs[i].end)
				span := float64(runs[i+1].end - runs[i].start)
				if span > 0 && gap/span <= mergeGapRatio {
					merged = append(merged, run{start: runs[i].start, end: runs[i+1].end})
					i += 2
					changed = true
					continue
				}
			}
			merged = append(merged, runs[i])
			i++
		}
		runs = merged
	}
	return runs
}
