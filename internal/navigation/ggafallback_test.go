package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapBearingKeepsWithin180OfRef(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 350.0, UnwrapBearing(355, 350), 1e-9)
	assert.InDelta(t, 10.0, UnwrapBearing(355, 370), 1e-9)
	assert.InDelta(t, -10.0, UnwrapBearing(0, 350), 1e-9)
}

func TestGGAFallbackCourseNeedsTwoFixes(t *testing.T) {
	t.Parallel()
	g := NewGGAFallback()
	_, _, ok := g.Course()
	assert.False(t, ok)

	g.AddFix(0, 0, 0)
	_, _, ok = g.Course()
	assert.False(t, ok)
}

func TestGGAFallbackCourseFromTwoFixes(t *testing.T) {
	t.Parallel()
	g := NewGGAFallback()
	g.AddFix(0, 0, 0)
	g.AddFix(1_000_000, 0, 1) // one second later, due east

	course, speed, ok := g.Course()
	assert.True(t, ok)
	assert.InDelta(t, 90.0, course, 1.0)
	assert.Greater(t, speed, 0.0)
}

func TestGGAFallbackTrimsStaleFixes(t *testing.T) {
	t.Parallel()
	g := NewGGAFallback()
	g.AddFix(0, 0, 0)
	g.AddFix(10_000_000, 0, 1) // 10s later, beyond the 5s span cap
	assert.Len(t, g.fixes, 1)
}

func TestGGAFallbackBoundsFixCount(t *testing.T) {
	t.Parallel()
	g := NewGGAFallback()
	for i := 0; i < ggaFallbackMaxFixes+5; i++ {
		g.AddFix(int64(i)*1000, 0, float64(i)*1e-6)
	}
	assert.LessOrEqual(t, len(g.fixes), ggaFallbackMaxFixes)
}
