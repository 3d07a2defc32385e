package hexcode

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexPattern = regexp.MustCompile(`^[0-9A-F]{8}$`)

func TestRandomFormat(t *testing.T) {
	g := New(StrategyRandom)

	for i := 0; i < 100; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, hexPattern, code)
	}
}

func TestRandomUniqueness(t *testing.T) {
	g := New(StrategyRandom)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}

	// 1000 draws from a 32-bit space should essentially never collide.
	assert.Greater(t, len(seen), 990)
}

func TestSequentialEncodesClock(t *testing.T) {
	g := New(StrategySequential)
	g.now = func() time.Time {
		return time.Date(2026, time.August, 27, 13, 45, 0, 0, time.UTC)
	}

	code, err := g.Generate()
	require.NoError(t, err)

	// year 26 → 1A, month 8 → 08, day 27 → 1B, (13*60+45)%256 = 57 → 39
	assert.Equal(t, "1A081B39", code)
}

func TestSequentialCollidesWithinMinute(t *testing.T) {
	g := New(StrategySequential)
	fixed := time.Date(2026, time.January, 2, 0, 1, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	a, err := g.Generate()
	require.NoError(t, err)
	b, err := g.Generate()
	require.NoError(t, err)

	// Same minute, same code; insert conflicts must be retried upstream.
	assert.Equal(t, a, b)
	assert.Regexp(t, hexPattern, a)
}

func TestUnknownStrategyFallsBackToRandom(t *testing.T) {
	g := New(Strategy("something-else"))
	assert.Equal(t, StrategyRandom, g.Strategy())
}
