// Package hexcode produces the short public identifiers for exam jobs.
//
// Two strategies exist. Random (the default) draws 4 bytes from
// crypto/rand, making collisions vanishingly unlikely. Sequential encodes
// year/month/day/minute-of-day, which keeps codes chronologically
// inspectable but collides for requests within the same minute. Either
// way, callers must treat a unique-constraint violation on insert as
// retryable and ask for a fresh code.
package hexcode

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// Strategy names a code-generation strategy.
type Strategy string

const (
	StrategyRandom     Strategy = "random"
	StrategySequential Strategy = "sequential"
)

// Generator produces 8-character uppercase hexadecimal codes.
type Generator struct {
	strategy Strategy
	now      func() time.Time
	entropy  io.Reader
}

// New returns a Generator for the given strategy. Unknown strategies fall
// back to random.
func New(strategy Strategy) *Generator {
	if strategy != StrategySequential {
		strategy = StrategyRandom
	}
	return &Generator{
		strategy: strategy,
		now:      time.Now,
		entropy:  rand.Reader,
	}
}

// Generate returns a fresh 8-character uppercase hex code.
func (g *Generator) Generate() (string, error) {
	if g.strategy == StrategySequential {
		return g.sequential(), nil
	}
	return g.random()
}

// Strategy returns the strategy this generator was built with.
func (g *Generator) Strategy() Strategy {
	return g.strategy
}

func (g *Generator) random() (string, error) {
	var b [4]byte
	if _, err := io.ReadFull(g.entropy, b[:]); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b[:])), nil
}

// sequential composes year-mod-100, month, day and minute-of-day-mod-256,
// each as two uppercase hex digits.
func (g *Generator) sequential() string {
	now := g.now()
	year := now.Year() % 100
	month := int(now.Month())
	day := now.Day()
	seq := (now.Hour()*60 + now.Minute()) % 256

	return fmt.Sprintf("%02X%02X%02X%02X", year, month, day, seq)
}
