// Package rng provides the seeded deterministic generator that feeds
// all stochastic scoring in the evaluation engine.
//
// CRITICAL: the sequence for a given seed is part of the engine's
// determinism contract. Every evaluator draws from ONE generator per
// run, in a fixed documented order, and scenarios are processed in
// array order; reordering scenarios changes which draws each
// scenario consumes. math/rand is deliberately not used: its streams
// are not guaranteed stable across Go releases, and recorded
// envelopes must stay reproducible.
package rng

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/mfeld/arbiter/internal/canon"
)

// Generator produces a reproducible pseudo-random sequence of floats
// in [0,1) from an integer seed using the splitmix64 mix function.
//
// Not cryptographic, and doesn't need to be: the scores it feeds are
// intentionally simple placeholders. What matters is bit-identical
// output across platforms for the same seed and call sequence, which
// pure uint64 arithmetic guarantees.
//
// Not safe for concurrent use. The reference engine consumes it from
// a single goroutine; parallel evaluators must derive per-scenario
// generators via Derive instead of sharing one instance.
type Generator struct {
	state uint64
}

// New creates a generator for the given seed. The same seed always
// yields the same sequence.
func New(seed int64) *Generator {
	return &Generator{state: uint64(seed)}
}

// Next returns the next value in [0,1).
//
// The mixed 64-bit word is truncated to its top 53 bits before
// division so the result is an exactly representable float64; no
// platform-dependent rounding can creep in.
func (g *Generator) Next() float64 {
	g.state += 0x9E3779B97F4A7C15
	z := g.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}

// Derive computes a per-scenario sub-seed from the run seed and a
// scenario ID. An engine that evaluates scenarios concurrently must
// give each scenario its own generator seeded this way; sharing one
// generator across goroutines would interleave draws
// non-deterministically.
//
// The reference engine does NOT use Derive; it keeps the sequential
// shared-generator behavior so historic envelopes stay reproducible.
func Derive(seed int64, scenarioID string) int64 {
	h := sha256.New()
	h.Write([]byte(canon.DomainSubSeed))
	h.Write([]byte{0x00})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	h.Write(buf[:])
	h.Write([]byte{0x00})
	h.Write([]byte(scenarioID))
	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
