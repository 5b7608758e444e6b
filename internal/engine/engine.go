// Package engine implements the deterministic governance evaluation
// core: four scenario evaluators sharing one protocol, a gate and
// override evaluator, and the law lifecycle state machine.
//
// The engine is a pure computation. It performs no I/O, reads no
// global clock for decision state, and holds no mutable state between
// calls beyond the per-run generator it creates itself.
//
// DETERMINISM CONTRACT: one generator instance per run, seeded from
// the request seed; scenarios are evaluated strictly in array order;
// each evaluator draws in a fixed documented order. Reordering
// scenarios changes which draws each scenario consumes, so concurrent
// scenario evaluation is unsafe under this strategy: a parallel
// implementation must switch to per-scenario seeds via rng.Derive,
// which changes all numeric outputs and is therefore a deliberate,
// versioned decision, not an optimization.
package engine

import (
	"sort"
	"time"

	"github.com/mfeld/arbiter/internal/catalog"
	"github.com/mfeld/arbiter/internal/pack"
	"github.com/mfeld/arbiter/internal/rng"
)

// Engine evaluates scenario packs. The catalogs are read-only static
// data shared across all evaluations; Engine itself is safe for
// concurrent use because each Evaluate call owns all per-run state.
type Engine struct {
	methods  []catalog.MethodCard
	policies []catalog.PolicyFamily
	runIDs   RunIDGenerator
	clock    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunIDGenerator replaces the UUIDv7 run-ID generator. Tests use
// FixedGenerator to compare complete envelopes.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// WithClock replaces the timestamp source. Timestamps are provenance
// only; they never influence a decision.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithMethodCatalog replaces the causal-method catalog. The slice
// order is the declaration order used for tie-breaking; it is copied
// to keep callers from mutating it afterwards.
func WithMethodCatalog(methods []catalog.MethodCard) Option {
	return func(e *Engine) {
		e.methods = make([]catalog.MethodCard, len(methods))
		copy(e.methods, methods)
	}
}

// WithPolicyCatalog replaces the policy-family catalog. Same copy and
// ordering contract as WithMethodCatalog.
func WithPolicyCatalog(policies []catalog.PolicyFamily) Option {
	return func(e *Engine) {
		e.policies = make([]catalog.PolicyFamily, len(policies))
		copy(e.policies, policies)
	}
}

// New creates an Engine with the built-in catalogs, UUIDv7 run IDs,
// and the wall clock for timestamps.
func New(opts ...Option) *Engine {
	e := &Engine{
		methods:  catalog.Methods(),
		policies: catalog.Policies(),
		runIDs:   UUIDv7Generator{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is one evaluation call: a scenario pack plus seed, mode,
// overrides, and the instant used for override expiry.
type Request struct {
	Pack      *pack.Pack
	Seed      int64
	Mode      Mode
	Overrides []pack.Override

	// Now anchors override expiry checks. Zero means wall clock.
	// It never reaches decision logic beyond override activation.
	Now time.Time
}

// Result is the output of one evaluation: the pack's canonical
// fingerprint and one envelope per scenario (or one aggregate
// envelope for the policy stream).
type Result struct {
	InputHash string
	Envelopes []Envelope
}

// runContext carries the per-run state threaded through evaluators.
type runContext struct {
	engine    *Engine
	inputHash string
	seed      int64
	mode      Mode
	overrides []pack.Override
	now       time.Time
	gen       *rng.Generator
}

// newBase assembles the common envelope fields with a fresh run ID
// and timestamp.
func (ctx *runContext) newBase(scenarioID, decision string, failures, warnings []string, gates []GateResult) BaseEnvelope {
	return BaseEnvelope{
		RunID:            ctx.engine.runIDs.Generate(),
		InputHash:        ctx.inputHash,
		Seed:             ctx.seed,
		Mode:             ctx.mode,
		Timestamp:        ctx.engine.clock().UTC().Format(time.RFC3339Nano),
		ScenarioID:       scenarioID,
		Decision:         decision,
		HardGateFailures: failures,
		Warnings:         warnings,
		GateResults:      gates,
	}
}

// Evaluate runs one scenario pack.
//
// Malformed input (nil or invalid pack, unknown mode, empty
// catalog) is the only thing that returns an error. Gate failures, invalid
// transitions, and disqualifiers are reported inside the envelopes.
// Mode does not change evaluation semantics.
func (e *Engine) Evaluate(req Request) (*Result, error) {
	if req.Pack == nil {
		return nil, newEvalError(ErrCodeMalformedPack, "nil scenario pack")
	}
	if err := req.Pack.Validate(); err != nil {
		return nil, &EvalError{Code: ErrCodeMalformedPack, Message: "invalid scenario pack", Err: err}
	}
	if req.Mode != ModeReport && req.Mode != ModeEnforce {
		return nil, newEvalError(ErrCodeInvalidMode, "mode must be %q or %q, got %q", ModeReport, ModeEnforce, req.Mode)
	}
	switch req.Pack.Stream {
	case pack.StreamCausalMethod:
		if len(e.methods) == 0 {
			return nil, newEvalError(ErrCodeEmptyCatalog, "method catalog is empty")
		}
	case pack.StreamPolicy:
		if len(e.policies) == 0 {
			return nil, newEvalError(ErrCodeEmptyCatalog, "policy catalog is empty")
		}
	}

	inputHash, err := pack.Hash(req.Pack)
	if err != nil {
		return nil, &EvalError{Code: ErrCodeMalformedPack, Message: "pack is not canonically hashable", Err: err}
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	ctx := &runContext{
		engine:    e,
		inputHash: inputHash,
		seed:      req.Seed,
		mode:      req.Mode,
		overrides: req.Overrides,
		now:       now,
		gen:       rng.New(req.Seed),
	}

	result := &Result{InputHash: inputHash}

	switch req.Pack.Stream {
	case pack.StreamPolicy:
		// The policy stream produces one aggregate envelope.
		result.Envelopes = []Envelope{e.evaluatePolicyPack(req.Pack, ctx)}
	case pack.StreamCausalMethod:
		for i := range req.Pack.Scenarios {
			result.Envelopes = append(result.Envelopes, e.evaluateMethodScenario(&req.Pack.Scenarios[i], ctx))
		}
	case pack.StreamCalibration:
		for i := range req.Pack.Scenarios {
			result.Envelopes = append(result.Envelopes, e.evaluateCalibrationScenario(&req.Pack.Scenarios[i], ctx))
		}
	case pack.StreamLaw:
		for i := range req.Pack.Scenarios {
			result.Envelopes = append(result.Envelopes, e.evaluateLawScenario(&req.Pack.Scenarios[i], ctx))
		}
	}

	return result, nil
}

// clampScore bounds a raw score to the documented range.
func clampScore(s float64) float64 {
	if s < catalog.ScoreMin {
		return catalog.ScoreMin
	}
	if s > catalog.ScoreMax {
		return catalog.ScoreMax
	}
	return s
}

// rankDescending sorts scored entries by score, descending. The sort
// is stable, so ties resolve to catalog declaration order; entries
// must be appended in that order.
func rankDescending(entries []ScoredEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}
