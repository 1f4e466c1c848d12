package notify

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Outcome is the result a fault strategy assigns to a simulated delivery.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeThrottled
)

// FaultStrategy supplies per-call latency and outcome for the simulated
// notifier. Implementations must be safe for concurrent use.
type FaultStrategy interface {
	Next() (latency time.Duration, outcome Outcome)
}

// Outcome distribution and latency window for RandomFaults, mirroring a
// flaky third-party notification API: most calls succeed, a few fail
// outright, a few are rate limited.
const (
	randomMinLatency = 50 * time.Millisecond
	randomMaxLatency = 250 * time.Millisecond

	failureFraction  = 0.05
	throttleFraction = 0.05
)

// RandomFaults produces randomized latency in [50ms, 250ms) with roughly 90%
// success, 5% failure, and 5% throttling.
type RandomFaults struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomFaults creates a RandomFaults seeded for reproducible sequences.
func NewRandomFaults(seed uint64) *RandomFaults {
	return &RandomFaults{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (f *RandomFaults) Next() (time.Duration, Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()

	latency := randomMinLatency + time.Duration(f.rnd.Int64N(int64(randomMaxLatency-randomMinLatency)))

	outcome := OutcomeSuccess
	switch roll := f.rnd.Float64(); {
	case roll < failureFraction:
		outcome = OutcomeFailure
	case roll < failureFraction+throttleFraction:
		outcome = OutcomeThrottled
	}

	return latency, outcome
}

// ScriptedFaults replays a fixed outcome sequence with zero latency, cycling
// when exhausted. Tests use it for deterministic fault injection.
type ScriptedFaults struct {
	mu       sync.Mutex
	outcomes []Outcome
	next     int
}

// NewScriptedFaults creates a ScriptedFaults over the given sequence.
// An empty sequence always yields OutcomeSuccess.
func NewScriptedFaults(outcomes ...Outcome) *ScriptedFaults {
	return &ScriptedFaults{outcomes: outcomes}
}

func (f *ScriptedFaults) Next() (time.Duration, Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.outcomes) == 0 {
		return 0, OutcomeSuccess
	}
	out := f.outcomes[f.next%len(f.outcomes)]
	f.next++
	return 0, out
}
