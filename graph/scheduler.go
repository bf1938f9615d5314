package graph

import (
	"time"

	"github.com/tileflow/streamcore/config"
	"github.com/tileflow/streamcore/metrics"
)

// Scheduler drives the processing graph's nodes according to the
// configured streaming mode and tick budget (spec §4.I, spec §6). It
// repeatedly picks any node reporting ScheduleMainThread and calls
// MainThreadProcess until the cumulative tick budget is exceeded.
type Scheduler struct {
	nodes    []Node
	mode     config.StreamingMode
	budgetMS float64
}

func NewScheduler(nodes []Node, mode config.StreamingMode, budgetMS float64) *Scheduler {
	return &Scheduler{nodes: nodes, mode: mode, budgetMS: budgetMS}
}

// Tick runs one scheduling pass. Returns the number of node activations.
func (s *Scheduler) Tick() int {
	start := time.Now()
	defer func() { metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	switch s.mode {
	case config.ModeMinimumImpact:
		if s.fireOne() {
			return 1
		}
		return 0
	case config.ModeHurried:
		count := 0
		for s.fireOne() {
			count++
		}
		return count
	default: // ModeBounded
		if s.budgetMS <= 0 {
			if s.fireOne() {
				return 1
			}
			return 0
		}
		deadline := start.Add(time.Duration(s.budgetMS * float64(time.Millisecond)))
		count := 0
		for time.Now().Before(deadline) {
			if !s.fireOne() {
				break
			}
			count++
		}
		return count
	}
}

// fireOne finds the first node with main-thread work and runs it once.
// "First ready node" rather than round-robin keeps the scheduler
// deterministic for tests; node order is the caller's priority order.
func (s *Scheduler) fireOne() bool {
	for _, n := range s.nodes {
		if n.ScheduleMainThread() {
			n.MainThreadProcess()
			return true
		}
	}
	return false
}
