package contentmgr

import (
	"sync"

	"github.com/tileflow/streamcore/format"
)

// loadPromise is the suspendable-task handle for one node's loader call
// (spec §9: "async/await usage maps to suspendable tasks with a single
// await point per fetch"). The main executor polls Done() rather than
// blocking, so a stalled FinishLoading never holds up process-next
// (spec §4.E).
type loadPromise struct {
	mu   sync.Mutex
	done bool
	out  format.LoadOutcome
}

func newLoadPromise() *loadPromise { return &loadPromise{} }

func (p *loadPromise) complete(out format.LoadOutcome) {
	p.mu.Lock()
	p.done = true
	p.out = out
	p.mu.Unlock()
}

// Done reports whether the I/O-pool task has finished, and if so its
// outcome.
func (p *loadPromise) Done() (format.LoadOutcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out, p.done
}
