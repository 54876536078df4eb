// Package agentpool provides fixed-capacity L1 (sub-agent) and L2
// (executor) semaphore pools. Acquisition never blocks: a caller at
// capacity gets EXECUTOR_LIMIT_EXCEEDED immediately rather than queueing.
// An explicit try-acquire/release semaphore API backs two independent
// pools sharing the same capacity discipline.
package agentpool

import (
	"sync"

	"github.com/pmrun/pmrun/internal/model"
)

// Tier names which pool a slot belongs to, for reporting.
type Tier string

const (
	TierL1SubAgent Tier = "L1"
	TierL2Executor Tier = "L2"
)

// Pool is a fixed-capacity semaphore: Acquire either succeeds immediately
// or fails with model.ErrExecutorLimitExceeded, never blocks.
type Pool struct {
	tier     Tier
	capacity int

	mu    sync.Mutex
	inUse int
}

// New constructs a Pool with the given capacity. capacity <= 0 means no
// slots are ever available.
func New(tier Tier, capacity int) *Pool {
	return &Pool{tier: tier, capacity: capacity}
}

// Acquire claims one slot, or fails immediately if the pool is at
// capacity.
func (p *Pool) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse >= p.capacity {
		return model.NewKindError(model.KindExecutor, model.ErrExecutorLimitExceeded)
	}
	p.inUse++
	return nil
}

// Release frees one slot. Releasing beyond zero in-use slots is a caller
// bug; it is clamped rather than panicking, since a pool's capacity
// accounting must never go negative.
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse > 0 {
		p.inUse--
	}
}

// InUse reports the number of currently held slots.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Capacity reports the pool's fixed capacity.
func (p *Pool) Capacity() int { return p.capacity }

// Tier reports which tier this pool represents.
func (p *Pool) Tier() Tier { return p.tier }

// Pools bundles the two fixed tiers the runner composes: L1 for
// sub-agents, L2 for executors.
type Pools struct {
	L1 *Pool
	L2 *Pool
}

// NewPools constructs both tiers with the given capacities.
func NewPools(l1Capacity, l2Capacity int) *Pools {
	return &Pools{
		L1: New(TierL1SubAgent, l1Capacity),
		L2: New(TierL2Executor, l2Capacity),
	}
}
