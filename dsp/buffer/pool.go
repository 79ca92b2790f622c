// Package buffer provides the pre-sized float32 block pool and sample
// utilities for the render-side processing chain.
//
// The render callback must not allocate, so every working block it needs
// is drawn from a [Pool] created at setup time. The pool is sized for the
// typical left/right/scratch pattern and is not safe for concurrent use;
// each deck owns its own.
package buffer

import "fmt"

// poolDepth is the number of retained blocks, enough for stereo plus
// scratch processing.
const poolDepth = 4

// MaxBlock is the largest block length a Pool hands out and the upper
// bound hosts may request per render callback.
const MaxBlock = 4096

// Pool hands out zeroed fixed-capacity float32 blocks without allocating
// after construction.
type Pool struct {
	free     [][]float32
	capacity int
}

// NewPool preallocates poolDepth blocks of the given capacity.
func NewPool(capacity int) (*Pool, error) {
	if capacity <= 0 || capacity > MaxBlock {
		return nil, fmt.Errorf("block capacity must be in (0, %d]: %d", MaxBlock, capacity)
	}
	p := &Pool{
		free:     make([][]float32, 0, poolDepth),
		capacity: capacity,
	}
	for range poolDepth {
		p.free = append(p.free, make([]float32, capacity))
	}
	return p, nil
}

// Get returns a zeroed block of length n. Requests beyond the pool
// capacity are clamped. When the pool is empty a fresh block is
// allocated; that only happens if callers hold more than poolDepth
// blocks at once.
func (p *Pool) Get(n int) []float32 {
	n = min(max(n, 0), p.capacity)
	var block []float32
	if len(p.free) == 0 {
		block = make([]float32, p.capacity)
	} else {
		block = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
	}
	block = block[:n]
	clear(block)
	return block
}

// Put returns a block to the pool. Blocks beyond poolDepth are dropped.
func (p *Pool) Put(block []float32) {
	if cap(block) < p.capacity || len(p.free) >= poolDepth {
		return
	}
	p.free = append(p.free, block[:p.capacity])
}

// Free reports how many blocks are currently available.
func (p *Pool) Free() int {
	return len(p.free)
}

// Capacity returns the per-block capacity.
func (p *Pool) Capacity() int {
	return p.capacity
}
