package engine

import (
	"encoding/binary"
	"sync"
	"time"
)

// Source is the uniform random stream consumed by the price model.
// Float64 must return values in [0, 1).
type Source interface {
	Float64() float64
}

// RNG is a seedable pseudo-random number generator using PCG-XSH-RR.
// It is safe for concurrent use.
type RNG struct {
	mu    sync.Mutex
	seed  int64
	state uint64
	inc   uint64
}

// NewRNG creates a new PRNG with the given seed. If seed is 0, uses current time.
func NewRNG(seed int64) *RNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &RNG{seed: seed}
	// PCG requires odd increment
	r.inc = uint64(seed)<<1 | 1
	r.state = 0
	r.step()
	r.state += uint64(seed)
	r.step()
	return r
}

// Seed returns the effective seed, after the time fallback.
func (r *RNG) Seed() int64 {
	return r.seed
}

func (r *RNG) step() {
	r.state = r.state*6364136223846793005 + r.inc
}

// Uint32 returns a uniformly distributed uint32.
func (r *RNG) Uint32() uint32 {
	r.mu.Lock()
	old := r.state
	r.step()
	r.mu.Unlock()

	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// Float64 returns a uniformly distributed float64 in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Intn returns a uniformly distributed int in [0, n).
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint32() % uint32(n))
}

// Derive draws a nonzero seed from the stream. NewRNG(Derive()) gives an
// independent generator that can be rebuilt from the seed alone.
func (r *RNG) Derive() int64 {
	for {
		hi, lo := uint64(r.Uint32()), uint64(r.Uint32())
		if seed := int64(hi<<32 | lo); seed != 0 {
			return seed
		}
	}
}

// State returns the internal PRNG state for persistence.
func (r *RNG) State() (state, inc uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.inc
}

// RestoreState sets the internal PRNG state from persisted values.
func (r *RNG) RestoreState(state, inc uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.inc = inc
}

// StateBytes returns the PRNG state as a byte slice for storage.
func (r *RNG) StateBytes() []byte {
	st, inc := r.State()
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], st)
	binary.BigEndian.PutUint64(buf[8:16], inc)
	return buf
}

// RestoreStateBytes restores PRNG state from a byte slice.
func (r *RNG) RestoreStateBytes(b []byte) {
	if len(b) < 16 {
		return
	}
	st := binary.BigEndian.Uint64(b[0:8])
	inc := binary.BigEndian.Uint64(b[8:16])
	r.RestoreState(st, inc)
}
