// Package pool provides bucketed sync.Pool instances for the scratch rows
// and chunk buffers an encode needs. Buffers are organized by power-of-two
// size class; every buffer handed out is zeroed.
package pool

import (
	"math/bits"
	"sync"
)

// Size classes range from 64 bytes to 4 MiB.
const (
	minShift = 6
	maxShift = 22

	MinSize = 1 << minShift
	MaxSize = 1 << maxShift
)

var pools [maxShift - minShift + 1]sync.Pool

func init() {
	for i := range pools {
		sz := 1 << (i + minShift)
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

// classFor returns the index of the smallest class holding size bytes, or
// -1 when size exceeds MaxSize.
func classFor(size int) int {
	if size <= MinSize {
		return 0
	}
	if size > MaxSize {
		return -1
	}
	return bits.Len(uint(size-1)) - minShift
}

// Get returns a zeroed byte slice of length size. Sizes above MaxSize are
// allocated directly and are not pooled on Put.
func Get(size int) []byte {
	idx := classFor(size)
	if idx < 0 {
		return make([]byte, size)
	}
	bp := pools[idx].Get().(*[]byte)
	b := (*bp)[:size]
	clear(b)
	return b
}

// Put returns a slice obtained from Get to its class. Slices whose capacity
// is not an exact class size are dropped.
func Put(b []byte) {
	c := cap(b)
	if c < MinSize || c > MaxSize || c&(c-1) != 0 {
		return
	}
	b = b[:c]
	pools[bits.Len(uint(c))-1-minShift].Put(&b)
}
