package dsp

import (
	"github.com/deepteams/tinypng/internal/container"
	"github.com/deepteams/tinypng/internal/pool"
)

// RowFilter chooses and applies a PNG filter to each scanline of one image.
//
// Every buffer is bpp+bpr bytes long. The leading bpp bytes stay zero and
// stand in for the pixel left of the row start, so predictors never branch
// on the row boundary. One raw row of history is kept for the Up, Average and
// Paeth predictors.
type RowFilter struct {
	bpp, bpr int
	cand     [container.NumFilters][]byte // cand[FilterNone] holds the raw row
	prev     []byte
}

// NewRowFilter allocates the scratch rows for scanlines of bpr bytes with
// bpp bytes per complete pixel (at least 1).
func NewRowFilter(bpp, bpr int) *RowFilter {
	f := &RowFilter{bpp: bpp, bpr: bpr}
	for i := range f.cand {
		f.cand[i] = pool.Get(bpp + bpr)
	}
	f.prev = pool.Get(bpp + bpr)
	return f
}

// Filter computes all five filtered versions of row and returns the tag of
// the one with the lowest SumAbs cost, ties going to the lower tag, along
// with its filtered bytes. The returned slice is owned by the RowFilter and
// stays valid until the next call.
func (f *RowFilter) Filter(row []byte) (byte, []byte) {
	bpp, end := f.bpp, f.bpp+f.bpr

	cur := f.cand[container.FilterNone]
	sub := f.cand[container.FilterSub]
	up := f.cand[container.FilterUp]
	avg := f.cand[container.FilterAverage]
	pth := f.cand[container.FilterPaeth]
	prev := f.prev

	copy(cur[bpp:end], row[:f.bpr])
	for i := bpp; i < end; i++ {
		x := int(cur[i])
		a := int(cur[i-bpp])
		b := int(prev[i])
		c := int(prev[i-bpp])

		sub[i] = byte(x - a)
		up[i] = byte(x - b)
		avg[i] = byte(x - average(a, b))
		pth[i] = byte(x - Paeth(a, b, c))
	}

	best := 0
	bestCost := SumAbs(cur[bpp:end])
	for i := 1; i < container.NumFilters; i++ {
		if cost := SumAbs(f.cand[i][bpp:end]); cost < bestCost {
			best, bestCost = i, cost
		}
	}

	// The raw row becomes the history for the next call; the old history
	// buffer is recycled as the next raw row.
	f.prev, f.cand[container.FilterNone] = cur, prev
	if best == container.FilterNone {
		return container.FilterNone, f.prev[bpp:end]
	}
	return byte(best), f.cand[best][bpp:end]
}

// Reset clears the row history so the next scanline is filtered as the
// first row of an image.
func (f *RowFilter) Reset() {
	clear(f.prev)
}

// Release returns the scratch rows to the pool. The RowFilter must not be
// used afterwards.
func (f *RowFilter) Release() {
	for i := range f.cand {
		pool.Put(f.cand[i])
		f.cand[i] = nil
	}
	pool.Put(f.prev)
	f.prev = nil
}
