// Package dsp implements the PNG scanline predictors and the per-row
// filter selection used by the encoder.
package dsp

// Predictors operate on unsigned byte values widened to int, so sums and
// differences never wrap before the final modulo-256 store.

// average returns floor((left + up) / 2).
func average(left, up int) int {
	return (left + up) >> 1
}

// Paeth returns whichever of a (left), b (above) or c (upper left) is
// closest to a + b - c, preferring a, then b, on ties.
func Paeth(a, b, c int) int {
	p := a + b - c
	pa := absInt(p - a)
	pb := absInt(p - b)
	pc := absInt(p - c)
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// abs8 returns |int8(d)|.
func abs8(d byte) int {
	if d < 128 {
		return int(d)
	}
	return 256 - int(d)
}

// SumAbs returns the sum of the bytes of row reinterpreted as signed 8-bit
// values, by absolute value. It is the cost used to rank filter candidates.
func SumAbs(row []byte) int {
	sum := 0
	for _, v := range row {
		sum += abs8(v)
	}
	return sum
}
