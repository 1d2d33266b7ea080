// Package quant maps bounded float ranges onto fixed-width integer codes and
// back. Both directions are pure value types: initialise once with the range
// and the largest representable code, then convert any number of values.
//
// The mapping is uniform. For a range R and maximum code M, code k represents
// the value k*R/M, so code 0 is exactly 0 and code M is exactly R (up to
// float rounding). A zero M degenerates to a single representable value and
// both directions collapse to 0 rather than dividing by zero.
package quant

import "math"

// Quantizer converts floats in [0, range] to integer codes in [0, max].
type Quantizer struct {
	inverseScale float32
	maxCode      int32
}

// Init prepares the quantizer for a value range and the largest code value
// (2^bits - 1 for a bit depth of bits).
func (q *Quantizer) Init(rangeVal float32, maxQuantizedValue int32) {
	q.maxCode = maxQuantizedValue
	if rangeVal > 0 && maxQuantizedValue > 0 {
		q.inverseScale = float32(maxQuantizedValue) / rangeVal
	} else {
		q.inverseScale = 0
	}
}

// QuantizeFloat rounds v to the nearest code, clamped to [0, max]. Inputs are
// expected in [0, range]; values outside are clamped, not rejected, so the
// encoder never emits an out-of-range code.
func (q Quantizer) QuantizeFloat(v float32) int32 {
	code := int32(math.Floor(float64(v)*float64(q.inverseScale) + 0.5))
	if code < 0 {
		return 0
	}
	if code > q.maxCode {
		return q.maxCode
	}
	return code
}

// Dequantizer converts integer codes in [0, max] back to floats in
// [0, range].
type Dequantizer struct {
	scale float32
}

// Init prepares the dequantizer. A maxQuantizedValue of 0 yields a scale of
// 0, so every code decodes to 0 (the degenerate single-value case).
func (d *Dequantizer) Init(rangeVal float32, maxQuantizedValue int32) {
	if maxQuantizedValue > 0 {
		d.scale = rangeVal / float32(maxQuantizedValue)
	} else {
		d.scale = 0
	}
}

// DequantizeFloat returns the value represented by code. It is monotonically
// non-decreasing in code for codes in [0, max]; codes outside that range are
// a contract violation the caller must screen out.
func (d Dequantizer) DequantizeFloat(code int32) float32 {
	return float32(code) * d.scale
}
