package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/banshee-data/pointcodec/internal/cloud"
	"github.com/banshee-data/pointcodec/internal/quant"
)

// Quantized attribute layout: per-component minimum (C float32), one shared
// range float32, one bit-depth byte, then the integer payload. The range is
// a single scalar covering the widest component spread so relative precision
// stays uniform across components.

// encodeQuantizedAttribute writes the quantization header and integer
// payload for one float32 attribute, then records the reconstructed values
// so downstream predictors see exactly what the decoder will.
func encodeQuantizedAttribute(e *Encoder, att *cloud.Attribute) error {
	if att.DataType() != cloud.DataTypeFloat32 {
		return fmt.Errorf("quantization of %s attribute: %w", att.DataType(), ErrBadDataType)
	}
	bits := e.Options().BitsFor(att.Kind())
	if bits < MinQuantizationBits || bits > MaxQuantizationBits {
		return fmt.Errorf("bit depth %d: %w", bits, ErrBadQuantizationBits)
	}

	nc := att.Components()
	np := att.NumPoints()

	minValue := make([]float32, nc)
	for c := range minValue {
		minValue[c] = float32(math.Inf(1))
	}
	for p := 0; p < np; p++ {
		for c := 0; c < nc; c++ {
			if v := att.Float32(p, c); v < minValue[c] {
				minValue[c] = v
			}
		}
	}
	if np == 0 {
		for c := range minValue {
			minValue[c] = 0
		}
	}
	var rangeVal float32
	for p := 0; p < np; p++ {
		for c := 0; c < nc; c++ {
			if d := att.Float32(p, c) - minValue[c]; d > rangeVal {
				rangeVal = d
			}
		}
	}

	w := e.Buffer()
	for c := 0; c < nc; c++ {
		w.WriteFloat32(minValue[c])
	}
	w.WriteFloat32(rangeVal)
	w.WriteUint8(uint8(bits))

	maxCode := int32(1<<uint(bits)) - 1
	var q quant.Quantizer
	q.Init(rangeVal, maxCode)

	codes := make([]int32, 0, np*nc)
	for p := 0; p < np; p++ {
		for c := 0; c < nc; c++ {
			codes = append(codes, q.QuantizeFloat(att.Float32(p, c)-minValue[c]))
		}
	}
	if err := encodeIntegers(w, codes); err != nil {
		return err
	}

	e.storeLossyAttribute(att, minValue, rangeVal, maxCode, codes)
	return nil
}

// decodeQuantizedAttribute reads the quantization header, delegates to the
// integer backend, and dequantizes into the attribute's backing buffer in
// monotonic point order.
func decodeQuantizedAttribute(d *Decoder, att *cloud.Attribute) error {
	r := d.Reader()
	nc := att.Components()

	minValue := make([]float32, nc)
	for c := 0; c < nc; c++ {
		v, err := r.ReadFloat32()
		if err != nil {
			return fmt.Errorf("quantization min value %d: %w", c, err)
		}
		minValue[c] = v
	}
	rangeVal, err := r.ReadFloat32()
	if err != nil {
		return fmt.Errorf("quantization range: %w", err)
	}
	bits, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("quantization bit depth: %w", err)
	}
	if bits < MinQuantizationBits || bits > maxDecodeQuantizationBits {
		return fmt.Errorf("bit depth %d: %w", bits, ErrBadQuantizationBits)
	}

	np := att.NumPoints()
	codes, err := decodeIntegers(r, np*nc)
	if err != nil {
		return err
	}

	maxCode := int32(uint32(1)<<uint(bits) - 1)
	return dequantizeValues(att, minValue, rangeVal, maxCode, codes)
}

// dequantizeValues reconstructs np contiguous entries from codes. Decoded
// points are visited in the same monotonic index order the integer backend
// produced, so the output offset advances strictly sequentially.
func dequantizeValues(att *cloud.Attribute, minValue []float32, rangeVal float32, maxCode int32, codes []int32) error {
	nc := att.Components()
	np := att.NumPoints()
	if len(codes) != np*nc {
		return fmt.Errorf("have %d codes for %d values: %w", len(codes), np*nc, ErrCorruptStream)
	}

	var dq quant.Dequantizer
	dq.Init(rangeVal, maxCode)

	entrySize := att.EntrySize()
	entry := make([]byte, entrySize)
	codeIdx := 0
	outPos := 0
	for p := 0; p < np; p++ {
		for c := 0; c < nc; c++ {
			code := codes[codeIdx]
			codeIdx++
			if code < 0 || code > maxCode {
				return fmt.Errorf("code %d outside [0, %d]: %w", code, maxCode, ErrCorruptStream)
			}
			v := dq.DequantizeFloat(code) + minValue[c]
			binary.LittleEndian.PutUint32(entry[c*4:], math.Float32bits(v))
		}
		if err := att.Write(outPos, entry); err != nil {
			return err
		}
		outPos += entrySize
	}
	return nil
}
