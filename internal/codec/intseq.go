package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/pointcodec/internal/wire"
)

// Integer-sequence backend. Quantized codes travel as zigzag varints,
// optionally wrapped in a zstd frame when that actually saves bytes.
//
// Payload layout: 1 packing byte, uvarint payload length, payload bytes.
const (
	intPackingVarint uint8 = 0
	intPackingZstd   uint8 = 1

	// Sequences shorter than this skip the compression attempt; the zstd
	// frame header alone would dominate.
	zstdMinInputSize = 64
)

func zigzagEncode(v int32) uint64 {
	return uint64((uint32(v) << 1) ^ uint32(v>>31))
}

func zigzagDecode(u uint64) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// encodeIntegers appends the packed form of values to w.
func encodeIntegers(w *wire.Writer, values []int32) error {
	raw := make([]byte, 0, len(values)*2)
	for _, v := range values {
		raw = binary.AppendUvarint(raw, zigzagEncode(v))
	}

	packing := intPackingVarint
	payload := raw
	if len(raw) >= zstdMinInputSize {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		compressed := enc.EncodeAll(raw, nil)
		enc.Close()
		if len(compressed) < len(raw) {
			packing = intPackingZstd
			payload = compressed
		}
	}

	w.WriteUint8(packing)
	w.WriteUvarint(uint64(len(payload)))
	w.WriteBytes(payload)
	return nil
}

// decodeIntegers reads exactly n packed integers from r.
func decodeIntegers(r *wire.Reader, n int) ([]int32, error) {
	packing, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if packing != intPackingVarint && packing != intPackingZstd {
		return nil, fmt.Errorf("integer packing %d: %w", packing, ErrCorruptStream)
	}
	size, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if size > uint64(r.Remaining()) {
		return nil, fmt.Errorf("integer payload claims %d bytes, %d remain: %w",
			size, r.Remaining(), wire.ErrUnderrun)
	}
	payload, err := r.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}

	raw := payload
	if packing == intPackingZstd {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		raw, err = dec.DecodeAll(payload, nil)
		dec.Close()
		if err != nil {
			return nil, fmt.Errorf("zstd payload: %v: %w", err, ErrCorruptStream)
		}
	}

	values := make([]int32, n)
	pos := 0
	for i := 0; i < n; i++ {
		u, read := binary.Uvarint(raw[pos:])
		if read <= 0 {
			return nil, fmt.Errorf("integer payload ends after %d of %d values: %w",
				i, n, ErrCorruptStream)
		}
		if u > math.MaxUint32 {
			return nil, fmt.Errorf("integer %d does not fit 32 bits: %w", u, ErrCorruptStream)
		}
		values[i] = zigzagDecode(u)
		pos += read
	}
	return values, nil
}
