package codec

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointcodec/internal/wire"
)

func TestIntegerRoundTrip(t *testing.T) {
	t.Parallel()

	cases := map[string][]int32{
		"empty":     {},
		"single":    {42},
		"negatives": {-1, 0, 1, -128, 127, -100000, 100000},
		"extremes":  {math.MinInt32, math.MaxInt32, 0},
	}
	for name, values := range cases {
		values := values
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			w := wire.NewWriter(64)
			require.NoError(t, encodeIntegers(w, values))

			r := wire.NewReader(w.Bytes())
			got, err := decodeIntegers(r, len(values))
			require.NoError(t, err)
			assert.Equal(t, values, got)
			assert.Equal(t, 0, r.Remaining(), "decode should consume the whole payload")
		})
	}
}

func TestIntegerCompressibleSequence(t *testing.T) {
	t.Parallel()

	// Long runs of small residuals are the common case for quantized
	// attributes; the packed form should beat one varint per value.
	values := make([]int32, 4096)
	for i := range values {
		values[i] = int32(i % 7)
	}
	w := wire.NewWriter(0)
	require.NoError(t, encodeIntegers(w, values))
	assert.Less(t, w.Len(), len(values), "compressed payload should undercut one byte per value")

	got, err := decodeIntegers(wire.NewReader(w.Bytes()), len(values))
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestIntegerDecodeRejectsBadPacking(t *testing.T) {
	t.Parallel()

	w := wire.NewWriter(8)
	w.WriteUint8(99)
	w.WriteUvarint(0)
	_, err := decodeIntegers(wire.NewReader(w.Bytes()), 0)
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func TestIntegerDecodeRejectsWideVarint(t *testing.T) {
	t.Parallel()

	// A varint above 32 bits cannot come from a real code sequence; it must
	// be rejected rather than truncated to a small code.
	payload := binary.AppendUvarint(nil, 1<<33)
	w := wire.NewWriter(8)
	w.WriteUint8(intPackingVarint)
	w.WriteUvarint(uint64(len(payload)))
	w.WriteBytes(payload)
	_, err := decodeIntegers(wire.NewReader(w.Bytes()), 1)
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func TestIntegerDecodeRejectsOversizedClaim(t *testing.T) {
	t.Parallel()

	w := wire.NewWriter(8)
	w.WriteUint8(intPackingVarint)
	w.WriteUvarint(1 << 20)
	w.WriteBytes([]byte{1, 2, 3})
	_, err := decodeIntegers(wire.NewReader(w.Bytes()), 1)
	assert.ErrorIs(t, err, wire.ErrUnderrun)
}

func TestIntegerDecodeShortPayload(t *testing.T) {
	t.Parallel()

	w := wire.NewWriter(8)
	require.NoError(t, encodeIntegers(w, []int32{1, 2}))
	// Ask for more values than were encoded.
	_, err := decodeIntegers(wire.NewReader(w.Bytes()), 5)
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func TestZigzag(t *testing.T) {
	t.Parallel()

	for _, v := range []int32{0, -1, 1, math.MinInt32, math.MaxInt32, 12345, -12345} {
		if got := zigzagDecode(zigzagEncode(v)); got != v {
			t.Errorf("zigzag round trip of %d = %d", v, got)
		}
	}
	// Small magnitudes must map to small codes so varints stay short.
	assert.Equal(t, uint64(1), zigzagEncode(-1))
	assert.Equal(t, uint64(2), zigzagEncode(1))
}

func TestIntegerDecodeTruncatedHeader(t *testing.T) {
	t.Parallel()

	_, err := decodeIntegers(wire.NewReader(nil), 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrUnderrun))
}
