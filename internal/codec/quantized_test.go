package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointcodec/internal/cloud"
	"github.com/banshee-data/pointcodec/internal/wire"
)

// encodeSingleFloatAttribute builds a one-attribute cloud, encodes it and
// returns the stream plus the source cloud.
func encodeSingleFloatAttribute(t *testing.T, kind cloud.Kind, components int, values []float32, opts Options) ([]byte, *cloud.PointCloud) {
	t.Helper()
	require.Zero(t, len(values)%components)
	numPoints := len(values) / components

	pc := cloud.New(numPoints)
	id, err := pc.AddAttribute(kind, cloud.DataTypeFloat32, components)
	require.NoError(t, err)
	att := pc.Attribute(id)
	for i, v := range values {
		att.SetFloat32(i/components, i%components, v)
	}

	enc := NewSequentialEncoder()
	enc.SetPointCloud(pc)
	w := wire.NewWriter(0)
	require.NoError(t, enc.Encode(opts, w))
	return append([]byte(nil), w.Bytes()...), pc
}

func TestSingleComponentScenario(t *testing.T) {
	t.Parallel()

	// 4 points, values 0..3, 8-bit depth: min 0, range 3, codes ~[0,85,170,255].
	opts := DefaultOptions()
	opts.GenericBits = 8
	stream, _ := encodeSingleFloatAttribute(t, cloud.KindGeneric, 1,
		[]float32{0, 1, 2, 3}, opts)

	// Walk the stream to the quantization header and check it field by
	// field: magic(4) version(1) method(1) numPoints(1) numEncoders(1)
	// variant(1) attrCount(1) kind/type/components(3).
	r := wire.NewReader(stream)
	_, err := r.ReadBytes(6)
	require.NoError(t, err)
	numPoints, err := r.ReadUvarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), numPoints)
	numEncoders, err := r.ReadUvarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), numEncoders)
	variant, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, VariantQuantized, variant)
	_, err = r.ReadBytes(4) // attr count + shape
	require.NoError(t, err)

	minValue, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(0), minValue)
	rangeVal, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(3), rangeVal)
	bits, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(8), bits)

	codes, err := decodeIntegers(r, 4)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 85, 170, 255}, codes)

	// Decode and verify the round-trip bound range/(2^8-1).
	got, err := NewSequentialDecoder().Decode(wire.NewReader(stream))
	require.NoError(t, err)
	att := got.Attribute(0)
	bound := 3.0 / 255.0
	for i, want := range []float32{0, 1, 2, 3} {
		diff := math.Abs(float64(att.Float32(i, 0) - want))
		assert.LessOrEqualf(t, diff, bound, "point %d", i)
	}
}

func TestMultiComponentScenario(t *testing.T) {
	t.Parallel()

	// 2 points x 3 components, 4-bit depth: min (0,0,0), range 10.
	opts := DefaultOptions()
	opts.GenericBits = 4
	stream, pc := encodeSingleFloatAttribute(t, cloud.KindGeneric, 3,
		[]float32{0, 0, 0, 10, 10, 10}, opts)

	got, err := NewSequentialDecoder().Decode(wire.NewReader(stream))
	require.NoError(t, err)
	att := got.Attribute(0)
	bound := 10.0 / 15.0
	for p := 0; p < 2; p++ {
		for c := 0; c < 3; c++ {
			want := pc.Attribute(0).Float32(p, c)
			diff := math.Abs(float64(att.Float32(p, c) - want))
			assert.LessOrEqualf(t, diff, bound, "point %d comp %d", p, c)
		}
	}
}

func TestSharedRangeCoversWidestComponent(t *testing.T) {
	t.Parallel()

	// Component 0 spans 100, component 1 spans 1. The header must carry a
	// single range of 100 so relative precision is uniform.
	opts := DefaultOptions()
	opts.GenericBits = 10
	stream, _ := encodeSingleFloatAttribute(t, cloud.KindGeneric, 2,
		[]float32{0, 5, 100, 6}, opts)

	r := wire.NewReader(stream)
	_, err := r.ReadBytes(13) // framing, counts and identifier section
	require.NoError(t, err)
	min0, err := r.ReadFloat32()
	require.NoError(t, err)
	min1, err := r.ReadFloat32()
	require.NoError(t, err)
	rangeVal, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(0), min0)
	assert.Equal(t, float32(5), min1)
	assert.Equal(t, float32(100), rangeVal)
}

func TestZeroRangeDecodesToMinimum(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.GenericBits = 8
	stream, _ := encodeSingleFloatAttribute(t, cloud.KindGeneric, 1,
		[]float32{2.5, 2.5, 2.5}, opts)

	got, err := NewSequentialDecoder().Decode(wire.NewReader(stream))
	require.NoError(t, err)
	att := got.Attribute(0)
	for p := 0; p < 3; p++ {
		assert.Equal(t, float32(2.5), att.Float32(p, 0), "point %d", p)
	}
}

func TestTruncatedStreamsFailCleanly(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	stream, _ := encodeSingleFloatAttribute(t, cloud.KindPosition, 3,
		[]float32{0, 0, 0, 1, 2, 3, 4, 5, 6}, opts)

	// Every proper prefix must fail with an error, never panic and never
	// read past the end.
	for cut := 0; cut < len(stream); cut++ {
		_, err := NewSequentialDecoder().Decode(wire.NewReader(stream[:cut]))
		assert.Errorf(t, err, "prefix of %d bytes decoded successfully", cut)
	}
}

func TestDecodeRejectsBadBitDepth(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.GenericBits = 8
	stream, _ := encodeSingleFloatAttribute(t, cloud.KindGeneric, 1,
		[]float32{0, 1, 2, 3}, opts)

	// The bit-depth byte sits right after the framing (6), point count (1),
	// encoder count (1), identifier section (5) and header floats (8).
	const bitsOffset = 6 + 1 + 1 + 5 + 8
	require.Equal(t, uint8(8), stream[bitsOffset], "test offset drifted from stream layout")

	for _, bad := range []uint8{0, 32, 200} {
		corrupted := append([]byte(nil), stream...)
		corrupted[bitsOffset] = bad
		_, err := NewSequentialDecoder().Decode(wire.NewReader(corrupted))
		assert.ErrorIsf(t, err, ErrBadQuantizationBits, "bits=%d", bad)
	}
}

func TestDecodeTypeGateRejectsQuantizedNonFloat(t *testing.T) {
	t.Parallel()

	// Handcraft a stream whose identifier section claims a quantized uint8
	// attribute. Initialize must reject it before any payload is read.
	w := wire.NewWriter(0)
	w.WriteBytes([]byte(streamMagic))
	w.WriteUint8(streamVersion)
	w.WriteUint8(uint8(MethodSequential))
	w.WriteUvarint(2) // points
	w.WriteUvarint(1) // encoders
	w.WriteUint8(VariantQuantized)
	w.WriteUvarint(1)
	w.WriteUint8(uint8(cloud.KindColor))
	w.WriteUint8(uint8(cloud.DataTypeUint8))
	w.WriteUint8(3)
	// Enough trailing bytes for a plausible payload; the type gate, not a
	// length check, must be what rejects this stream.
	w.WriteBytes(make([]byte, 32))

	_, err := NewSequentialDecoder().Decode(wire.NewReader(w.Bytes()))
	assert.ErrorIs(t, err, ErrBadDataType)
}

func TestDecodeRejectsOutOfRangeCodes(t *testing.T) {
	t.Parallel()

	// Build a stream by hand whose integer payload claims codes above the
	// header's maximum.
	w := wire.NewWriter(0)
	w.WriteBytes([]byte(streamMagic))
	w.WriteUint8(streamVersion)
	w.WriteUint8(uint8(MethodSequential))
	w.WriteUvarint(1)
	w.WriteUvarint(1)
	w.WriteUint8(VariantQuantized)
	w.WriteUvarint(1)
	w.WriteUint8(uint8(cloud.KindGeneric))
	w.WriteUint8(uint8(cloud.DataTypeFloat32))
	w.WriteUint8(1)
	w.WriteFloat32(0) // min
	w.WriteFloat32(1) // range
	w.WriteUint8(2)   // bits: max code 3
	require.NoError(t, encodeIntegers(w, []int32{7}))

	_, err := NewSequentialDecoder().Decode(wire.NewReader(w.Bytes()))
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func TestDecodeRejectsUndersizedAttributeClaim(t *testing.T) {
	t.Parallel()

	// A handful of framing bytes can describe an enormous cloud. The shape
	// must be checked against the bytes actually present before any
	// attribute storage is sized from it.
	for name, variant := range map[string]uint8{
		"raw":       VariantRaw,
		"quantized": VariantQuantized,
	} {
		variant := variant
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			w := wire.NewWriter(0)
			w.WriteBytes([]byte(streamMagic))
			w.WriteUint8(streamVersion)
			w.WriteUint8(uint8(MethodSequential))
			w.WriteUvarint(1 << 28) // points
			w.WriteUvarint(1)       // encoders
			w.WriteUint8(variant)
			w.WriteUvarint(1)
			w.WriteUint8(uint8(cloud.KindPosition))
			w.WriteUint8(uint8(cloud.DataTypeFloat32))
			w.WriteUint8(255)

			_, err := NewSequentialDecoder().Decode(wire.NewReader(w.Bytes()))
			assert.ErrorIs(t, err, ErrCorruptStream)
		})
	}
}

func TestEncodeRejectsNonFloatQuantization(t *testing.T) {
	t.Parallel()

	// Force the quantized path onto a uint8 attribute via a grouped encoder
	// whose first attribute is float; the variant check must catch the mix.
	pc := cloud.New(2)
	_, err := pc.AddAttribute(cloud.KindGeneric, cloud.DataTypeFloat32, 1)
	require.NoError(t, err)
	_, err = pc.AddAttribute(cloud.KindGeneric, cloud.DataTypeUint8, 1)
	require.NoError(t, err)

	enc := NewEncoder(groupingGeometry{})
	enc.SetPointCloud(pc)
	err = enc.Encode(DefaultOptions(), wire.NewWriter(0))
	assert.ErrorIs(t, err, ErrBadDataType)
}
