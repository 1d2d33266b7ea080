package codec

import (
	"fmt"

	"github.com/banshee-data/pointcodec/internal/cloud"
	"github.com/banshee-data/pointcodec/internal/wire"
)

// Decode-side sanity bounds. Streams claiming more are rejected as corrupt
// before any allocation happens.
const (
	maxDecodePoints             = 1 << 28
	maxDecodeAttributesEncoders = 1 << 16
)

// GeometryDecoder mirrors GeometryEncoder for the decode direction.
type GeometryDecoder interface {
	Method() Method

	// InitializeDecoder runs family-specific setup before any stream bytes
	// past the container header are read.
	InitializeDecoder(d *Decoder) error

	// DecodeDecoderData consumes the bytes written by EncodeEncoderData.
	DecodeDecoderData(d *Decoder) error

	// DecodeGeometryData consumes global geometry facts and returns the
	// point cloud the attribute decoders will populate.
	DecodeGeometryData(d *Decoder) (*cloud.PointCloud, error)

	// CreateAttributesDecoder consumes one identifier section, registers
	// the attributes it describes on the point cloud, and returns the
	// matching attributes decoder.
	CreateAttributesDecoder(d *Decoder) (AttributesDecoder, error)
}

// NopGeometryDecoder supplies default no-op hooks for embedding.
type NopGeometryDecoder struct{}

func (NopGeometryDecoder) InitializeDecoder(*Decoder) error { return nil }
func (NopGeometryDecoder) DecodeDecoderData(*Decoder) error { return nil }

// Decoder reconstructs a point cloud from a stream produced by Encoder.
// Attribute payloads are processed in stream order, which the encoder
// already arranged to respect inter-attribute dependencies.
type Decoder struct {
	geometry GeometryDecoder
	pc       *cloud.PointCloud
	r        *wire.Reader
	decoders []AttributesDecoder
}

// NewDecoder returns a Decoder for the given geometry family.
func NewDecoder(g GeometryDecoder) *Decoder {
	return &Decoder{geometry: g}
}

// NewSequentialDecoder returns a Decoder for plain point clouds.
func NewSequentialDecoder() *Decoder {
	return NewDecoder(SequentialGeometryDecoder{})
}

// PointCloud returns the cloud under reconstruction. Valid once
// DecodeGeometryData has run.
func (d *Decoder) PointCloud() *cloud.PointCloud { return d.pc }

// Reader returns the shared input buffer of the active Decode call.
func (d *Decoder) Reader() *wire.Reader { return d.r }

// Decode reads one complete stream from r and returns the reconstructed
// point cloud. Any failure aborts the call; no partially decoded attribute
// is usable.
func (d *Decoder) Decode(r *wire.Reader) (*cloud.PointCloud, error) {
	d.r = r
	d.pc = nil
	d.decoders = nil
	defer func() { d.r = nil }()

	magic, err := r.ReadBytes(len(streamMagic))
	if err != nil {
		return nil, fmt.Errorf("stream magic: %w", err)
	}
	if string(magic) != streamMagic {
		return nil, fmt.Errorf("%q: %w", magic, ErrBadMagic)
	}
	version, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("stream version: %w", err)
	}
	if version != streamVersion {
		return nil, fmt.Errorf("version %d: %w", version, ErrBadVersion)
	}
	method, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("stream method: %w", err)
	}
	if Method(method) != d.geometry.Method() {
		return nil, fmt.Errorf("method %d, decoder handles %d: %w",
			method, d.geometry.Method(), ErrBadMethod)
	}

	if err := d.geometry.InitializeDecoder(d); err != nil {
		return nil, fmt.Errorf("decoder initialization: %w", err)
	}
	if err := d.geometry.DecodeDecoderData(d); err != nil {
		return nil, fmt.Errorf("decoder data: %w", err)
	}
	pc, err := d.geometry.DecodeGeometryData(d)
	if err != nil {
		return nil, fmt.Errorf("geometry data: %w", err)
	}
	d.pc = pc

	if err := d.decodeAllAttributes(); err != nil {
		return nil, err
	}
	return d.pc, nil
}

// decodeAllAttributes walks the encoder sections in stream order: identifier
// first, then the codec's payload. Parents appear before children by
// construction, so no reordering happens on this side.
func (d *Decoder) decodeAllAttributes() error {
	n, err := d.r.ReadUvarint()
	if err != nil {
		return fmt.Errorf("attributes encoder count: %w", err)
	}
	if n > maxDecodeAttributesEncoders {
		return fmt.Errorf("%d attributes encoders: %w", n, ErrCorruptStream)
	}
	for i := uint64(0); i < n; i++ {
		ad, err := d.geometry.CreateAttributesDecoder(d)
		if err != nil {
			return fmt.Errorf("attributes decoder %d identifier: %w", i, err)
		}
		d.decoders = append(d.decoders, ad)
		if err := ad.Initialize(d); err != nil {
			return fmt.Errorf("attributes decoder %d initialization: %w", i, err)
		}
		if err := ad.DecodeAttributes(d); err != nil {
			return fmt.Errorf("attributes decoder %d: %w", i, err)
		}
	}
	return nil
}

// SequentialGeometryDecoder decodes streams produced by
// SequentialGeometryEncoder.
type SequentialGeometryDecoder struct {
	NopGeometryDecoder
}

func (SequentialGeometryDecoder) Method() Method { return MethodSequential }

func (SequentialGeometryDecoder) DecodeGeometryData(d *Decoder) (*cloud.PointCloud, error) {
	n, err := d.Reader().ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("point count: %w", err)
	}
	if n > maxDecodePoints {
		return nil, fmt.Errorf("%d points: %w", n, ErrCorruptStream)
	}
	return cloud.New(int(n)), nil
}

// CreateAttributesDecoder reads one identifier section (variant byte,
// attribute count, per-attribute shape) and materialises the described
// attributes on the output cloud.
func (SequentialGeometryDecoder) CreateAttributesDecoder(d *Decoder) (AttributesDecoder, error) {
	r := d.Reader()
	variant, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if variant > VariantQuantized {
		return nil, fmt.Errorf("variant %d: %w", variant, ErrBadVariant)
	}
	count, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if count < 1 || count > uint64(maxDecodeAttributesEncoders) {
		return nil, fmt.Errorf("%d attributes in one encoder: %w", count, ErrCorruptStream)
	}

	ids := make([]int32, 0, count)
	points := uint64(d.PointCloud().NumPoints())
	var needed uint64
	for i := uint64(0); i < count; i++ {
		kind, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if cloud.Kind(kind) > cloud.KindTexCoord {
			return nil, fmt.Errorf("attribute kind %d: %w", kind, ErrCorruptStream)
		}
		dt, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if cloud.DataType(dt).Size() == 0 {
			return nil, fmt.Errorf("attribute data type %d: %w", dt, ErrCorruptStream)
		}
		comps, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		needed += minAttributeBytes(variant, points, uint64(comps), cloud.DataType(dt))
		if needed > uint64(r.Remaining()) {
			return nil, fmt.Errorf("attribute shapes need at least %d payload bytes, %d remain: %w",
				needed, r.Remaining(), ErrCorruptStream)
		}
		id, err := d.PointCloud().AddAttribute(cloud.Kind(kind), cloud.DataType(dt), int(comps))
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrCorruptStream)
		}
		ids = append(ids, id)
	}
	return NewSequentialAttributesDecoder(variant, ids), nil
}

// minAttributeBytes is a floor on the payload bytes an attribute of the given
// shape must still have in the stream. The attribute storage is sized from
// the shape alone, so the floor is checked before anything is allocated. Raw
// attributes carry their bytes verbatim. Quantized ones carry a fixed header
// (per-component minima, range, bit depth) plus a packed code sequence; a
// zstd block cannot shrink past roughly 1:32768, so one claimed byte per
// 65536 codes stays below any payload a real encoder can produce.
func minAttributeBytes(variant uint8, points, components uint64, dt cloud.DataType) uint64 {
	if variant == VariantRaw {
		return points * components * uint64(dt.Size())
	}
	return components*4 + 4 + 1 + (points*components)>>16
}
