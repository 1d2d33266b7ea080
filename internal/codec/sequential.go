package codec

import (
	"fmt"

	"github.com/banshee-data/pointcodec/internal/cloud"
)

// Codec variant tokens written into each encoder's identifier section. The
// token must decode to the same variant that encoded the payload, so values
// are part of the stream format and never reordered.
const (
	VariantRaw       uint8 = 0
	VariantQuantized uint8 = 1
)

// sequentialVariant picks the codec variant for one attribute: float
// attributes with a configured bit depth are quantized, everything else
// passes through raw.
func sequentialVariant(att *cloud.Attribute, opts Options) uint8 {
	if att.DataType() == cloud.DataTypeFloat32 && opts.BitsFor(att.Kind()) > 0 {
		return VariantQuantized
	}
	return VariantRaw
}

// SequentialAttributesEncoder serializes its attributes point by point in
// index order, with no connectivity-derived traversal. It is the encoder
// used for point clouds (meshes would add traversal-aware strategies on the
// same interface).
type SequentialAttributesEncoder struct {
	attributeSet
}

func NewSequentialAttributesEncoder() *SequentialAttributesEncoder {
	return &SequentialAttributesEncoder{}
}

func (s *SequentialAttributesEncoder) Initialize(e *Encoder, firstAttributeID int32) error {
	s.AddAttributeID(firstAttributeID)
	return nil
}

// variant returns the codec variant shared by the attached attributes. All
// attributes grouped under one encoder must resolve to the same variant;
// mixing is a grouping mistake by the geometry encoder.
func (s *SequentialAttributesEncoder) variant(e *Encoder) (uint8, error) {
	v := sequentialVariant(e.PointCloud().Attribute(s.ids[0]), e.Options())
	for _, id := range s.ids[1:] {
		if got := sequentialVariant(e.PointCloud().Attribute(id), e.Options()); got != v {
			return 0, fmt.Errorf("attribute %d resolves to variant %d, encoder uses %d: %w",
				id, got, v, ErrBadDataType)
		}
	}
	return v, nil
}

func (s *SequentialAttributesEncoder) EncodeAttributes(e *Encoder) error {
	v, err := s.variant(e)
	if err != nil {
		return err
	}
	for _, id := range s.ids {
		att := e.PointCloud().Attribute(id)
		switch v {
		case VariantQuantized:
			err = encodeQuantizedAttribute(e, att)
		default:
			err = encodeRawAttribute(e, att)
		}
		if err != nil {
			return fmt.Errorf("attribute %d: %w", id, err)
		}
	}
	return nil
}

// encodeRawAttribute copies the attribute's backing bytes into the stream
// unchanged. The decoder knows the exact length from the attribute's shape,
// so no size prefix is needed.
func encodeRawAttribute(e *Encoder, att *cloud.Attribute) error {
	e.Buffer().WriteBytes(att.Bytes())
	return nil
}

// SequentialAttributesDecoder mirrors SequentialAttributesEncoder: one codec
// variant applied to one or more attributes, payloads in attachment order.
type SequentialAttributesDecoder struct {
	attributeSet
	variant uint8
}

func NewSequentialAttributesDecoder(variant uint8, ids []int32) *SequentialAttributesDecoder {
	return &SequentialAttributesDecoder{attributeSet: attributeSet{ids: ids}, variant: variant}
}

// Initialize applies the type gate before any payload bytes are consumed:
// the quantization variant only ever targets float32 attributes, whatever a
// hostile stream may claim.
func (s *SequentialAttributesDecoder) Initialize(d *Decoder) error {
	for _, id := range s.ids {
		att := d.PointCloud().Attribute(id)
		if att == nil {
			return fmt.Errorf("attribute %d not present: %w", id, ErrCorruptStream)
		}
		if s.variant == VariantQuantized && att.DataType() != cloud.DataTypeFloat32 {
			return fmt.Errorf("quantized attribute %d has type %s: %w",
				id, att.DataType(), ErrBadDataType)
		}
	}
	return nil
}

func (s *SequentialAttributesDecoder) DecodeAttributes(d *Decoder) error {
	for _, id := range s.ids {
		att := d.PointCloud().Attribute(id)
		var err error
		switch s.variant {
		case VariantQuantized:
			err = decodeQuantizedAttribute(d, att)
		default:
			err = decodeRawAttribute(d, att)
		}
		if err != nil {
			return fmt.Errorf("attribute %d: %w", id, err)
		}
	}
	return nil
}

func decodeRawAttribute(d *Decoder, att *cloud.Attribute) error {
	p, err := d.Reader().ReadBytes(len(att.Bytes()))
	if err != nil {
		return err
	}
	return att.Write(0, p)
}
