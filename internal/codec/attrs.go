package codec

// AttributesEncoder owns the set of attribute ids serialized by one
// compression strategy. Instances are created by the geometry encoder's
// factory step, initialized exactly once, and discarded when the Encode call
// returns.
type AttributesEncoder interface {
	// Initialize binds the encoder to its first attribute. It runs inside
	// the owner's initialization window, so this is the only place
	// Encoder.MarkParentAttribute may be called from.
	Initialize(e *Encoder, firstAttributeID int32) error

	// AddAttributeID attaches a further attribute to this encoder so several
	// attributes can share one codec instance.
	AddAttributeID(id int32)

	// AttributeIDs returns the owned ids in attachment order.
	AttributeIDs() []int32

	// EncodeAttributes serializes all owned attributes into the shared
	// output buffer.
	EncodeAttributes(e *Encoder) error
}

// AttributesDecoder is the decode-side counterpart. The geometry decoder
// reconstructs one instance per identifier section in the stream.
type AttributesDecoder interface {
	// Initialize validates the decoder against its target attributes before
	// any payload bytes are read. Configuration errors (such as a wrong
	// scalar type) surface here.
	Initialize(d *Decoder) error

	// AttributeIDs returns the ids this decoder populates.
	AttributeIDs() []int32

	// DecodeAttributes reads this codec's payload from the shared input
	// buffer and writes reconstructed values into the target attributes.
	DecodeAttributes(d *Decoder) error
}

// attributeSet implements the id bookkeeping shared by the concrete
// attributes encoders and decoders.
type attributeSet struct {
	ids []int32
}

func (s *attributeSet) AddAttributeID(id int32) {
	s.ids = append(s.ids, id)
}

func (s *attributeSet) AttributeIDs() []int32 { return s.ids }

func (s *attributeSet) numAttributes() int { return len(s.ids) }
