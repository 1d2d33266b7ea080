package codec

import (
	"fmt"

	"github.com/banshee-data/pointcodec/internal/cloud"
	"github.com/banshee-data/pointcodec/internal/quant"
	"github.com/banshee-data/pointcodec/internal/wire"
)

// Stream container framing shared by encoder and decoder.
const (
	streamMagic   = "PCCF"
	streamVersion = 1
)

// Method identifies the geometry encoding family carried by a stream.
type Method uint8

const (
	// MethodSequential encodes attributes point by point in index order
	// with no connectivity information.
	MethodSequential Method = 0
)

// GeometryEncoder customises the orchestration sequence for one geometry
// family. Hooks default to no-ops (embed NopGeometryEncoder); a concrete
// family overrides only what it needs.
type GeometryEncoder interface {
	Method() Method

	// InitializeEncoder runs family-specific setup before anything is
	// written.
	InitializeEncoder(e *Encoder) error

	// EncodeEncoderData writes family identity or metadata bytes.
	EncodeEncoderData(e *Encoder) error

	// EncodeGeometryData writes global geometry facts such as the point
	// count.
	EncodeGeometryData(e *Encoder) error

	// GenerateAttributesEncoder assigns one attribute to a codec: either
	// register a fresh attributes encoder via Encoder.AddAttributesEncoder
	// or attach the id to an existing one via Encoder.AttachAttribute.
	GenerateAttributesEncoder(e *Encoder, attributeID int32) error

	// EncodeAttributesEncoderIdentifier writes the token the decoder uses
	// to reconstruct the matching attributes decoder. Called in resolved
	// dependency order, immediately before the encoder's payload.
	EncodeAttributesEncoderIdentifier(e *Encoder, encoderID int) error
}

// NopGeometryEncoder supplies default no-op hooks for embedding.
type NopGeometryEncoder struct{}

func (NopGeometryEncoder) InitializeEncoder(*Encoder) error { return nil }
func (NopGeometryEncoder) EncodeEncoderData(*Encoder) error { return nil }
func (NopGeometryEncoder) EncodeGeometryData(*Encoder) error {
	return nil
}
func (NopGeometryEncoder) EncodeAttributesEncoderIdentifier(*Encoder, int) error { return nil }

// Encoder drives the attribute compression pipeline: it assigns attributes
// to codecs, orders the codecs by their declared dependencies, and runs each
// one against the shared output buffer. One Encoder serves one Encode call
// at a time; independent calls need independent instances.
type Encoder struct {
	geometry GeometryEncoder
	pc       *cloud.PointCloud
	opts     Options
	w        *wire.Writer

	encoders           []AttributesEncoder
	attributeToEncoder []int // attribute id -> encoder id, -1 unassigned
	parents            [][]int
	order              []int

	// Encoder id currently inside Initialize, -1 otherwise. Gates
	// MarkParentAttribute.
	initializing int

	// Reconstructed (post-quantization) attribute data, keyed by attribute
	// id, for predictors that must match the decoder's view.
	lossy map[int32]*cloud.Attribute
}

// NewEncoder returns an Encoder orchestrated by the given geometry family.
func NewEncoder(g GeometryEncoder) *Encoder {
	return &Encoder{geometry: g, initializing: -1}
}

// NewSequentialEncoder returns an Encoder for plain point clouds.
func NewSequentialEncoder() *Encoder {
	return NewEncoder(SequentialGeometryEncoder{})
}

// SetPointCloud binds the point cloud for the next Encode call. The encoder
// only borrows the cloud; it must stay alive and unchanged for the duration
// of the call. Rebinding resets any derived pipeline state.
func (e *Encoder) SetPointCloud(pc *cloud.PointCloud) {
	e.pc = pc
	e.resetPipeline()
}

func (e *Encoder) resetPipeline() {
	e.encoders = nil
	e.attributeToEncoder = nil
	e.parents = nil
	e.order = nil
	e.initializing = -1
	e.lossy = nil
}

// PointCloud returns the bound point cloud.
func (e *Encoder) PointCloud() *cloud.PointCloud { return e.pc }

// Options returns the options of the active Encode call.
func (e *Encoder) Options() Options { return e.opts }

// Buffer returns the shared output buffer of the active Encode call.
func (e *Encoder) Buffer() *wire.Writer { return e.w }

// Encode runs the full pipeline and appends the encoded stream to w. Any
// failing step aborts the call; nothing written before the failure is
// usable.
func (e *Encoder) Encode(opts Options, w *wire.Writer) error {
	if e.pc == nil {
		return ErrNoPointCloud
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	e.resetPipeline()
	e.opts = opts
	e.w = w
	defer func() { e.w = nil }()

	w.WriteBytes([]byte(streamMagic))
	w.WriteUint8(streamVersion)
	w.WriteUint8(uint8(e.geometry.Method()))

	if err := e.geometry.InitializeEncoder(e); err != nil {
		return fmt.Errorf("encoder initialization: %w", err)
	}
	if err := e.geometry.EncodeEncoderData(e); err != nil {
		return fmt.Errorf("encoder data: %w", err)
	}
	if err := e.geometry.EncodeGeometryData(e); err != nil {
		return fmt.Errorf("geometry data: %w", err)
	}
	if err := e.generateAttributesEncoders(); err != nil {
		return err
	}
	if err := e.rearrangeAttributesEncoders(); err != nil {
		return err
	}
	return e.encodeAllAttributes()
}

// NumAttributesEncoders returns the number of registered attributes
// encoders.
func (e *Encoder) NumAttributesEncoders() int { return len(e.encoders) }

// AttributesEncoder returns the encoder with the given id, or nil.
func (e *Encoder) AttributesEncoder(id int) AttributesEncoder {
	if id < 0 || id >= len(e.encoders) {
		return nil
	}
	return e.encoders[id]
}

// AddAttributesEncoder registers enc as the codec for attributeID and
// initializes it, returning the new encoder id. MarkParentAttribute is legal
// only inside the Initialize call this triggers.
func (e *Encoder) AddAttributesEncoder(enc AttributesEncoder, attributeID int32) (int, error) {
	if err := e.checkAssignable(attributeID); err != nil {
		return -1, err
	}
	id := len(e.encoders)
	e.encoders = append(e.encoders, enc)
	e.parents = append(e.parents, nil)
	e.attributeToEncoder[attributeID] = id

	e.initializing = id
	err := enc.Initialize(e, attributeID)
	e.initializing = -1
	if err != nil {
		return -1, fmt.Errorf("attributes encoder %d initialization: %w", id, err)
	}
	return id, nil
}

// AttachAttribute adds attributeID to an already-registered encoder so the
// two attributes share one codec instance.
func (e *Encoder) AttachAttribute(encoderID int, attributeID int32) error {
	if encoderID < 0 || encoderID >= len(e.encoders) {
		return fmt.Errorf("attributes encoder %d does not exist", encoderID)
	}
	if err := e.checkAssignable(attributeID); err != nil {
		return err
	}
	e.attributeToEncoder[attributeID] = encoderID
	e.encoders[encoderID].AddAttributeID(attributeID)
	return nil
}

func (e *Encoder) checkAssignable(attributeID int32) error {
	if attributeID < 0 || int(attributeID) >= len(e.attributeToEncoder) {
		return fmt.Errorf("attribute %d does not exist", attributeID)
	}
	if e.attributeToEncoder[attributeID] != -1 {
		return fmt.Errorf("attribute %d already assigned to encoder %d",
			attributeID, e.attributeToEncoder[attributeID])
	}
	return nil
}

// MarkParentAttribute declares that the encoder currently being initialized
// depends on whichever encoder owns parentAttributeID, forcing the parent to
// be processed first. Legal only during AttributesEncoder.Initialize.
func (e *Encoder) MarkParentAttribute(parentAttributeID int32) error {
	if e.initializing < 0 {
		return ErrNotInitializing
	}
	if parentAttributeID < 0 || int(parentAttributeID) >= len(e.attributeToEncoder) {
		return fmt.Errorf("parent attribute %d does not exist: %w", parentAttributeID, ErrUnknownParent)
	}
	parentEncoder := e.attributeToEncoder[parentAttributeID]
	if parentEncoder == -1 {
		return fmt.Errorf("parent attribute %d: %w", parentAttributeID, ErrUnknownParent)
	}
	if parentEncoder == e.initializing {
		return fmt.Errorf("parent attribute %d: %w", parentAttributeID, ErrSelfParent)
	}
	e.parents[e.initializing] = append(e.parents[e.initializing], parentEncoder)
	return nil
}

// GetLossyAttributeData returns the attribute as the decoder will see it:
// the dequantized reconstruction when the attribute went through a lossy
// codec, the original otherwise. Predictors for dependent attributes must
// use this, not the source data, or encode and decode drift apart.
func (e *Encoder) GetLossyAttributeData(attributeID int32) *cloud.Attribute {
	if att, ok := e.lossy[attributeID]; ok {
		return att
	}
	return e.pc.Attribute(attributeID)
}

// storeLossyAttribute reconstructs an attribute from its quantization
// parameters and codes, mirroring the decode path exactly.
func (e *Encoder) storeLossyAttribute(att *cloud.Attribute, minValue []float32, rangeVal float32, maxCode int32, codes []int32) {
	recon := cloud.NewAttribute(att.Kind(), att.DataType(), att.Components(), att.NumPoints())
	var dq quant.Dequantizer
	dq.Init(rangeVal, maxCode)
	i := 0
	for p := 0; p < att.NumPoints(); p++ {
		for c := 0; c < att.Components(); c++ {
			recon.SetFloat32(p, c, dq.DequantizeFloat(codes[i])+minValue[c])
			i++
		}
	}
	if e.lossy == nil {
		e.lossy = make(map[int32]*cloud.Attribute)
	}
	e.lossy[att.ID()] = recon
}

// generateAttributesEncoders asks the geometry encoder to assign every
// attribute of the point cloud to a codec. This is the only place
// attribute-to-codec assignment happens.
func (e *Encoder) generateAttributesEncoders() error {
	n := e.pc.NumAttributes()
	e.attributeToEncoder = make([]int, n)
	for i := range e.attributeToEncoder {
		e.attributeToEncoder[i] = -1
	}
	for id := int32(0); id < int32(n); id++ {
		if e.attributeToEncoder[id] != -1 {
			// Attached to an earlier encoder by the factory step.
			continue
		}
		if err := e.geometry.GenerateAttributesEncoder(e, id); err != nil {
			return fmt.Errorf("attribute %d: %w", id, err)
		}
		if e.attributeToEncoder[id] == -1 {
			return fmt.Errorf("geometry encoder left attribute %d unassigned", id)
		}
	}
	return nil
}

// rearrangeAttributesEncoders resolves the declared parent edges into the
// processing order: parents strictly before children, creation order
// preserved among unconstrained encoders.
func (e *Encoder) rearrangeAttributesEncoders() error {
	order, err := stableTopoOrder(len(e.encoders), e.parents)
	if err != nil {
		return err
	}
	e.order = order
	return nil
}

// encodeAllAttributes writes each encoder's identifier token and payload in
// the resolved order.
func (e *Encoder) encodeAllAttributes() error {
	e.w.WriteUvarint(uint64(len(e.encoders)))
	for _, id := range e.order {
		if err := e.geometry.EncodeAttributesEncoderIdentifier(e, id); err != nil {
			return fmt.Errorf("attributes encoder %d identifier: %w", id, err)
		}
		if err := e.encoders[id].EncodeAttributes(e); err != nil {
			return fmt.Errorf("attributes encoder %d: %w", id, err)
		}
	}
	return nil
}

// SequentialGeometryEncoder is the point-cloud geometry family: one
// sequential attributes encoder per attribute, point count as the only
// global geometry fact.
type SequentialGeometryEncoder struct {
	NopGeometryEncoder
}

func (SequentialGeometryEncoder) Method() Method { return MethodSequential }

func (SequentialGeometryEncoder) EncodeGeometryData(e *Encoder) error {
	e.Buffer().WriteUvarint(uint64(e.PointCloud().NumPoints()))
	return nil
}

func (SequentialGeometryEncoder) GenerateAttributesEncoder(e *Encoder, attributeID int32) error {
	_, err := e.AddAttributesEncoder(NewSequentialAttributesEncoder(), attributeID)
	return err
}

// EncodeAttributesEncoderIdentifier writes the codec variant plus the shape
// of every attached attribute, which is all the decoder needs to rebuild
// both the attributes and the matching decoder.
func (SequentialGeometryEncoder) EncodeAttributesEncoderIdentifier(e *Encoder, encoderID int) error {
	enc, ok := e.AttributesEncoder(encoderID).(*SequentialAttributesEncoder)
	if !ok {
		return fmt.Errorf("attributes encoder %d is not sequential", encoderID)
	}
	v, err := enc.variant(e)
	if err != nil {
		return err
	}
	w := e.Buffer()
	w.WriteUint8(v)
	w.WriteUvarint(uint64(len(enc.AttributeIDs())))
	for _, id := range enc.AttributeIDs() {
		att := e.PointCloud().Attribute(id)
		w.WriteUint8(uint8(att.Kind()))
		w.WriteUint8(uint8(att.DataType()))
		w.WriteUint8(uint8(att.Components()))
	}
	return nil
}
