package cloud

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Attribute is one per-point property: a fixed-size record of `components`
// scalars per point index, stored component-interleaved in a flat byte
// buffer. Scalars are little-endian in the buffer so the layout matches the
// wire format byte for byte.
type Attribute struct {
	id         int32
	kind       Kind
	dataType   DataType
	components int
	numPoints  int
	data       []byte
}

// NewAttribute allocates zeroed backing storage for numPoints records. The id
// is assigned when the attribute is added to a PointCloud.
func NewAttribute(kind Kind, dt DataType, components, numPoints int) *Attribute {
	return &Attribute{
		id:         -1,
		kind:       kind,
		dataType:   dt,
		components: components,
		numPoints:  numPoints,
		data:       make([]byte, components*dt.Size()*numPoints),
	}
}

func (a *Attribute) ID() int32          { return a.id }
func (a *Attribute) Kind() Kind         { return a.kind }
func (a *Attribute) DataType() DataType { return a.dataType }
func (a *Attribute) Components() int    { return a.components }
func (a *Attribute) NumPoints() int     { return a.numPoints }

// EntrySize returns the byte width of one point's record.
func (a *Attribute) EntrySize() int { return a.components * a.dataType.Size() }

// Bytes exposes the raw backing buffer. Mutating it mutates the attribute.
func (a *Attribute) Bytes() []byte { return a.data }

// Read copies one entry's worth of bytes starting at byteOffset into dst.
func (a *Attribute) Read(byteOffset int, dst []byte) error {
	if byteOffset < 0 || byteOffset+len(dst) > len(a.data) {
		return fmt.Errorf("attribute %d: read of %d bytes at offset %d outside buffer of %d",
			a.id, len(dst), byteOffset, len(a.data))
	}
	copy(dst, a.data[byteOffset:])
	return nil
}

// Write copies src into the backing buffer starting at byteOffset.
func (a *Attribute) Write(byteOffset int, src []byte) error {
	if byteOffset < 0 || byteOffset+len(src) > len(a.data) {
		return fmt.Errorf("attribute %d: write of %d bytes at offset %d outside buffer of %d",
			a.id, len(src), byteOffset, len(a.data))
	}
	copy(a.data[byteOffset:], src)
	return nil
}

// Float32 returns component comp of the record at point. The attribute must
// be DataTypeFloat32; callers are expected to have checked the type once up
// front, so a mismatch here panics rather than returning an error.
func (a *Attribute) Float32(point, comp int) float32 {
	if a.dataType != DataTypeFloat32 {
		panic(fmt.Sprintf("Float32 on %s attribute %d", a.dataType, a.id))
	}
	off := (point*a.components + comp) * 4
	return math.Float32frombits(binary.LittleEndian.Uint32(a.data[off:]))
}

// SetFloat32 stores v as component comp of the record at point.
func (a *Attribute) SetFloat32(point, comp int, v float32) {
	if a.dataType != DataTypeFloat32 {
		panic(fmt.Sprintf("SetFloat32 on %s attribute %d", a.dataType, a.id))
	}
	off := (point*a.components + comp) * 4
	binary.LittleEndian.PutUint32(a.data[off:], math.Float32bits(v))
}

// PointCloud is an ordered collection of attributes sharing one point index
// space of fixed size.
type PointCloud struct {
	numPoints  int
	attributes []*Attribute
}

// New returns an empty point cloud with capacity for numPoints points per
// attribute.
func New(numPoints int) *PointCloud {
	return &PointCloud{numPoints: numPoints}
}

func (pc *PointCloud) NumPoints() int     { return pc.numPoints }
func (pc *PointCloud) NumAttributes() int { return len(pc.attributes) }

// AddAttribute allocates storage for a new attribute and returns its id. Ids
// are dense and assigned in creation order.
func (pc *PointCloud) AddAttribute(kind Kind, dt DataType, components int) (int32, error) {
	if components < 1 || components > 255 {
		return -1, fmt.Errorf("attribute component count %d outside 1..255", components)
	}
	if dt.Size() == 0 {
		return -1, fmt.Errorf("attribute has invalid data type")
	}
	att := NewAttribute(kind, dt, components, pc.numPoints)
	att.id = int32(len(pc.attributes))
	pc.attributes = append(pc.attributes, att)
	return att.id, nil
}

// Attribute returns the attribute with the given id, or nil if the id is out
// of range.
func (pc *PointCloud) Attribute(id int32) *Attribute {
	if id < 0 || int(id) >= len(pc.attributes) {
		return nil
	}
	return pc.attributes[id]
}

// NamedAttribute returns the first attribute of the given kind, or nil.
func (pc *PointCloud) NamedAttribute(kind Kind) *Attribute {
	for _, att := range pc.attributes {
		if att.kind == kind {
			return att
		}
	}
	return nil
}
