// Package cloud holds the in-memory point cloud model the codec operates on:
// an ordered set of per-point attributes (positions, normals, colours, ...)
// sharing one point index space. The codec only ever borrows a point cloud;
// ownership stays with the caller for the whole encode or decode call.
package cloud

// DataType identifies the scalar type backing an attribute.
type DataType uint8

const (
	DataTypeInvalid DataType = iota
	DataTypeFloat32
	DataTypeUint8
	DataTypeUint16
	DataTypeUint32
	DataTypeInt32
)

// Size returns the byte width of one scalar of this type, or 0 for
// DataTypeInvalid.
func (dt DataType) Size() int {
	switch dt {
	case DataTypeFloat32, DataTypeUint32, DataTypeInt32:
		return 4
	case DataTypeUint16:
		return 2
	case DataTypeUint8:
		return 1
	default:
		return 0
	}
}

func (dt DataType) String() string {
	switch dt {
	case DataTypeFloat32:
		return "float32"
	case DataTypeUint8:
		return "uint8"
	case DataTypeUint16:
		return "uint16"
	case DataTypeUint32:
		return "uint32"
	case DataTypeInt32:
		return "int32"
	default:
		return "invalid"
	}
}

// Kind is the semantic role of an attribute. It drives codec selection and
// per-kind quantization settings but has no effect on storage layout.
type Kind uint8

const (
	KindGeneric Kind = iota
	KindPosition
	KindNormal
	KindColor
	KindTexCoord
)

func (k Kind) String() string {
	switch k {
	case KindPosition:
		return "position"
	case KindNormal:
		return "normal"
	case KindColor:
		return "color"
	case KindTexCoord:
		return "texcoord"
	default:
		return "generic"
	}
}
