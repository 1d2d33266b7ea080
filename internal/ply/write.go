package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/banshee-data/pointcodec/internal/cloud"
)

func typeToken(dt cloud.DataType) (string, error) {
	switch dt {
	case cloud.DataTypeFloat32:
		return "float", nil
	case cloud.DataTypeUint8:
		return "uchar", nil
	case cloud.DataTypeUint16:
		return "ushort", nil
	case cloud.DataTypeUint32:
		return "uint", nil
	case cloud.DataTypeInt32:
		return "int", nil
	default:
		return "", fmt.Errorf("attribute type %s has no PLY representation", dt)
	}
}

// propertyNames picks canonical PLY property names for an attribute. Known
// kinds with their usual component counts get the conventional names;
// everything else is named by attribute id and component.
func propertyNames(att *cloud.Attribute) []string {
	var conventional []string
	switch att.Kind() {
	case cloud.KindPosition:
		conventional = []string{"x", "y", "z"}
	case cloud.KindNormal:
		conventional = []string{"nx", "ny", "nz"}
	case cloud.KindColor:
		conventional = []string{"red", "green", "blue", "alpha"}
	case cloud.KindTexCoord:
		conventional = []string{"u", "v"}
	}
	if len(conventional) >= att.Components() {
		return conventional[:att.Components()]
	}
	names := make([]string, att.Components())
	for c := range names {
		names[c] = fmt.Sprintf("attr%d_%d", att.ID(), c)
	}
	return names
}

// formatScalar renders one scalar as an ASCII token.
func formatScalar(att *cloud.Attribute, point, comp int) string {
	switch att.DataType() {
	case cloud.DataTypeFloat32:
		return strconv.FormatFloat(float64(att.Float32(point, comp)), 'g', -1, 32)
	case cloud.DataTypeUint8:
		return strconv.FormatUint(uint64(att.Bytes()[point*att.Components()+comp]), 10)
	case cloud.DataTypeUint16:
		off := (point*att.Components() + comp) * 2
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(att.Bytes()[off:])), 10)
	case cloud.DataTypeUint32:
		off := (point*att.Components() + comp) * 4
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(att.Bytes()[off:])), 10)
	case cloud.DataTypeInt32:
		off := (point*att.Components() + comp) * 4
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(att.Bytes()[off:]))), 10)
	default:
		return "0"
	}
}

// Write emits the point cloud as an ASCII PLY stream.
func Write(w io.Writer, pc *cloud.PointCloud) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	fmt.Fprintf(bw, "element vertex %d\n", pc.NumPoints())

	var atts []*cloud.Attribute
	for id := int32(0); id < int32(pc.NumAttributes()); id++ {
		att := pc.Attribute(id)
		token, err := typeToken(att.DataType())
		if err != nil {
			return err
		}
		for _, name := range propertyNames(att) {
			fmt.Fprintf(bw, "property %s %s\n", token, name)
		}
		atts = append(atts, att)
	}
	fmt.Fprintln(bw, "end_header")

	for p := 0; p < pc.NumPoints(); p++ {
		first := true
		for _, att := range atts {
			for c := 0; c < att.Components(); c++ {
				if !first {
					if err := bw.WriteByte(' '); err != nil {
						return err
					}
				}
				first = false
				if _, err := bw.WriteString(formatScalar(att, p, c)); err != nil {
					return err
				}
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the point cloud to a PLY file at path.
func WriteFile(path string, pc *cloud.PointCloud) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, pc); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
