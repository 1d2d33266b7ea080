// Package ply reads and writes ASCII PLY point clouds for the codec CLI.
//
// Only the vertex element is converted; face and other elements are skipped.
// Well-known property groups map onto attribute kinds:
//
//	x, y, z          -> position (float32 x3)
//	nx, ny, nz       -> normal   (float32 x3)
//	red, green, blue -> color    (uint8 x3, plus alpha when present)
//	u, v (or s, t)   -> texcoord (float32 x2)
//
// Remaining properties become single-component generic attributes. Binary
// PLY variants are not supported; convert first or extend the header parser.
package ply

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/pointcodec/internal/cloud"
)

type property struct {
	name     string
	dataType cloud.DataType
}

// scalarType maps a PLY type token to a supported attribute scalar type.
func scalarType(token string) (cloud.DataType, error) {
	switch token {
	case "float", "float32", "double", "float64":
		// Doubles are narrowed; the codec core is float32 throughout.
		return cloud.DataTypeFloat32, nil
	case "uchar", "uint8":
		return cloud.DataTypeUint8, nil
	case "ushort", "uint16":
		return cloud.DataTypeUint16, nil
	case "uint", "uint32":
		return cloud.DataTypeUint32, nil
	case "int", "int32":
		return cloud.DataTypeInt32, nil
	default:
		return cloud.DataTypeInvalid, fmt.Errorf("unsupported property type %q", token)
	}
}

// group is a run of consecutive properties folded into one attribute.
type group struct {
	kind  cloud.Kind
	props []property
}

// groupProperties folds consecutive well-known property names into
// multi-component attributes and leaves the rest as generic scalars.
func groupProperties(props []property) []group {
	names := func(i int, want ...string) bool {
		if i+len(want) > len(props) {
			return false
		}
		for j, n := range want {
			if props[i+j].name != n {
				return false
			}
		}
		return true
	}

	var groups []group
	for i := 0; i < len(props); {
		switch {
		case names(i, "x", "y", "z"):
			groups = append(groups, group{cloud.KindPosition, props[i : i+3]})
			i += 3
		case names(i, "nx", "ny", "nz"):
			groups = append(groups, group{cloud.KindNormal, props[i : i+3]})
			i += 3
		case names(i, "red", "green", "blue", "alpha"):
			groups = append(groups, group{cloud.KindColor, props[i : i+4]})
			i += 4
		case names(i, "red", "green", "blue"):
			groups = append(groups, group{cloud.KindColor, props[i : i+3]})
			i += 3
		case names(i, "u", "v") || names(i, "s", "t"):
			groups = append(groups, group{cloud.KindTexCoord, props[i : i+2]})
			i += 2
		default:
			groups = append(groups, group{cloud.KindGeneric, props[i : i+1]})
			i++
		}
	}
	return groups
}

// Read parses an ASCII PLY stream into a point cloud.
func Read(r io.Reader) (*cloud.PointCloud, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	next := func() (string, bool) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				return line, true
			}
		}
		return "", false
	}

	line, ok := next()
	if !ok || line != "ply" {
		return nil, fmt.Errorf("not a PLY stream: missing ply magic")
	}

	// Header: format, elements, properties of the vertex element.
	var (
		vertexCount = -1
		props       []property
		inVertex    bool
	)
headerLoop:
	for {
		line, ok = next()
		if !ok {
			return nil, fmt.Errorf("unexpected end of header")
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return nil, fmt.Errorf("only ascii PLY is supported, got %q", line)
			}
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("malformed element line %q", line)
			}
			if fields[1] == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("bad element count in %q", line)
				}
				if vertexCount >= 0 {
					return nil, fmt.Errorf("duplicate vertex element")
				}
				vertexCount = n
				inVertex = true
			} else {
				// Non-vertex elements (faces, edges) carry no per-point
				// attributes; their data rows trail the vertex rows and are
				// left unread.
				inVertex = false
				if vertexCount < 0 {
					return nil, fmt.Errorf("element %q before vertex element is not supported", fields[1])
				}
			}
		case "property":
			if !inVertex {
				continue
			}
			if len(fields) >= 2 && fields[1] == "list" {
				return nil, fmt.Errorf("list property on vertex element is not supported")
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("malformed property line %q", line)
			}
			dt, err := scalarType(fields[1])
			if err != nil {
				return nil, err
			}
			props = append(props, property{name: fields[2], dataType: dt})
		case "end_header":
			break headerLoop
		default:
			return nil, fmt.Errorf("unexpected header line %q", line)
		}
	}
	if vertexCount < 0 {
		return nil, fmt.Errorf("no vertex element in header")
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("vertex element has no properties")
	}

	pc := cloud.New(vertexCount)
	groups := groupProperties(props)

	// Attribute per group; mixed-type groups fall back to per-property
	// generic attributes.
	type target struct {
		att  *cloud.Attribute
		comp int
	}
	var targets []target
	for _, g := range groups {
		uniform := true
		for _, p := range g.props[1:] {
			if p.dataType != g.props[0].dataType {
				uniform = false
				break
			}
		}
		if uniform {
			id, err := pc.AddAttribute(g.kind, g.props[0].dataType, len(g.props))
			if err != nil {
				return nil, err
			}
			for c := range g.props {
				targets = append(targets, target{pc.Attribute(id), c})
			}
			continue
		}
		for _, p := range g.props {
			id, err := pc.AddAttribute(cloud.KindGeneric, p.dataType, 1)
			if err != nil {
				return nil, err
			}
			targets = append(targets, target{pc.Attribute(id), 0})
		}
	}

	for row := 0; row < vertexCount; row++ {
		line, ok = next()
		if !ok {
			return nil, fmt.Errorf("vertex data ends at row %d of %d", row, vertexCount)
		}
		fields := strings.Fields(line)
		if len(fields) != len(targets) {
			return nil, fmt.Errorf("row %d has %d values, want %d", row, len(fields), len(targets))
		}
		for i, tgt := range targets {
			if err := storeScalar(tgt.att, row, tgt.comp, fields[i]); err != nil {
				return nil, fmt.Errorf("row %d property %d: %w", row, i, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pc, nil
}

// storeScalar parses one ASCII token into the attribute's scalar type.
func storeScalar(att *cloud.Attribute, point, comp int, token string) error {
	switch att.DataType() {
	case cloud.DataTypeFloat32:
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return err
		}
		att.SetFloat32(point, comp, float32(v))
		return nil
	case cloud.DataTypeUint8:
		v, err := strconv.ParseUint(token, 10, 8)
		if err != nil {
			return err
		}
		att.Bytes()[point*att.Components()+comp] = uint8(v)
		return nil
	case cloud.DataTypeUint16:
		v, err := strconv.ParseUint(token, 10, 16)
		if err != nil {
			return err
		}
		off := (point*att.Components() + comp) * 2
		att.Bytes()[off] = byte(v)
		att.Bytes()[off+1] = byte(v >> 8)
		return nil
	case cloud.DataTypeUint32, cloud.DataTypeInt32:
		var u uint64
		if att.DataType() == cloud.DataTypeInt32 {
			v, err := strconv.ParseInt(token, 10, 32)
			if err != nil {
				return err
			}
			u = uint64(uint32(int32(v)))
		} else {
			v, err := strconv.ParseUint(token, 10, 32)
			if err != nil {
				return err
			}
			u = v
		}
		off := (point*att.Components() + comp) * 4
		b := att.Bytes()
		b[off] = byte(u)
		b[off+1] = byte(u >> 8)
		b[off+2] = byte(u >> 16)
		b[off+3] = byte(u >> 24)
		return nil
	default:
		return fmt.Errorf("unsupported attribute type %s", att.DataType())
	}
}

// ReadFile parses the PLY file at path.
func ReadFile(path string) (*cloud.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pc, nil
}
