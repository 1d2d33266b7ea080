// Package fidelity measures reconstruction error between a source point
// cloud and its decoded counterpart, per attribute.
package fidelity

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pointcodec/internal/cloud"
)

// AttributeStats summarises the absolute per-scalar error of one attribute.
// For non-float attributes (which travel losslessly) Exact reports whether
// the bytes survived unchanged and the error fields stay zero.
type AttributeStats struct {
	AttributeID int32
	Kind        cloud.Kind
	DataType    cloud.DataType
	Exact       bool
	MaxError    float64
	MeanError   float64
	P95Error    float64
}

// Compare computes per-attribute error statistics between src and dst. The
// two clouds must have the same shape: same point count and the same
// attribute layout.
func Compare(src, dst *cloud.PointCloud) ([]AttributeStats, error) {
	if src.NumPoints() != dst.NumPoints() {
		return nil, fmt.Errorf("point counts differ: %d vs %d", src.NumPoints(), dst.NumPoints())
	}
	if src.NumAttributes() != dst.NumAttributes() {
		return nil, fmt.Errorf("attribute counts differ: %d vs %d", src.NumAttributes(), dst.NumAttributes())
	}

	out := make([]AttributeStats, 0, src.NumAttributes())
	for id := int32(0); id < int32(src.NumAttributes()); id++ {
		a, b := src.Attribute(id), dst.Attribute(id)
		if a.DataType() != b.DataType() || a.Components() != b.Components() {
			return nil, fmt.Errorf("attribute %d shape differs", id)
		}
		s := AttributeStats{AttributeID: id, Kind: a.Kind(), DataType: a.DataType()}

		if a.DataType() != cloud.DataTypeFloat32 {
			s.Exact = bytes.Equal(a.Bytes(), b.Bytes())
			out = append(out, s)
			continue
		}

		n := a.NumPoints() * a.Components()
		if n == 0 {
			s.Exact = true
			out = append(out, s)
			continue
		}
		diffs := make([]float64, 0, n)
		for p := 0; p < a.NumPoints(); p++ {
			for c := 0; c < a.Components(); c++ {
				diffs = append(diffs, math.Abs(float64(a.Float32(p, c)-b.Float32(p, c))))
			}
		}
		s.MaxError = floats.Max(diffs)
		s.MeanError = stat.Mean(diffs, nil)
		sort.Float64s(diffs)
		s.P95Error = stat.Quantile(0.95, stat.Empirical, diffs, nil)
		s.Exact = s.MaxError == 0
		out = append(out, s)
	}
	return out, nil
}

// WorstFloatError returns the largest MaxError across float attributes, or 0
// if there are none.
func WorstFloatError(stats []AttributeStats) float64 {
	worst := 0.0
	for _, s := range stats {
		if s.DataType == cloud.DataTypeFloat32 && s.MaxError > worst {
			worst = s.MaxError
		}
	}
	return worst
}
