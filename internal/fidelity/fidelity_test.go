package fidelity

import (
	"math"
	"testing"

	"github.com/banshee-data/pointcodec/internal/cloud"
)

func buildPair(t *testing.T) (*cloud.PointCloud, *cloud.PointCloud) {
	t.Helper()
	mk := func() *cloud.PointCloud {
		pc := cloud.New(4)
		if _, err := pc.AddAttribute(cloud.KindPosition, cloud.DataTypeFloat32, 1); err != nil {
			t.Fatal(err)
		}
		if _, err := pc.AddAttribute(cloud.KindColor, cloud.DataTypeUint8, 1); err != nil {
			t.Fatal(err)
		}
		return pc
	}
	return mk(), mk()
}

func TestCompareReportsErrors(t *testing.T) {
	src, dst := buildPair(t)
	for p := 0; p < 4; p++ {
		src.Attribute(0).SetFloat32(p, 0, float32(p))
		dst.Attribute(0).SetFloat32(p, 0, float32(p)+0.5)
	}
	dst.Attribute(0).SetFloat32(3, 0, 3+2.0) // one outlier

	stats, err := Compare(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}

	pos := stats[0]
	if pos.Exact {
		t.Error("position marked exact despite injected error")
	}
	if math.Abs(pos.MaxError-2.0) > 1e-12 {
		t.Errorf("MaxError = %v, want 2.0", pos.MaxError)
	}
	wantMean := (0.5 + 0.5 + 0.5 + 2.0) / 4
	if math.Abs(pos.MeanError-wantMean) > 1e-12 {
		t.Errorf("MeanError = %v, want %v", pos.MeanError, wantMean)
	}

	col := stats[1]
	if !col.Exact {
		t.Error("untouched uint8 attribute should be exact")
	}
	if col.MaxError != 0 {
		t.Errorf("uint8 MaxError = %v, want 0", col.MaxError)
	}
}

func TestCompareDetectsByteDrift(t *testing.T) {
	src, dst := buildPair(t)
	dst.Attribute(1).Bytes()[2] = 7

	stats, err := Compare(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if stats[1].Exact {
		t.Error("modified uint8 attribute reported exact")
	}
}

func TestCompareRejectsShapeMismatch(t *testing.T) {
	src, _ := buildPair(t)
	other := cloud.New(4)
	if _, err := Compare(src, other); err == nil {
		t.Error("expected attribute count mismatch to fail")
	}
	short := cloud.New(2)
	if _, err := Compare(src, short); err == nil {
		t.Error("expected point count mismatch to fail")
	}
}

func TestWorstFloatError(t *testing.T) {
	stats := []AttributeStats{
		{DataType: cloud.DataTypeUint8, MaxError: 9},
		{DataType: cloud.DataTypeFloat32, MaxError: 0.25},
		{DataType: cloud.DataTypeFloat32, MaxError: 0.75},
	}
	if got := WorstFloatError(stats); got != 0.75 {
		t.Errorf("WorstFloatError = %v, want 0.75 (uint8 rows ignored)", got)
	}
	if got := WorstFloatError(nil); got != 0 {
		t.Errorf("WorstFloatError(nil) = %v, want 0", got)
	}
}
