package codec

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/pointcodec/internal/cloud"
)

// Bit-depth limits for the quantization codec. Encoding accepts 1..30 so the
// largest code always fits a signed 32-bit integer with headroom; decode
// additionally tolerates 31 (still representable) but nothing above.
const (
	MinQuantizationBits       = 1
	MaxQuantizationBits       = 30
	maxDecodeQuantizationBits = 31
)

// Options selects the per-kind quantization depth for an encode call. A
// depth of 0 disables quantization for that kind: float attributes travel
// as raw scalars instead.
type Options struct {
	PositionBits int `json:"position_bits"`
	NormalBits   int `json:"normal_bits"`
	ColorBits    int `json:"color_bits"`
	TexCoordBits int `json:"texcoord_bits"`
	GenericBits  int `json:"generic_bits"`
}

// DefaultOptions returns the depths used when the caller supplies nothing:
// positions keep the most precision, normals and generic data the least.
func DefaultOptions() Options {
	return Options{
		PositionBits: 11,
		NormalBits:   8,
		ColorBits:    8,
		TexCoordBits: 10,
		GenericBits:  8,
	}
}

// BitsFor returns the configured depth for an attribute kind.
func (o Options) BitsFor(kind cloud.Kind) int {
	switch kind {
	case cloud.KindPosition:
		return o.PositionBits
	case cloud.KindNormal:
		return o.NormalBits
	case cloud.KindColor:
		return o.ColorBits
	case cloud.KindTexCoord:
		return o.TexCoordBits
	default:
		return o.GenericBits
	}
}

// Validate rejects depths outside 0..MaxQuantizationBits.
func (o Options) Validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"position_bits", o.PositionBits},
		{"normal_bits", o.NormalBits},
		{"color_bits", o.ColorBits},
		{"texcoord_bits", o.TexCoordBits},
		{"generic_bits", o.GenericBits},
	} {
		if f.v < 0 || f.v > MaxQuantizationBits {
			return fmt.Errorf("%s = %d: %w", f.name, f.v, ErrBadQuantizationBits)
		}
	}
	return nil
}

// OptionsOverride mirrors Options with optional fields so a JSON config file
// can override only the values it names. Absent fields keep their current
// value, matching the way runtime tuning configs are merged elsewhere in the
// toolchain.
type OptionsOverride struct {
	PositionBits *int `json:"position_bits,omitempty"`
	NormalBits   *int `json:"normal_bits,omitempty"`
	ColorBits    *int `json:"color_bits,omitempty"`
	TexCoordBits *int `json:"texcoord_bits,omitempty"`
	GenericBits  *int `json:"generic_bits,omitempty"`
}

// LoadOptionsOverride reads an override file from disk.
func LoadOptionsOverride(path string) (*OptionsOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	var ov OptionsOverride
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return &ov, nil
}

// Apply merges the override into o, field by field.
func (ov *OptionsOverride) Apply(o *Options) {
	if ov == nil {
		return
	}
	if ov.PositionBits != nil {
		o.PositionBits = *ov.PositionBits
	}
	if ov.NormalBits != nil {
		o.NormalBits = *ov.NormalBits
	}
	if ov.ColorBits != nil {
		o.ColorBits = *ov.ColorBits
	}
	if ov.TexCoordBits != nil {
		o.TexCoordBits = *ov.TexCoordBits
	}
	if ov.GenericBits != nil {
		o.GenericBits = *ov.GenericBits
	}
}
