package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointcodec/internal/cloud"
)

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultOptions().Validate())

	zero := Options{}
	assert.NoError(t, zero.Validate(), "all-raw configuration is legal")

	bad := DefaultOptions()
	bad.NormalBits = 31
	assert.ErrorIs(t, bad.Validate(), ErrBadQuantizationBits)

	bad = DefaultOptions()
	bad.TexCoordBits = -1
	assert.ErrorIs(t, bad.Validate(), ErrBadQuantizationBits)
}

func TestOptionsBitsFor(t *testing.T) {
	t.Parallel()

	o := Options{
		PositionBits: 1,
		NormalBits:   2,
		ColorBits:    3,
		TexCoordBits: 4,
		GenericBits:  5,
	}
	assert.Equal(t, 1, o.BitsFor(cloud.KindPosition))
	assert.Equal(t, 2, o.BitsFor(cloud.KindNormal))
	assert.Equal(t, 3, o.BitsFor(cloud.KindColor))
	assert.Equal(t, 4, o.BitsFor(cloud.KindTexCoord))
	assert.Equal(t, 5, o.BitsFor(cloud.KindGeneric))
}

func TestOptionsOverrideApply(t *testing.T) {
	t.Parallel()

	ten := 10
	zero := 0
	ov := &OptionsOverride{PositionBits: &ten, GenericBits: &zero}

	o := DefaultOptions()
	ov.Apply(&o)

	want := DefaultOptions()
	want.PositionBits = 10
	want.GenericBits = 0
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("override mismatch (-want +got):\n%s", diff)
	}

	// A nil override is a no-op.
	o = DefaultOptions()
	(*OptionsOverride)(nil).Apply(&o)
	assert.Equal(t, DefaultOptions(), o)
}

func TestLoadOptionsOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bits.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"position_bits": 14, "color_bits": 6}`), 0o644))

	ov, err := LoadOptionsOverride(path)
	require.NoError(t, err)
	require.NotNil(t, ov.PositionBits)
	assert.Equal(t, 14, *ov.PositionBits)
	require.NotNil(t, ov.ColorBits)
	assert.Equal(t, 6, *ov.ColorBits)
	assert.Nil(t, ov.NormalBits)

	_, err = LoadOptionsOverride(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadOptionsOverride(bad)
	assert.Error(t, err)
}
