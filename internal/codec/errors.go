package codec

import "errors"

// Errors are grouped by the stage that detects them: configuration errors
// surface during Initialize, dependency errors during rearrangement, and
// stream errors during decode. All of them abort the whole call; the codec
// never retries and never produces partial output it considers valid.
var (
	// ErrNoPointCloud is returned by Encode when SetPointCloud was never
	// called.
	ErrNoPointCloud = errors.New("codec: no point cloud bound")

	// ErrBadDataType is returned when an attribute's scalar type is not
	// supported by the selected codec (the quantization codec is
	// float32-only).
	ErrBadDataType = errors.New("codec: attribute data type not supported")

	// ErrBadQuantizationBits is returned for a bit depth outside the
	// representable range, whether configured on encode or claimed by a
	// stream on decode.
	ErrBadQuantizationBits = errors.New("codec: quantization bit depth out of range")

	// ErrNotInitializing is returned by MarkParentAttribute when no
	// attributes encoder is currently being initialized.
	ErrNotInitializing = errors.New("codec: MarkParentAttribute outside encoder initialization")

	// ErrUnknownParent is returned when a declared parent attribute is not
	// assigned to any attributes encoder yet.
	ErrUnknownParent = errors.New("codec: parent attribute not assigned to an encoder")

	// ErrSelfParent is returned when a declared parent resolves to the
	// encoder that declared it.
	ErrSelfParent = errors.New("codec: encoder depends on itself")

	// ErrDependencyCycle is returned when the declared parent edges do not
	// form a DAG.
	ErrDependencyCycle = errors.New("codec: attribute dependency cycle")

	// Stream-shape errors reported while decoding the container framing.
	ErrBadMagic   = errors.New("codec: bad stream magic")
	ErrBadVersion = errors.New("codec: unsupported stream version")
	ErrBadMethod  = errors.New("codec: stream method does not match decoder")
	ErrBadVariant = errors.New("codec: unknown attribute codec variant")

	// ErrCorruptStream covers malformed stream contents that are not simple
	// underruns: impossible counts, short integer payloads, and similar.
	ErrCorruptStream = errors.New("codec: corrupt stream")
)
