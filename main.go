// Command pointcodec compresses and decompresses point-cloud attribute data.
//
// Usage:
//
//	pointcodec encode -in cloud.ply -out cloud.pcc [-config bits.json] [-position-bits N]
//	pointcodec decode -in cloud.pcc -out cloud.ply
//	pointcodec inspect -in cloud.pcc
//
// Encode reads an ASCII PLY file, quantizes float attributes to the
// configured bit depths and writes a compressed stream. Decode reverses the
// process; inspect prints the attribute layout of a compressed stream.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/pointcodec/internal/cloud"
	"github.com/banshee-data/pointcodec/internal/codec"
	"github.com/banshee-data/pointcodec/internal/fidelity"
	"github.com/banshee-data/pointcodec/internal/ply"
	"github.com/banshee-data/pointcodec/internal/version"
	"github.com/banshee-data/pointcodec/internal/wire"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "version":
		fmt.Printf("pointcodec %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("pointcodec %s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pointcodec <encode|decode|inspect|version> [flags]")
	fmt.Fprintln(os.Stderr, "run 'pointcodec <command> -h' for command flags")
}

// bitFlags registers the per-kind depth overrides shared by encode. A value
// of -1 leaves the default (or config file value) untouched.
type bitFlags struct {
	position, normal, color, texcoord, generic int
}

func (b *bitFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&b.position, "position-bits", -1, "quantization depth for positions (0 disables)")
	fs.IntVar(&b.normal, "normal-bits", -1, "quantization depth for normals (0 disables)")
	fs.IntVar(&b.color, "color-bits", -1, "quantization depth for float colors (0 disables)")
	fs.IntVar(&b.texcoord, "texcoord-bits", -1, "quantization depth for texture coordinates (0 disables)")
	fs.IntVar(&b.generic, "generic-bits", -1, "quantization depth for generic attributes (0 disables)")
}

func (b *bitFlags) apply(o *codec.Options) {
	if b.position >= 0 {
		o.PositionBits = b.position
	}
	if b.normal >= 0 {
		o.NormalBits = b.normal
	}
	if b.color >= 0 {
		o.ColorBits = b.color
	}
	if b.texcoord >= 0 {
		o.TexCoordBits = b.texcoord
	}
	if b.generic >= 0 {
		o.GenericBits = b.generic
	}
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	in := fs.String("in", "", "input PLY file")
	out := fs.String("out", "", "output compressed file")
	configPath := fs.String("config", "", "JSON file overriding quantization depths")
	verify := fs.Bool("verify", false, "decode the result and report reconstruction error")
	var bits bitFlags
	bits.register(fs)
	fs.Parse(args)

	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	opts := codec.DefaultOptions()
	if *configPath != "" {
		ov, err := codec.LoadOptionsOverride(*configPath)
		if err != nil {
			return err
		}
		ov.Apply(&opts)
	}
	bits.apply(&opts)

	pc, err := ply.ReadFile(*in)
	if err != nil {
		return err
	}

	inputBytes := 0
	for id := int32(0); id < int32(pc.NumAttributes()); id++ {
		inputBytes += len(pc.Attribute(id).Bytes())
	}

	enc := codec.NewSequentialEncoder()
	enc.SetPointCloud(pc)
	w := wire.NewWriter(inputBytes / 2)
	if err := enc.Encode(opts, w); err != nil {
		return err
	}
	if err := os.WriteFile(*out, w.Bytes(), 0o644); err != nil {
		return err
	}
	log.Printf("encoded %d points, %d attributes: %d -> %d bytes (%.1f%%)",
		pc.NumPoints(), pc.NumAttributes(), inputBytes, w.Len(),
		100*float64(w.Len())/float64(max(inputBytes, 1)))

	if *verify {
		dec := codec.NewSequentialDecoder()
		back, err := dec.Decode(wire.NewReader(w.Bytes()))
		if err != nil {
			return fmt.Errorf("verify decode: %w", err)
		}
		stats, err := fidelity.Compare(pc, back)
		if err != nil {
			return fmt.Errorf("verify compare: %w", err)
		}
		for _, s := range stats {
			printStats(s)
		}
	}
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("in", "", "input compressed file")
	out := fs.String("out", "", "output PLY file")
	fs.Parse(args)

	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	pc, err := decodeFile(*in)
	if err != nil {
		return err
	}
	if err := ply.WriteFile(*out, pc); err != nil {
		return err
	}
	log.Printf("decoded %d points, %d attributes", pc.NumPoints(), pc.NumAttributes())
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	in := fs.String("in", "", "input compressed file")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	pc, err := codec.NewSequentialDecoder().Decode(wire.NewReader(data))
	if err != nil {
		return err
	}

	log.Printf("%s: %d bytes, %d points, %d attributes",
		*in, len(data), pc.NumPoints(), pc.NumAttributes())
	for id := int32(0); id < int32(pc.NumAttributes()); id++ {
		att := pc.Attribute(id)
		log.Printf("  attribute %d: %s %s x%d (%d bytes)",
			id, att.Kind(), att.DataType(), att.Components(), len(att.Bytes()))
	}
	return nil
}

func decodeFile(path string) (*cloud.PointCloud, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pc, err := codec.NewSequentialDecoder().Decode(wire.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pc, nil
}

func printStats(s fidelity.AttributeStats) {
	if s.DataType != cloud.DataTypeFloat32 {
		status := "exact"
		if !s.Exact {
			status = "MISMATCH"
		}
		log.Printf("  attribute %d (%s %s): %s", s.AttributeID, s.Kind, s.DataType, status)
		return
	}
	log.Printf("  attribute %d (%s): max err %.6g, mean %.6g, p95 %.6g",
		s.AttributeID, s.Kind, s.MaxError, s.MeanError, s.P95Error)
}
