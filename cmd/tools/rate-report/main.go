// Package main sweeps quantization depths over one point cloud and renders
// the rate/error trade-off as an HTML chart: encoded size and worst
// reconstruction error per bit depth.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pointcodec/internal/cloud"
	"github.com/banshee-data/pointcodec/internal/codec"
	"github.com/banshee-data/pointcodec/internal/fidelity"
	"github.com/banshee-data/pointcodec/internal/ply"
	"github.com/banshee-data/pointcodec/internal/wire"
)

type sweepPoint struct {
	bits         int
	encodedBytes int
	maxError     float64
	meanError    float64
}

func main() {
	in := flag.String("in", "", "input PLY file")
	out := flag.String("out", "rate-report.html", "output HTML file")
	minBits := flag.Int("min-bits", 4, "lowest bit depth to sweep")
	maxBits := flag.Int("max-bits", 16, "highest bit depth to sweep")
	flag.Parse()

	if *in == "" {
		log.Fatal("-in is required")
	}
	if *minBits < codec.MinQuantizationBits || *maxBits > codec.MaxQuantizationBits || *minBits > *maxBits {
		log.Fatalf("bad sweep range %d..%d", *minBits, *maxBits)
	}

	pc, err := ply.ReadFile(*in)
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}

	var points []sweepPoint
	for bits := *minBits; bits <= *maxBits; bits++ {
		p, err := sweepOnce(pc, bits)
		if err != nil {
			log.Fatalf("bits=%d: %v", bits, err)
		}
		points = append(points, p)
		log.Printf("bits=%2d: %7d bytes, max err %.6g", bits, p.encodedBytes, p.maxError)
	}

	if err := renderReport(*out, *in, points); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	log.Printf("wrote %s", *out)
}

// sweepOnce encodes and decodes the cloud with every float kind at the given
// depth, returning size and error.
func sweepOnce(pc *cloud.PointCloud, bits int) (sweepPoint, error) {
	o := codec.Options{
		PositionBits: bits,
		NormalBits:   bits,
		ColorBits:    bits,
		TexCoordBits: bits,
		GenericBits:  bits,
	}
	enc := codec.NewSequentialEncoder()
	enc.SetPointCloud(pc)
	w := wire.NewWriter(0)
	if err := enc.Encode(o, w); err != nil {
		return sweepPoint{}, err
	}
	back, err := codec.NewSequentialDecoder().Decode(wire.NewReader(w.Bytes()))
	if err != nil {
		return sweepPoint{}, err
	}
	stats, err := fidelity.Compare(pc, back)
	if err != nil {
		return sweepPoint{}, err
	}
	p := sweepPoint{bits: bits, encodedBytes: w.Len()}
	p.maxError = fidelity.WorstFloatError(stats)
	for _, s := range stats {
		p.meanError += s.MeanError
	}
	if len(stats) > 0 {
		p.meanError /= float64(len(stats))
	}
	return p, nil
}

func renderReport(path, source string, points []sweepPoint) error {
	xs := make([]string, len(points))
	sizes := make([]opts.LineData, len(points))
	maxErrs := make([]opts.LineData, len(points))
	meanErrs := make([]opts.LineData, len(points))
	for i, p := range points {
		xs[i] = fmt.Sprintf("%d", p.bits)
		sizes[i] = opts.LineData{Value: p.encodedBytes}
		maxErrs[i] = opts.LineData{Value: p.maxError}
		meanErrs[i] = opts.LineData{Value: p.meanError}
	}

	sizeChart := charts.NewLine()
	sizeChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Encoded size vs quantization depth",
			Subtitle: source,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "bits"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "bytes"}),
	)
	sizeChart.SetXAxis(xs).AddSeries("encoded bytes", sizes)

	errChart := charts.NewLine()
	errChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Reconstruction error vs quantization depth",
			Subtitle: source,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "bits"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "absolute error", Type: "log"}),
	)
	errChart.SetXAxis(xs).
		AddSeries("max error", maxErrs).
		AddSeries("mean error", meanErrs)

	page := components.NewPage()
	page.AddCharts(sizeChart, errChart)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}
