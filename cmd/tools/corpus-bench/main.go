// Package main encodes a corpus of PLY files at several quantization depths
// and records the rate/error results in a sqlite database for later
// comparison between runs.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/pointcodec/internal/benchdb"
	"github.com/banshee-data/pointcodec/internal/cloud"
	"github.com/banshee-data/pointcodec/internal/codec"
	"github.com/banshee-data/pointcodec/internal/fidelity"
	"github.com/banshee-data/pointcodec/internal/ply"
	"github.com/banshee-data/pointcodec/internal/wire"
)

func main() {
	glob := flag.String("glob", "*.ply", "glob of input PLY files")
	dbPath := flag.String("db", "bench.db", "sqlite database path")
	bitsList := flag.String("bits", "8,11,14", "comma separated bit depths")
	label := flag.String("label", "", "optional run label")
	flag.Parse()

	depths, err := parseDepths(*bitsList)
	if err != nil {
		log.Fatalf("bad -bits: %v", err)
	}
	files, err := filepath.Glob(*glob)
	if err != nil {
		log.Fatalf("bad -glob: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no files match %q", *glob)
	}

	db, err := benchdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	runID, err := db.BeginRun(*label)
	if err != nil {
		log.Fatalf("failed to start run: %v", err)
	}
	log.Printf("run %s: %d files, depths %v", runID, len(files), depths)

	start := time.Now()
	var rows int
	for _, path := range files {
		pc, err := ply.ReadFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		for _, bits := range depths {
			res, err := benchOne(pc, bits)
			if err != nil {
				log.Printf("skipping %s at %d bits: %v", path, bits, err)
				continue
			}
			res.File = filepath.Base(path)
			if err := db.RecordResult(runID, res); err != nil {
				log.Fatalf("failed to record result: %v", err)
			}
			rows++
			log.Printf("%s bits=%2d: %d -> %d bytes (%.2fx), max err %.6g",
				res.File, bits, res.InputBytes, res.EncodedBytes,
				float64(res.InputBytes)/float64(res.EncodedBytes), res.MaxError)
		}
	}
	log.Printf("run %s: recorded %d rows in %s", runID, rows, time.Since(start).Round(time.Millisecond))
}

func parseDepths(s string) ([]int, error) {
	var depths []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if n < codec.MinQuantizationBits || n > codec.MaxQuantizationBits {
			return nil, fmt.Errorf("depth %d out of range", n)
		}
		depths = append(depths, n)
	}
	if len(depths) == 0 {
		return nil, fmt.Errorf("no depths given")
	}
	return depths, nil
}

func benchOne(pc *cloud.PointCloud, bits int) (benchdb.Result, error) {
	o := codec.DefaultOptions()
	o.PositionBits = bits

	inputBytes := 0
	for id := int32(0); id < int32(pc.NumAttributes()); id++ {
		inputBytes += len(pc.Attribute(id).Bytes())
	}

	enc := codec.NewSequentialEncoder()
	enc.SetPointCloud(pc)
	w := wire.NewWriter(inputBytes / 2)
	encStart := time.Now()
	if err := enc.Encode(o, w); err != nil {
		return benchdb.Result{}, err
	}
	encodeTime := time.Since(encStart)

	decStart := time.Now()
	back, err := codec.NewSequentialDecoder().Decode(wire.NewReader(w.Bytes()))
	if err != nil {
		return benchdb.Result{}, err
	}
	decodeTime := time.Since(decStart)

	stats, err := fidelity.Compare(pc, back)
	if err != nil {
		return benchdb.Result{}, err
	}
	var meanErr float64
	for _, s := range stats {
		meanErr += s.MeanError
	}
	if len(stats) > 0 {
		meanErr /= float64(len(stats))
	}

	return benchdb.Result{
		Points:       pc.NumPoints(),
		PositionBits: bits,
		InputBytes:   inputBytes,
		EncodedBytes: w.Len(),
		MaxError:     fidelity.WorstFloatError(stats),
		MeanError:    meanErr,
		EncodeTime:   encodeTime,
		DecodeTime:   decodeTime,
	}, nil
}
