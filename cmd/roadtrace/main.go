// Command roadtrace reconstructs road networks from skeleton rasters of
// scanned maps and scores them against a reference road layer.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"road-tracer/internal/config"
	"road-tracer/internal/export"
	"road-tracer/internal/imaging"
	"road-tracer/internal/overlay"
	"road-tracer/internal/pipeline"
	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/internal/score"
	"road-tracer/internal/storage"
	"road-tracer/internal/version"
	"road-tracer/pkg/logger"
	"road-tracer/pkg/logger/console"
)

func main() {
	refPath := flag.String("ref", "", "Reference road layer (GeoJSON, pixel coordinates)")
	paramsPath := flag.String("params", "", "Parameter file (JSON); defaults are used when empty")
	edgesSuffix := flag.String("edges-suffix", "", "Suffix of per-tile road-edge rasters, e.g. _edges")
	outDir := flag.String("out", "out", "Output directory")
	s3Prefix := flag.String("s3-prefix", "", "Upload outputs to AWS_BUCKET under this prefix instead of -out")
	drawOverlay := flag.Bool("overlay", false, "Write a diagnostic overlay PNG per tile")
	jobs := flag.Int("jobs", runtime.GOMAXPROCS(0), "Tiles processed concurrently")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *refPath == "" || flag.NArg() == 0 {
		fmt.Println("Usage: roadtrace -ref <reference.geojson> [-params p.json] [-out dir] [-overlay] <skeleton.png>...")
		os.Exit(1)
	}

	logger.Init(console.New(console.Params{Debug: *debug}))
	config.LoadEnv()

	params := config.Default()
	if *paramsPath != "" {
		p, err := config.Load(*paramsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load parameters: %v\n", err)
			os.Exit(1)
		}
		params = p
	}
	params.ApplyEnv()
	if err := params.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ref, err := score.LoadReferenceFile(*refPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load reference layer: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d reference lines\n", ref.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var sink storage.Sink = storage.FileSink{Dir: *outDir}
	if *s3Prefix != "" {
		s3sink, err := storage.NewS3Sink(ctx, *s3Prefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set up S3 output: %v\n", err)
			os.Exit(1)
		}
		sink = s3sink
	}

	t := &tiler{
		params:  params,
		ref:     ref,
		sink:    sink,
		suffix:  *edgesSuffix,
		overlay: *drawOverlay,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *jobs))
	summaries := make([]string, flag.NArg())
	for i, path := range flag.Args() {
		g.Go(func() error {
			s, err := t.process(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%-30s %8s %8s %8s %10s\n", "Tile", "Segments", "Network", "Fillers", "Threshold")
	for _, s := range summaries {
		fmt.Println(s)
	}
}

// tiler processes one skeleton tile at a time against a shared reference.
type tiler struct {
	params  *config.Params
	ref     *score.Reference
	sink    storage.Sink
	suffix  string
	overlay bool
}

func (t *tiler) process(ctx context.Context, path string) (string, error) {
	skel, err := raster.ReadFile(path)
	if err != nil {
		return "", err
	}
	in := pipeline.Input{Skeleton: skel, Reference: t.ref}
	if t.suffix != "" {
		ext := filepath.Ext(path)
		edgePath := strings.TrimSuffix(path, ext) + t.suffix + ext
		if in.Edges, err = raster.ReadFile(edgePath); err != nil {
			return "", fmt.Errorf("edge raster: %w", err)
		}
	}

	res, err := pipeline.Run(ctx, in, t.params,
		pipeline.WithThinner(imaging.Thin),
		pipeline.WithSkeletonizer(imaging.Reskeletonizer{Kernel: t.params.ReskelKernel}))
	if err != nil {
		return "", err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := t.write(ctx, name+"/network.geojson", res.Network); err != nil {
		return "", err
	}
	if err := t.write(ctx, name+"/candidates.geojson", res.Candidates); err != nil {
		return "", err
	}
	if t.overlay {
		img := overlay.Render(skel.Width, skel.Height, overlay.Scene{
			Skeleton: skel,
			Rejected: res.Rejected,
			Network:  res.Network,
		}, overlay.DefaultRenderOptions())
		var buf bytes.Buffer
		if err := overlay.WritePNG(&buf, img); err != nil {
			return "", err
		}
		if _, err := t.sink.Put(ctx, name+"/overlay.png", buf.Bytes()); err != nil {
			return "", err
		}
	}

	fillers := 0
	for _, s := range res.Network {
		if s.Source == road.SourceFiller {
			fillers++
		}
	}
	return fmt.Sprintf("%-30s %8d %8d %8d %10.1f",
		name, len(res.Vectorized), len(res.Network), fillers, res.Threshold), nil
}

func (t *tiler) write(ctx context.Context, name string, segs []road.Segment) error {
	var buf bytes.Buffer
	if err := export.WriteGeoJSON(&buf, segs); err != nil {
		return err
	}
	where, err := t.sink.Put(ctx, name, buf.Bytes())
	if err != nil {
		return err
	}
	logger.Info("Wrote output", "file", where)
	return nil
}
