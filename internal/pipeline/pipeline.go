// Package pipeline runs the full reconstruction of a road network from one
// skeleton raster: vectorize, repair, score, group, fill.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"road-tracer/internal/config"
	"road-tracer/internal/fill"
	"road-tracer/internal/group"
	"road-tracer/internal/raster"
	"road-tracer/internal/repair"
	"road-tracer/internal/road"
	"road-tracer/internal/score"
	"road-tracer/internal/trace"
	"road-tracer/pkg/logger"
)

// Input errors. These are the only conditions Run fails on before any
// segment work starts.
var (
	ErrNoSkeleton   = errors.New("skeleton raster is missing or empty")
	ErrNoReference  = errors.New("reference layer is missing")
	ErrSizeMismatch = errors.New("edge raster size differs from skeleton")
)

// Input is the data of one tile.
type Input struct {
	Skeleton  *raster.Binary
	Edges     *raster.Binary // optional road-edge raster for the scorer
	Reference *score.Reference
}

// Result holds every stage's output.
type Result struct {
	Vectorized []road.Segment
	Repaired   []road.Segment
	Candidates []road.Segment // scored segments reaching the minimum score
	Rejected   []road.Segment // scored segments below it
	Network    []road.Segment // retained components followed by fillers
	Components []group.Component
	Threshold  float64
	Repair     repair.Report
}

// Thinner reduces a raster to a one-pixel-wide skeleton.
type Thinner func(*raster.Binary) (*raster.Binary, error)

// Option configures optional collaborators of Run.
type Option func(*runner)

// WithThinner sets the thinning used when Params.Thin is set.
func WithThinner(t Thinner) Option {
	return func(r *runner) { r.thin = t }
}

// WithSkeletonizer sets the skeletonizer of the re-skeletonize strategy.
func WithSkeletonizer(s repair.Skeletonizer) Option {
	return func(r *runner) { r.skeletonizer = s }
}

type runner struct {
	thin         Thinner
	skeletonizer repair.Skeletonizer
}

// Run reconstructs the road network of one tile.
func Run(ctx context.Context, in Input, p *config.Params, opts ...Option) (*Result, error) {
	if err := validate(in, p); err != nil {
		return nil, err
	}
	r := &runner{}
	for _, o := range opts {
		o(r)
	}

	skel := in.Skeleton
	if p.Thin {
		skel = r.thinSkeleton(skel)
	}
	logger.Debug("Skeleton ready", "width", skel.Width, "height", skel.Height, "pixels", skel.Count())

	res := &Result{}
	res.Vectorized = trace.Vectorize(skel, p.Vectorize)
	logger.Info("Vectorized skeleton", "segments", len(res.Vectorized))

	frame := road.Frame{Width: skel.Width, Height: skel.Height, Margin: float64(p.Margin)}
	engine := repair.NewEngine(p.Repair, frame, r.skeletonizer)
	res.Repaired, res.Repair = engine.Run(road.CloneAll(res.Vectorized))

	scored, err := score.NewScorer(p.Score, in.Reference, in.Edges).Score(ctx, res.Repaired)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	for _, s := range scored {
		if s.Score >= p.MinScore {
			res.Candidates = append(res.Candidates, s)
		} else {
			res.Rejected = append(res.Rejected, s)
		}
	}

	res.Components = group.Build(res.Candidates, p.MinScore)
	group.Gravity(res.Candidates, res.Components)
	res.Threshold = group.SelectThreshold(res.Components, p.Clusters)
	retained := group.Retain(res.Candidates, res.Components, res.Threshold)

	res.Network = fill.Fill(retained, p.GapClose)

	logger.Info("Road network reconstructed",
		"candidates", len(res.Candidates),
		"rejected", len(res.Rejected),
		"components", len(res.Components),
		"network", len(res.Network))
	return res, nil
}

func validate(in Input, p *config.Params) error {
	if in.Skeleton == nil || in.Skeleton.Width == 0 || in.Skeleton.Height == 0 {
		return ErrNoSkeleton
	}
	if in.Reference == nil {
		return ErrNoReference
	}
	if e := in.Edges; e != nil && (e.Width != in.Skeleton.Width || e.Height != in.Skeleton.Height) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			e.Width, e.Height, in.Skeleton.Width, in.Skeleton.Height)
	}
	if p == nil {
		return fmt.Errorf("%w: no parameters", config.ErrInvalidParams)
	}
	return p.Validate()
}

// thinSkeleton thins the input, falling back to it unchanged on failure.
func (r *runner) thinSkeleton(skel *raster.Binary) *raster.Binary {
	if r.thin == nil {
		logger.Warn("Thinning requested but no thinner configured")
		return skel
	}
	thin, err := r.thin(skel)
	if err != nil {
		logger.Warn("Thinning failed, using skeleton as given", "error", err)
		return skel
	}
	if thin.Width != skel.Width || thin.Height != skel.Height {
		logger.Warn("Thinning changed raster size, using skeleton as given")
		return skel
	}
	return thin
}
