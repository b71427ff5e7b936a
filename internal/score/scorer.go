package score

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// Sample weights: a sample with both road edges present counts fully when a
// parallel reference line backs it, and partly otherwise.
const (
	matchedWeight   = 1.0
	unmatchedWeight = 0.7
)

// Params configures segment scoring. Distances are in pixels, angles in
// degrees.
type Params struct {
	MaxRoadWidth      float64 `json:"max_road_width"`
	MinRoadWidth      float64 `json:"min_road_width"`
	RefMaxDistance    float64 `json:"ref_max_distance"`
	RefMaxAngle       float64 `json:"ref_max_angle"`
	ShortScore        float64 `json:"short_score"`
	SplitOnEdgeChange bool    `json:"split_on_edge_change"`
	Workers           int     `json:"workers"`
}

// DefaultParams returns the scoring parameters for typical map scans.
func DefaultParams() Params {
	return Params{
		MaxRoadWidth:   20,
		MinRoadWidth:   6,
		RefMaxDistance: 60,
		RefMaxAngle:    15,
		ShortScore:     0.3,
	}
}

// Scorer rates segments by sampling them at road-width intervals. Reference
// and Edges are both optional: without a reference no sample is backed by
// one, and without an edge raster every sample passes the edge test.
type Scorer struct {
	Params    Params
	Reference *Reference
	Edges     *raster.Binary
}

// NewScorer creates a scorer.
func NewScorer(params Params, ref *Reference, edges *raster.Binary) *Scorer {
	return &Scorer{Params: params, Reference: ref, Edges: edges}
}

// sample is one evaluation point along a segment.
type sample struct {
	along   float64
	pass    bool
	matched bool
	match   Match
}

// Score rates every segment and returns the scored collection in input
// order. With SplitOnEdgeChange a segment may come back as several parts.
// Segments are scored concurrently; the input is not modified.
func (s *Scorer) Score(ctx context.Context, segs []road.Segment) ([]road.Segment, error) {
	parts := make([][]road.Segment, len(segs))

	workers := s.Params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range segs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = s.ScoreSegment(segs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]road.Segment, 0, len(segs))
	referenced := 0
	for _, p := range parts {
		for _, seg := range p {
			if seg.RefID != "" {
				referenced++
			}
			out = append(out, seg)
		}
	}
	logger.Info("Scored segments", "input", len(segs), "output", len(out), "referenced", referenced)
	return out, nil
}

// ScoreSegment rates a single segment.
func (s *Scorer) ScoreSegment(seg road.Segment) []road.Segment {
	seg = seg.Clone()
	seg.RefID = ""

	w := s.Params.MaxRoadWidth
	length := seg.Length()
	span := length - w
	if w <= 0 || span <= 0 {
		seg.Score = s.Params.ShortScore
		return []road.Segment{seg}
	}

	n := max(2, 1+int(math.Ceil(span/w)))
	interval := span / float64(n-1)
	samples := make([]sample, n)
	for i := range samples {
		samples[i] = s.sampleAt(seg.Points, w/2+interval*float64(i))
	}

	groups := [][]sample{samples}
	pieces := [][]geometry.Point2D{seg.Points}
	if s.Params.SplitOnEdgeChange {
		groups, pieces = splitOnEdgeChange(seg.Points, samples)
	}

	out := make([]road.Segment, len(pieces))
	for i, pts := range pieces {
		part := seg
		part.Points = pts
		part.Score = s.rate(pts, groups[i])
		part.RefID = s.plurality(groups[i])
		out[i] = part
	}
	return out
}

// sampleAt evaluates the sample at distance d along path.
func (s *Scorer) sampleAt(path []geometry.Point2D, d float64) sample {
	at := geometry.Interpolate(path, d)
	tangent, ok := geometry.UnitVector(geometry.Interpolate(path, d-1), geometry.Interpolate(path, d+1))
	sm := sample{along: d, pass: true}
	if !ok {
		return sm
	}
	if s.Edges != nil {
		sm.pass = s.edgesPresent(at, tangent)
	}
	if s.Reference != nil {
		sm.match, sm.matched = s.Reference.NearestParallel(at, tangent, s.Params.RefMaxDistance, s.Params.RefMaxAngle)
	}
	return sm
}

// edgesPresent looks for edge pixels on both sides of p along the normal,
// up to half the maximum road width, and checks the width between them.
func (s *Scorer) edgesPresent(p, tangent geometry.Point2D) bool {
	normal := geometry.Point2D{X: -tangent.Y, Y: tangent.X}
	reach := int(math.Ceil(s.Params.MaxRoadWidth / 2))

	side := func(dir geometry.Point2D) (int, bool) {
		last := p.Round()
		for step := 1; step <= reach; step++ {
			q := p.Add(dir.Scale(float64(step))).Round()
			if q == last {
				continue
			}
			last = q
			if s.Edges.At(q.X, q.Y) {
				return step, true
			}
		}
		return 0, false
	}

	a, okA := side(normal)
	b, okB := side(normal.Scale(-1))
	return okA && okB && float64(a+b+1) >= s.Params.MinRoadWidth
}

// rate combines the samples of one piece of a segment into its score.
func (s *Scorer) rate(path []geometry.Point2D, samples []sample) float64 {
	if len(samples) == 0 {
		return s.Params.ShortScore
	}
	var sum float64
	for _, sm := range samples {
		switch {
		case !sm.pass:
		case sm.matched:
			sum += matchedWeight
		default:
			sum += unmatchedWeight
		}
	}
	return sum * nonCircularity(path) / float64(len(samples))
}

// plurality returns the reference id matched by most samples, provided the
// mean distance and angle of those samples are within tolerance.
func (s *Scorer) plurality(samples []sample) string {
	type tally struct {
		n           int
		dist, angle float64
	}
	counts := make(map[string]*tally)
	for _, sm := range samples {
		if !sm.matched {
			continue
		}
		t := counts[sm.match.ID]
		if t == nil {
			t = &tally{}
			counts[sm.match.ID] = t
		}
		t.n++
		t.dist += sm.match.Distance
		t.angle += sm.match.Angle
	}
	if len(counts) == 0 {
		return ""
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	best := ids[0]
	for _, id := range ids[1:] {
		if counts[id].n > counts[best].n {
			best = id
		}
	}

	t := counts[best]
	n := float64(t.n)
	if t.dist/n > s.Params.RefMaxDistance || t.angle/n > s.Params.RefMaxAngle {
		return ""
	}
	return best
}

// nonCircularity is the straight distance between the ends over the path
// length: 1 for a straight line, 0 for a closed loop.
func nonCircularity(path []geometry.Point2D) float64 {
	length := geometry.PathLength(path)
	if length <= geometry.Eps {
		return 0
	}
	return path[0].Distance(path[len(path)-1]) / length
}

// splitOnEdgeChange cuts the path halfway between consecutive samples whose
// edge test differs, from the third sample on, and groups the samples by
// the piece they fall in.
func splitOnEdgeChange(path []geometry.Point2D, samples []sample) ([][]sample, [][]geometry.Point2D) {
	var cuts []float64
	for i := 2; i < len(samples); i++ {
		if samples[i].pass != samples[i-1].pass {
			cuts = append(cuts, (samples[i-1].along+samples[i].along)/2)
		}
	}
	whole := [][]sample{samples}
	if len(cuts) == 0 {
		return whole, [][]geometry.Point2D{path}
	}

	pieces := geometry.SplitAt(path, cuts)
	if len(pieces) != len(cuts)+1 {
		logger.Debug("Edge-change split produced unexpected pieces", "cuts", len(cuts), "pieces", len(pieces))
		return whole, [][]geometry.Point2D{path}
	}

	groups := make([][]sample, len(pieces))
	k := 0
	for _, sm := range samples {
		for k < len(cuts) && sm.along > cuts[k] {
			k++
		}
		groups[k] = append(groups[k], sm)
	}
	return groups, pieces
}
