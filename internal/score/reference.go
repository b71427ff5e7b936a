package score

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// ErrInvalidReference is returned for a reference layer that cannot be used.
var ErrInvalidReference = errors.New("invalid reference layer")

// Reference is the modern road layer segments are compared against, in the
// pixel space of the skeleton.
type Reference struct {
	lines [][]geometry.Point2D
	ids   []string
	idx   *road.Index
}

// Match is the reference line found near one sample point.
type Match struct {
	ID       string
	Distance float64
	Angle    float64 // degrees, 0..90
}

// NewReference indexes reference polylines. ids[i] names lines[i]. Lines
// with fewer than two distinct points are skipped.
func NewReference(lines [][]geometry.Point2D, ids []string) (*Reference, error) {
	if len(lines) != len(ids) {
		return nil, fmt.Errorf("%w: %d lines but %d identifiers", ErrInvalidReference, len(lines), len(ids))
	}

	r := &Reference{idx: road.NewIndex()}
	for i, line := range lines {
		if geometry.PathLength(line) <= geometry.Eps {
			logger.Debug("Skipping degenerate reference line", "id", ids[i])
			continue
		}
		r.idx.Insert(len(r.lines), geometry.PathBounds(line))
		r.lines = append(r.lines, append([]geometry.Point2D(nil), line...))
		r.ids = append(r.ids, ids[i])
	}
	if len(r.lines) == 0 {
		return nil, fmt.Errorf("%w: no usable lines", ErrInvalidReference)
	}
	return r, nil
}

// Len returns the number of indexed reference lines.
func (r *Reference) Len() int {
	return len(r.lines)
}

// LoadReferenceGeoJSON reads a FeatureCollection of LineString and
// MultiLineString features whose coordinates are already in pixel space.
// A feature is named by its id, or by an "id" property, or by its position.
func LoadReferenceGeoJSON(rd io.Reader) (*Reference, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference layer: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}

	var lines [][]geometry.Point2D
	var ids []string
	for i, f := range fc.Features {
		id := featureID(f, i)
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = append(lines, geometry.FromLineString(g))
			ids = append(ids, id)
		case orb.MultiLineString:
			for _, ls := range g {
				lines = append(lines, geometry.FromLineString(ls))
				ids = append(ids, id)
			}
		case nil:
			logger.Debug("Ignoring reference feature without geometry", "id", id)
		default:
			logger.Debug("Ignoring non-line reference feature", "id", id, "type", f.Geometry.GeoJSONType())
		}
	}
	return NewReference(lines, ids)
}

// LoadReferenceFile opens path and loads it with LoadReferenceGeoJSON.
func LoadReferenceFile(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference layer: %w", err)
	}
	defer f.Close()
	return LoadReferenceGeoJSON(f)
}

func featureID(f *geojson.Feature, i int) string {
	switch v := f.ID.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
	default:
		return fmt.Sprint(v)
	}
	if id := f.Properties.MustString("id", ""); id != "" {
		return id
	}
	return strconv.Itoa(i)
}

// NearestParallel finds the closest reference line within maxDist of p
// whose direction at the closest point is within maxAngle degrees of
// tangent. Direction is undirected: opposite vectors are parallel.
func (r *Reference) NearestParallel(p, tangent geometry.Point2D, maxDist, maxAngle float64) (Match, bool) {
	best := Match{Distance: math.Inf(1)}
	found := false
	for _, i := range r.idx.Near(p, maxDist) {
		line := r.lines[i]
		_, along, dist := geometry.ClosestPoint(line, p)
		if dist > maxDist || dist >= best.Distance {
			continue
		}
		angle := undirectedAngle(tangent, tangentAt(line, along))
		if angle > maxAngle {
			continue
		}
		best = Match{ID: r.ids[i], Distance: dist, Angle: angle}
		found = true
	}
	return best, found
}

// tangentAt returns the unit direction of the path edge containing the
// point at distance d along it.
func tangentAt(path []geometry.Point2D, d float64) geometry.Point2D {
	var acc float64
	for i := 1; i < len(path); i++ {
		l := path[i-1].Distance(path[i])
		if l <= geometry.Eps {
			continue
		}
		if acc+l >= d || i == len(path)-1 {
			u, _ := geometry.UnitVector(path[i-1], path[i])
			return u
		}
		acc += l
	}
	return geometry.Point2D{}
}

// undirectedAngle is the angle in degrees between two lines with the given
// direction vectors.
func undirectedAngle(a, b geometry.Point2D) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 90
	}
	c := math.Abs(a.Dot(b)) / (na * nb)
	if c > 1 {
		c = 1
	}
	return math.Acos(c) * 180 / math.Pi
}
