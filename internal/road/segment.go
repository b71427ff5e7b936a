// Package road defines the road network data model: segments, endpoint
// polarity, endpoint connectivity and spatial indexing.
package road

import (
	"fmt"

	"road-tracer/pkg/geometry"
)

// Source indicates how a segment was created.
type Source int

const (
	// SourceDetected indicates the segment was traced from the skeleton.
	SourceDetected Source = iota
	// SourceFiller indicates a synthetic segment bridging a gap between
	// retained components.
	SourceFiller
)

func (s Source) String() string {
	switch s {
	case SourceDetected:
		return "detected"
	case SourceFiller:
		return "filler"
	default:
		return "unknown"
	}
}

// Polarity identifies one end of a segment.
type Polarity int

const (
	// Head is the first coordinate of a segment.
	Head Polarity = iota
	// Tail is the last coordinate of a segment.
	Tail
)

func (p Polarity) String() string {
	if p == Head {
		return "head"
	}
	return "tail"
}

// Opposite returns the other end.
func (p Polarity) Opposite() Polarity {
	if p == Head {
		return Tail
	}
	return Head
}

// Endpoint names one end of one segment in a collection.
type Endpoint struct {
	Segment  int
	Polarity Polarity
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%d/%s", e.Segment, e.Polarity)
}

// NoComponent marks a segment not assigned to any component.
const NoComponent = -1

// Segment is a polyline of the road network with its evaluation results.
type Segment struct {
	Points    []geometry.Point2D
	Score     float64
	RefID     string
	Source    Source
	Component int
}

// NewSegment creates a detected, unscored segment.
func NewSegment(points []geometry.Point2D) Segment {
	return Segment{Points: points, Source: SourceDetected, Component: NoComponent}
}

// NewFiller creates a synthetic two-point segment.
func NewFiller(a, b geometry.Point2D) Segment {
	return Segment{
		Points:    []geometry.Point2D{a, b},
		Source:    SourceFiller,
		Component: NoComponent,
	}
}

// Valid reports whether the segment has at least two points and non-zero length.
func (s *Segment) Valid() bool {
	return len(s.Points) >= 2 && s.Length() > 0
}

// Length returns the path length.
func (s *Segment) Length() float64 {
	return geometry.PathLength(s.Points)
}

// Bounds returns the bounding box of the segment.
func (s *Segment) Bounds() geometry.Rect {
	return geometry.PathBounds(s.Points)
}

// End returns the coordinate at the given end.
func (s *Segment) End(p Polarity) geometry.Point2D {
	if p == Head {
		return s.Points[0]
	}
	return s.Points[len(s.Points)-1]
}

// SetEnd overwrites the coordinate at the given end.
func (s *Segment) SetEnd(p Polarity, pt geometry.Point2D) {
	if p == Head {
		s.Points[0] = pt
		return
	}
	s.Points[len(s.Points)-1] = pt
}

// Extend adds pt beyond the given end, so it becomes the new end.
func (s *Segment) Extend(p Polarity, pt geometry.Point2D) {
	if s.End(p) == pt {
		return
	}
	if p == Head {
		s.Points = append([]geometry.Point2D{pt}, s.Points...)
		return
	}
	s.Points = append(s.Points, pt)
}

// From returns a copy of the points ordered starting at the given end.
func (s *Segment) From(p Polarity) []geometry.Point2D {
	if p == Head {
		return append([]geometry.Point2D(nil), s.Points...)
	}
	return geometry.Reverse(s.Points)
}

// Closed reports whether both ends share one coordinate.
func (s *Segment) Closed() bool {
	return len(s.Points) > 2 && s.Points[0] == s.Points[len(s.Points)-1]
}

// Clone returns a deep copy.
func (s Segment) Clone() Segment {
	s.Points = append([]geometry.Point2D(nil), s.Points...)
	return s
}

// Compact drops consecutive duplicate points.
func (s *Segment) Compact() {
	if len(s.Points) < 2 {
		return
	}
	out := s.Points[:1]
	for _, p := range s.Points[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	s.Points = out
}

// Prune removes invalid segments from the collection, keeping order.
func Prune(segs []Segment) []Segment {
	out := segs[:0]
	for _, s := range segs {
		s.Compact()
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// CloneAll deep-copies a collection.
func CloneAll(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = s.Clone()
	}
	return out
}

// TotalLength sums segment lengths.
func TotalLength(segs []Segment) float64 {
	var total float64
	for i := range segs {
		total += segs[i].Length()
	}
	return total
}
