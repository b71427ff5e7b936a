// Package export encodes road networks for the downstream persistence step.
package export

import (
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"

	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

// FeatureCollection converts segments to LineString features in pixel
// coordinates. Properties: score, ref_id, source and component (omitted
// for segments outside any component).
func FeatureCollection(segs []road.Segment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range segs {
		s := &segs[i]
		if len(s.Points) < 2 {
			continue
		}
		f := geojson.NewFeature(geometry.ToLineString(s.Points))
		f.Properties["score"] = s.Score
		f.Properties["ref_id"] = s.RefID
		f.Properties["source"] = s.Source.String()
		if s.Component != road.NoComponent {
			f.Properties["component"] = s.Component
		}
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes the segments as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, segs []road.Segment) error {
	data, err := FeatureCollection(segs).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode network: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write network: %w", err)
	}
	return nil
}
