// Package config provides run parameters and their persistence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"road-tracer/internal/repair"
	"road-tracer/internal/score"
	"road-tracer/internal/trace"
)

// FormatVersion is the version written to parameter files.
const FormatVersion = 1

// ErrInvalidParams is returned by Validate.
var ErrInvalidParams = errors.New("invalid parameters")

// Params holds every tunable of one reconstruction run. Distances are in
// pixels. A tolerance of zero disables its phase.
type Params struct {
	Version int `json:"version"`

	Vectorize trace.VectorizeOptions `json:"vectorize"`
	Thin      bool                   `json:"thin"`   // Zhang-Suen thin the skeleton before vectorizing
	Margin    int                    `json:"margin"` // border band whose endpoints are ignored

	Repair       repair.Params `json:"repair"`
	ReskelKernel int           `json:"reskeleton_kernel"` // dilation kernel of the re-skeletonize strategy

	Score    score.Params `json:"score"`
	MinScore float64      `json:"min_score"`
	Clusters int          `json:"clusters"`
	GapClose float64      `json:"gap_close"`
}

// Default returns the parameters tuned for scanned road maps.
func Default() *Params {
	sp := score.DefaultParams()
	sp.RefMaxDistance = 3 * sp.MaxRoadWidth
	return &Params{
		Version:      FormatVersion,
		Vectorize:    trace.DefaultVectorizeOptions(),
		Margin:       5,
		Repair:       repair.DefaultParams(),
		ReskelKernel: 5,
		Score:        sp,
		MinScore:     0.1,
		Clusters:     2,
		GapClose:     20,
	}
}

// Load reads parameters from a JSON file. Fields missing from the file keep
// their defaults.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := Default()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return p, nil
}

// Save writes the parameters to a JSON file.
func (p *Params) Save(path string) error {
	p.Version = FormatVersion

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects parameter sets that make a run meaningless.
func (p *Params) Validate() error {
	switch {
	case p.Score.MaxRoadWidth <= 0:
		return fmt.Errorf("%w: max road width must be positive", ErrInvalidParams)
	case p.Score.MinRoadWidth < 0:
		return fmt.Errorf("%w: min road width must not be negative", ErrInvalidParams)
	case p.Clusters < 1:
		return fmt.Errorf("%w: clusters must be at least 1", ErrInvalidParams)
	case p.Margin < 0:
		return fmt.Errorf("%w: margin must not be negative", ErrInvalidParams)
	case p.Vectorize.DiscardMaxPoints < 1:
		return fmt.Errorf("%w: discard max points must be at least 1", ErrInvalidParams)
	}
	return nil
}
