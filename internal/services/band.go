package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/soaringjerry/psyscore/internal/models"
)

// BandStore returns an instrument's result bands in storage (position) order.
type BandStore interface {
	ListBands(ctx context.Context, instrumentID string) ([]models.ResultBand, error)
}

// BandResolver maps scores to interpretive result bands.
type BandResolver struct {
	store BandStore
}

func NewBandResolver(store BandStore) *BandResolver {
	return &BandResolver{store: store}
}

// Resolve returns the first band (by position) containing score for the given
// dimension, or nil when none matches. A nil band is a valid outcome.
func (r *BandResolver) Resolve(ctx context.Context, instrumentID string, score float64, dimension string) (*models.ResultBand, error) {
	bands, err := r.store.ListBands(ctx, instrumentID)
	if err != nil {
		return nil, StorageError("list bands", err)
	}
	return FirstMatch(bands, score, dimension), nil
}

// ResolvedDimension pairs a dimension average with its band.
type ResolvedDimension struct {
	Dimension string             `json:"dimension"`
	Average   float64            `json:"average"`
	Band      *models.ResultBand `json:"band,omitempty"`
}

// Resolution is a score with its resolved band(s).
type Resolution struct {
	Band       *models.ResultBand  `json:"band,omitempty"`
	Dimensions []ResolvedDimension `json:"dimensions,omitempty"`
}

// ResolveScore resolves every band a stored score needs with a single read.
func (r *BandResolver) ResolveScore(ctx context.Context, instrumentID string, score models.Score) (*Resolution, error) {
	bands, err := r.store.ListBands(ctx, instrumentID)
	if err != nil {
		return nil, StorageError("list bands", err)
	}
	res := &Resolution{}
	switch score.Kind {
	case models.ScoreDimensions:
		for _, d := range score.Dimensions {
			res.Dimensions = append(res.Dimensions, ResolvedDimension{
				Dimension: d.Dimension,
				Average:   d.Average,
				Band:      FirstMatch(bands, d.Average, d.Dimension),
			})
		}
	default:
		res.Band = FirstMatch(bands, score.Total, "")
	}
	return res, nil
}

// FirstMatch scans bands in order and returns a copy of the first match.
func FirstMatch(bands []models.ResultBand, score float64, dimension string) *models.ResultBand {
	for i := range bands {
		b := bands[i]
		if b.Dimension == dimension && b.Contains(score) {
			return &b
		}
	}
	return nil
}

// maxEnumerated bounds the attainable-score walk in ValidateBands.
const maxEnumerated = 100000

// ValidateBands checks that the bands of an instrument cover every attainable
// score exactly once. Attainable scores are enumerated when the scale bounds
// are integers; otherwise only pairwise overlaps are reported.
func ValidateBands(inst *models.Instrument, questionCount int, bands []models.ResultBand) error {
	scorer, err := NewScorer(inst.Strategy)
	if err != nil {
		return err
	}
	var errs []error
	known := map[string]bool{}
	for _, d := range scorer.Dimensions() {
		known[d] = true
	}
	byDim := map[string][]models.ResultBand{}
	for _, b := range bands {
		if b.MinScore > b.MaxScore {
			errs = append(errs, fmt.Errorf("band %q: min %g > max %g", b.Label, b.MinScore, b.MaxScore))
			continue
		}
		if !known[b.Dimension] {
			errs = append(errs, fmt.Errorf("band %q: unknown dimension %q", b.Label, b.Dimension))
			continue
		}
		byDim[b.Dimension] = append(byDim[b.Dimension], b)
	}

	integral := IntegralScale(inst.MinScale, inst.MaxScale)
	for _, dim := range scorer.Dimensions() {
		set := byDim[dim]
		n := itemsInDimension(scorer, dim, questionCount)
		values, ok := attainable(inst.MinScale, inst.MaxScale, n, scorer.Kind(), integral)
		if !ok {
			errs = append(errs, overlaps(dim, set)...)
			continue
		}
		for _, v := range values {
			hits := 0
			for i := range set {
				if set[i].Contains(v) {
					hits++
				}
			}
			switch {
			case hits == 0:
				errs = append(errs, fmt.Errorf("dimension %q: score %g has no band", dim, v))
			case hits > 1:
				errs = append(errs, fmt.Errorf("dimension %q: score %g matches %d bands", dim, v, hits))
			}
			if len(errs) >= 10 {
				return errors.Join(errs...)
			}
		}
	}
	return errors.Join(errs...)
}

func itemsInDimension(s Scorer, dim string, questionCount int) int {
	if m, ok := s.(MultiDimensionalAverage); ok {
		for _, b := range m.Blocks {
			if b.Dimension == dim {
				return b.Len()
			}
		}
		return 0
	}
	return questionCount
}

// attainable lists every score a dimension of n items can produce.
// Sums step by 1; averages of n integer answers step by 1/n.
func attainable(min, max float64, n int, kind models.StrategyKind, integral bool) ([]float64, bool) {
	if !integral || n <= 0 {
		return nil, false
	}
	lo, hi := int(min)*n, int(max)*n
	if hi-lo+1 > maxEnumerated {
		return nil, false
	}
	out := make([]float64, 0, hi-lo+1)
	for sum := lo; sum <= hi; sum++ {
		if kind == models.StrategyDimensionAverage {
			out = append(out, float64(sum)/float64(n))
		} else {
			out = append(out, float64(sum))
		}
	}
	return out, true
}

func overlaps(dim string, set []models.ResultBand) []error {
	var errs []error
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			if set[i].MinScore <= set[j].MaxScore && set[j].MinScore <= set[i].MaxScore {
				errs = append(errs, fmt.Errorf("dimension %q: bands %q and %q overlap", dim, set[i].Label, set[j].Label))
			}
		}
	}
	return errs
}
