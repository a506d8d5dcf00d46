package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soaringjerry/psyscore/internal/models"
)

// Scorer turns a validated answer sequence into a score. Answers are aligned
// with questions by index and already checked against the scale bounds.
type Scorer interface {
	Kind() models.StrategyKind
	// Dimensions lists the band dimension tags this scorer resolves.
	// The single-score strategy resolves the untagged dimension "".
	Dimensions() []string
	Score(inst *models.Instrument, questions []models.Question, answers []float64) models.Score
}

// SimpleWeightedSum adds every answer, reflecting reverse-scored items.
type SimpleWeightedSum struct{}

func (SimpleWeightedSum) Kind() models.StrategyKind { return models.StrategySimpleSum }

func (SimpleWeightedSum) Dimensions() []string { return []string{""} }

func (SimpleWeightedSum) Score(inst *models.Instrument, questions []models.Question, answers []float64) models.Score {
	var total float64
	for i, q := range questions {
		total += contribution(inst, q, answers[i])
	}
	return models.SingleScore(total)
}

// MultiDimensionalAverage averages contiguous answer blocks, one per dimension.
type MultiDimensionalAverage struct {
	Blocks       []models.Block
	ReverseItems bool
}

func (MultiDimensionalAverage) Kind() models.StrategyKind { return models.StrategyDimensionAverage }

func (m MultiDimensionalAverage) Dimensions() []string {
	out := make([]string, 0, len(m.Blocks))
	for _, b := range m.Blocks {
		out = append(out, b.Dimension)
	}
	return out
}

func (m MultiDimensionalAverage) Score(inst *models.Instrument, questions []models.Question, answers []float64) models.Score {
	dims := make([]models.DimensionScore, 0, len(m.Blocks))
	for _, b := range m.Blocks {
		values := make([]float64, 0, b.Len())
		for i := b.Start; i < b.End; i++ {
			v := answers[i]
			if m.ReverseItems {
				v = contribution(inst, questions[i], v)
			}
			values = append(values, v)
		}
		dims = append(dims, models.DimensionScore{Dimension: b.Dimension, Average: mean(values)})
	}
	return models.DimensionScores(dims)
}

func contribution(inst *models.Instrument, q models.Question, answer float64) float64 {
	if q.IsReverse {
		return ReverseScore(answer, inst.MinScale, inst.MaxScale)
	}
	return answer
}

// NewScorer dispatches on the stored strategy tag. An empty tag means simple_sum.
func NewScorer(s models.ScoringStrategy) (Scorer, error) {
	switch s.Kind {
	case "", models.StrategySimpleSum:
		return SimpleWeightedSum{}, nil
	case models.StrategyDimensionAverage:
		if len(s.Blocks) == 0 {
			return nil, NewInvalidError("dimension_average strategy requires blocks")
		}
		blocks := append([]models.Block(nil), s.Blocks...)
		return MultiDimensionalAverage{Blocks: blocks, ReverseItems: s.ReverseItems}, nil
	default:
		return nil, NewInvalidError(fmt.Sprintf("unknown scoring strategy %q", s.Kind))
	}
}

// ValidateStrategy checks a strategy against the instrument's question count.
// Blocks must be non-empty, inside [0, questionCount), non-overlapping and
// uniquely named.
func ValidateStrategy(s models.ScoringStrategy, questionCount int) error {
	if _, err := NewScorer(s); err != nil {
		return err
	}
	if s.Kind != models.StrategyDimensionAverage {
		return nil
	}
	seen := map[string]bool{}
	blocks := append([]models.Block(nil), s.Blocks...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	prevEnd := 0
	for _, b := range blocks {
		name := strings.TrimSpace(b.Dimension)
		if name == "" {
			return NewInvalidError("block dimension required")
		}
		if seen[name] {
			return NewInvalidError(fmt.Sprintf("duplicate dimension %q", name))
		}
		seen[name] = true
		if b.Start < 0 || b.End <= b.Start || b.End > questionCount {
			return NewInvalidError(fmt.Sprintf("block %q [%d,%d) outside %d questions", name, b.Start, b.End, questionCount))
		}
		if b.Start < prevEnd {
			return NewInvalidError(fmt.Sprintf("block %q overlaps previous block", name))
		}
		prevEnd = b.End
	}
	return nil
}
