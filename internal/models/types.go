package models

import "time"

// TypeProfessional is the instrument type listed on a user's history page.
const TypeProfessional = "professional"

// Instrument defines a questionnaire (e.g., PSS-10, ASQ-SF) and its answer scale.
type Instrument struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	CategoryCode string          `json:"category_code"`
	Type         string          `json:"type"`
	Name         string          `json:"name,omitempty"`
	MinScale     float64         `json:"min_scale"`
	MaxScale     float64         `json:"max_scale"`
	Strategy     ScoringStrategy `json:"strategy"`
	Questions    []Question      `json:"questions,omitempty"`
}

// Question is an item belonging to one instrument. Order is 1-based and dense.
type Question struct {
	ID           string `json:"id"`
	InstrumentID string `json:"instrument_id"`
	Order        int    `json:"order"`
	Text         string `json:"text"`
	IsReverse    bool   `json:"is_reverse"`
}

// ResultBand maps an inclusive score range to interpretive text.
// Dimension is empty for single-score instruments.
type ResultBand struct {
	ID           string  `json:"id"`
	InstrumentID string  `json:"instrument_id"`
	Dimension    string  `json:"dimension,omitempty"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
	Label        string  `json:"label"`
	Description  string  `json:"description,omitempty"`
	Detail       string  `json:"detail,omitempty"`
	Feature      string  `json:"feature,omitempty"`
	Advice       string  `json:"advice,omitempty"`
	Position     int     `json:"-"`
}

// Contains reports whether score lies within the band's inclusive range.
func (b *ResultBand) Contains(score float64) bool {
	return b.MinScore <= score && score <= b.MaxScore
}

// StrategyKind tags how an instrument turns answers into scores.
type StrategyKind string

const (
	StrategySimpleSum        StrategyKind = "simple_sum"
	StrategyDimensionAverage StrategyKind = "dimension_average"
)

// Block is a contiguous answer range [Start, End) averaged into one dimension.
type Block struct {
	Dimension string `json:"dimension" yaml:"dimension" toml:"dimension"`
	Start     int    `json:"start" yaml:"start" toml:"start"`
	End       int    `json:"end" yaml:"end" toml:"end"`
}

// Len is the number of answers in the block.
func (b Block) Len() int { return b.End - b.Start }

// ScoringStrategy is the per-instrument scoring configuration.
type ScoringStrategy struct {
	Kind         StrategyKind `json:"kind" yaml:"kind" toml:"kind"`
	Blocks       []Block      `json:"blocks,omitempty" yaml:"blocks,omitempty" toml:"blocks,omitempty"`
	ReverseItems bool         `json:"reverse_items,omitempty" yaml:"reverse_items,omitempty" toml:"reverse_items,omitempty"`
}

// ScoreKind distinguishes a single total from per-dimension averages.
type ScoreKind string

const (
	ScoreSingle     ScoreKind = "single"
	ScoreDimensions ScoreKind = "dimensions"
)

// DimensionScore is the average of one dimension block.
type DimensionScore struct {
	Dimension string  `json:"dimension"`
	Average   float64 `json:"average"`
}

// Score holds either a total (ScoreSingle) or dimension averages (ScoreDimensions).
type Score struct {
	Kind       ScoreKind        `json:"kind"`
	Total      float64          `json:"total,omitempty"`
	Dimensions []DimensionScore `json:"dimensions,omitempty"`
}

// SingleScore builds a total score.
func SingleScore(total float64) Score {
	return Score{Kind: ScoreSingle, Total: total}
}

// DimensionScores builds a per-dimension score.
func DimensionScores(dims []DimensionScore) Score {
	return Score{Kind: ScoreDimensions, Dimensions: dims}
}

// Attempt is a persisted, scored submission. Attempts are immutable.
type Attempt struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	InstrumentID   string    `json:"instrument_id"`
	InstrumentCode string    `json:"instrument_code"`
	InstrumentType string    `json:"instrument_type"`
	InstrumentName string    `json:"instrument_name,omitempty"`
	Answers        []float64 `json:"answers"`
	Score          Score     `json:"score"`
	Interpretation string    `json:"interpretation"`
	CreatedAt      time.Time `json:"created_at"`
}
