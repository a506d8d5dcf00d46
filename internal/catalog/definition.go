package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/soaringjerry/psyscore/internal/models"
	"github.com/soaringjerry/psyscore/internal/services"
)

// Definition is one instrument as written in a catalog file.
type Definition struct {
	Code      string                 `yaml:"code" toml:"code"`
	Category  string                 `yaml:"category" toml:"category"`
	Type      string                 `yaml:"type" toml:"type"`
	Name      string                 `yaml:"name" toml:"name"`
	MinScale  float64                `yaml:"min_scale" toml:"min_scale"`
	MaxScale  float64                `yaml:"max_scale" toml:"max_scale"`
	Strategy  models.ScoringStrategy `yaml:"strategy" toml:"strategy"`
	Questions []QuestionDef          `yaml:"questions" toml:"questions"`
	Bands     []BandDef              `yaml:"bands" toml:"bands"`

	source string
}

// QuestionDef is a question entry. Order is optional; when any entry sets
// it, every entry must and the orders must be exactly 1..n.
type QuestionDef struct {
	Order   int    `yaml:"order,omitempty" toml:"order,omitempty"`
	Text    string `yaml:"text" toml:"text"`
	Reverse bool   `yaml:"reverse,omitempty" toml:"reverse,omitempty"`
}

type BandDef struct {
	Dimension   string  `yaml:"dimension,omitempty" toml:"dimension,omitempty"`
	Min         float64 `yaml:"min" toml:"min"`
	Max         float64 `yaml:"max" toml:"max"`
	Label       string  `yaml:"label" toml:"label"`
	Description string  `yaml:"description,omitempty" toml:"description,omitempty"`
	Detail      string  `yaml:"detail,omitempty" toml:"detail,omitempty"`
	Feature     string  `yaml:"feature,omitempty" toml:"feature,omitempty"`
	Advice      string  `yaml:"advice,omitempty" toml:"advice,omitempty"`
}

// Source is the file the definition was read from, if any.
func (d *Definition) Source() string { return d.source }

// normalize fills defaults and sorts explicitly ordered questions.
func (d *Definition) normalize() {
	d.Code = strings.TrimSpace(d.Code)
	d.Category = strings.TrimSpace(d.Category)
	if strings.TrimSpace(d.Type) == "" {
		d.Type = models.TypeProfessional
	}
	if d.Strategy.Kind == "" {
		d.Strategy.Kind = models.StrategySimpleSum
	}
	sort.SliceStable(d.Questions, func(i, j int) bool { return d.Questions[i].Order < d.Questions[j].Order })
}

// Validate checks the structural rules every instrument must satisfy.
// Band coverage is checked separately by CheckBands.
func (d *Definition) Validate() error {
	var errs []error
	if d.Code == "" {
		errs = append(errs, errors.New("code required"))
	}
	if d.Category == "" {
		errs = append(errs, errors.New("category required"))
	}
	if !finite(d.MinScale) || !finite(d.MaxScale) || d.MinScale >= d.MaxScale {
		errs = append(errs, fmt.Errorf("scale [%g, %g] must be finite with min < max", d.MinScale, d.MaxScale))
	}
	if len(d.Questions) == 0 {
		errs = append(errs, errors.New("at least one question required"))
	}
	if err := checkOrders(d.Questions); err != nil {
		errs = append(errs, err)
	}
	for i, q := range d.Questions {
		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, fmt.Errorf("question %d has no text", i+1))
		}
	}
	if err := services.ValidateStrategy(d.Strategy, len(d.Questions)); err != nil {
		errs = append(errs, err)
	}
	if len(d.Bands) == 0 {
		errs = append(errs, errors.New("at least one band required"))
	}
	for i, b := range d.Bands {
		if strings.TrimSpace(b.Label) == "" {
			errs = append(errs, fmt.Errorf("band %d has no label", i+1))
		}
		if b.Min > b.Max {
			errs = append(errs, fmt.Errorf("band %q: min %g exceeds max %g", b.Label, b.Min, b.Max))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("instrument %s: %w", d.label(), err)
	}
	return nil
}

// CheckBands reports gaps and overlaps in the band set over the attainable scores.
func (d *Definition) CheckBands() error {
	if err := services.ValidateBands(d.Instrument(), len(d.Questions), d.ResultBands()); err != nil {
		return fmt.Errorf("instrument %s bands: %w", d.label(), err)
	}
	return nil
}

func (d *Definition) label() string {
	if d.Code != "" {
		return d.Code
	}
	if d.source != "" {
		return d.source
	}
	return "<unnamed>"
}

// Instrument converts the definition into the domain model. Question ids
// are assigned by the store.
func (d *Definition) Instrument() *models.Instrument {
	inst := &models.Instrument{
		Code:         d.Code,
		CategoryCode: d.Category,
		Type:         d.Type,
		Name:         d.Name,
		MinScale:     d.MinScale,
		MaxScale:     d.MaxScale,
		Strategy:     d.Strategy,
		Questions:    make([]models.Question, 0, len(d.Questions)),
	}
	for i, q := range d.Questions {
		inst.Questions = append(inst.Questions, models.Question{Order: i + 1, Text: q.Text, IsReverse: q.Reverse})
	}
	return inst
}

// ResultBands returns the bands in file order, which is their match order.
func (d *Definition) ResultBands() []models.ResultBand {
	out := make([]models.ResultBand, 0, len(d.Bands))
	for i, b := range d.Bands {
		out = append(out, models.ResultBand{
			Dimension:   b.Dimension,
			MinScore:    b.Min,
			MaxScore:    b.Max,
			Label:       b.Label,
			Description: b.Description,
			Detail:      b.Detail,
			Feature:     b.Feature,
			Advice:      b.Advice,
			Position:    i,
		})
	}
	return out
}

func checkOrders(qs []QuestionDef) error {
	explicit := 0
	for _, q := range qs {
		if q.Order != 0 {
			explicit++
		}
	}
	if explicit == 0 {
		return nil
	}
	if explicit != len(qs) {
		return errors.New("question order must be set on every question or none")
	}
	// qs is sorted by normalize
	for i, q := range qs {
		if q.Order != i+1 {
			return fmt.Errorf("question orders must be 1..%d without gaps, found %d at position %d", len(qs), q.Order, i+1)
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
