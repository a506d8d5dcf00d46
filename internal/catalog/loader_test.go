package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/psyscore/internal/models"
)

const gappedYAML = `code: GAP-2
category: mood
min_scale: 1
max_scale: 3
questions:
  - text: a
  - text: b
bands:
  - {min: 2, max: 3, label: Low}
  - {min: 5, max: 6, label: High}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestShippedCatalogIsStrictlyValid(t *testing.T) {
	l := &Loader{Strict: true}
	defs, err := l.Load([]string{"../../catalog/*"})
	require.NoError(t, err)
	require.Len(t, defs, 2)

	byCode := map[string]*Definition{}
	for _, d := range defs {
		byCode[d.Code] = d
	}
	asq := byCode["ASQ-SF"]
	require.NotNil(t, asq)
	assert.Equal(t, models.StrategyDimensionAverage, asq.Strategy.Kind)
	assert.Len(t, asq.Questions, 40)
	assert.Equal(t, []models.Block{
		{Dimension: "anxiety", Start: 0, End: 20},
		{Dimension: "avoidance", Start: 20, End: 40},
	}, asq.Strategy.Blocks)

	pss := byCode["PSS-10"]
	require.NotNil(t, pss)
	assert.Equal(t, models.TypeProfessional, pss.Type)
	inst := pss.Instrument()
	require.Len(t, inst.Questions, 10)
	reversed := 0
	for i, q := range inst.Questions {
		assert.Equal(t, i+1, q.Order)
		if q.IsReverse {
			reversed++
		}
	}
	assert.Equal(t, 4, reversed)
}

func TestParseDefaults(t *testing.T) {
	def, err := Parse(strings.NewReader(gappedYAML), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, models.TypeProfessional, def.Type)
	assert.Equal(t, models.StrategySimpleSum, def.Strategy.Kind)
	assert.NoError(t, def.Validate())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("code: X\ncolour: red\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("code = \"X\"\ncolour = \"red\"\n"), FormatTOML)
	assert.Error(t, err)
}

func TestStrictModeRejectsGaps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gap.yaml", gappedYAML)

	_, err := (&Loader{Strict: true}).Load([]string{filepath.Join(dir, "*.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAP-2")
	assert.Contains(t, err.Error(), "has no band")

	defs, err := (&Loader{}).Load([]string{filepath.Join(dir, "*.yaml")})
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestValidateStructure(t *testing.T) {
	cases := map[string]string{
		"inverted scale": "code: A\ncategory: c\nmin_scale: 5\nmax_scale: 1\nquestions: [{text: q}]\nbands: [{min: 1, max: 5, label: x}]\n",
		"no questions":   "code: A\ncategory: c\nmin_scale: 1\nmax_scale: 5\nbands: [{min: 1, max: 5, label: x}]\n",
		"order gap":      "code: A\ncategory: c\nmin_scale: 1\nmax_scale: 5\nquestions: [{order: 1, text: a}, {order: 3, text: b}]\nbands: [{min: 2, max: 10, label: x}]\n",
		"partial order":  "code: A\ncategory: c\nmin_scale: 1\nmax_scale: 5\nquestions: [{order: 1, text: a}, {text: b}]\nbands: [{min: 2, max: 10, label: x}]\n",
		"block too long": "code: A\ncategory: c\nmin_scale: 1\nmax_scale: 5\nstrategy: {kind: dimension_average, blocks: [{dimension: d, start: 0, end: 3}]}\nquestions: [{text: a}]\nbands: [{dimension: d, min: 1, max: 5, label: x}]\n",
		"unlabelled":     "code: A\ncategory: c\nmin_scale: 1\nmax_scale: 5\nquestions: [{text: a}]\nbands: [{min: 1, max: 5}]\n",
		"missing code":   "category: c\nmin_scale: 1\nmax_scale: 5\nquestions: [{text: a}]\nbands: [{min: 1, max: 5, label: x}]\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			def, err := Parse(strings.NewReader(src), FormatYAML)
			require.NoError(t, err)
			assert.Error(t, def.Validate())
		})
	}
}

func TestExplicitOrderIsSorted(t *testing.T) {
	src := "code: A\ncategory: c\nmin_scale: 1\nmax_scale: 5\nquestions: [{order: 2, text: second}, {order: 1, text: first}]\nbands: [{min: 2, max: 10, label: x}]\n"
	def, err := Parse(strings.NewReader(src), FormatYAML)
	require.NoError(t, err)
	require.NoError(t, def.Validate())
	inst := def.Instrument()
	assert.Equal(t, "first", inst.Questions[0].Text)
	assert.Equal(t, 2, inst.Questions[1].Order)
}

func TestLoadRejectsDuplicateCodes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/gap.yaml", gappedYAML)
	writeFile(t, dir, "b/gap.yml", gappedYAML)

	_, err := (&Loader{}).Load([]string{filepath.Join(dir, "**", "*.{yaml,yml}")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined in both")
}

func TestLoadNoMatches(t *testing.T) {
	_, err := (&Loader{}).Load([]string{filepath.Join(t.TempDir(), "*.yaml")})
	assert.Error(t, err)
}

type recordingSeeder struct {
	seeded []string
	failOn string
}

func (r *recordingSeeder) ReplaceInstrument(_ context.Context, inst *models.Instrument, bands []models.ResultBand) (*models.Instrument, error) {
	if inst.Code == r.failOn {
		return nil, errors.New("boom")
	}
	r.seeded = append(r.seeded, inst.Code)
	out := *inst
	out.ID = "id-" + inst.Code
	return &out, nil
}

func TestSeed(t *testing.T) {
	defs, err := (&Loader{Strict: true}).Load([]string{"../../catalog/*"})
	require.NoError(t, err)

	rec := &recordingSeeder{}
	insts, err := Seed(context.Background(), rec, defs)
	require.NoError(t, err)
	assert.Equal(t, []string{"ASQ-SF", "PSS-10"}, rec.seeded)
	assert.Equal(t, "id-ASQ-SF", insts[0].ID)

	rec = &recordingSeeder{failOn: "PSS-10"}
	insts, err = Seed(context.Background(), rec, defs)
	require.Error(t, err)
	assert.Len(t, insts, 1)
}
