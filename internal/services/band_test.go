package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/psyscore/internal/models"
)

func TestFirstMatchUsesStorageOrder(t *testing.T) {
	bands := []models.ResultBand{
		{MinScore: 0, MaxScore: 10, Label: "first"},
		{MinScore: 5, MaxScore: 15, Label: "second"},
		{Dimension: "anxiety", MinScore: 0, MaxScore: 20, Label: "tagged"},
	}

	assert.Equal(t, "first", FirstMatch(bands, 7, "").Label)
	assert.Equal(t, "first", FirstMatch(bands, 10, "").Label)
	assert.Equal(t, "second", FirstMatch(bands, 11, "").Label)
	assert.Equal(t, "tagged", FirstMatch(bands, 3, "anxiety").Label)
	assert.Nil(t, FirstMatch(bands, 16, ""))
	assert.Nil(t, FirstMatch(bands, 3, "avoidance"))
}

func TestFirstMatchReturnsCopy(t *testing.T) {
	bands := []models.ResultBand{{MinScore: 0, MaxScore: 1, Label: "x"}}
	b := FirstMatch(bands, 0, "")
	b.Label = "changed"
	assert.Equal(t, "x", bands[0].Label)
}

func TestResolveIsIdempotent(t *testing.T) {
	store := seededStore()
	r := NewBandResolver(store)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "inst-stress", 10, "")
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "inst-stress", 10, "")
	require.NoError(t, err)

	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, "Moderate", first.Label)

	none, err := r.Resolve(ctx, "inst-stress", 99, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestResolveScoreDimensions(t *testing.T) {
	store := seededStore()
	r := NewBandResolver(store)

	res, err := r.ResolveScore(context.Background(), "inst-asq", models.DimensionScores([]models.DimensionScore{
		{Dimension: "anxiety", Average: 3},
		{Dimension: "avoidance", Average: 5},
	}))
	require.NoError(t, err)
	require.Len(t, res.Dimensions, 2)
	assert.Equal(t, "Low anxiety", res.Dimensions[0].Band.Label)
	assert.Equal(t, "High avoidance", res.Dimensions[1].Band.Label)
	assert.Nil(t, res.Band)
	assert.Equal(t, 1, store.bandReads)
}

func TestValidateBandsSimple(t *testing.T) {
	inst := &models.Instrument{MinScale: 1, MaxScale: 5}

	ok := []models.ResultBand{
		{MinScore: 3, MaxScore: 7, Label: "Low"},
		{MinScore: 8, MaxScore: 12, Label: "Moderate"},
		{MinScore: 13, MaxScore: 15, Label: "High"},
	}
	assert.NoError(t, ValidateBands(inst, 3, ok))

	gap := []models.ResultBand{
		{MinScore: 3, MaxScore: 7, Label: "Low"},
		{MinScore: 9, MaxScore: 15, Label: "High"},
	}
	err := ValidateBands(inst, 3, gap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score 8 has no band")

	overlap := []models.ResultBand{
		{MinScore: 3, MaxScore: 8, Label: "Low"},
		{MinScore: 8, MaxScore: 15, Label: "High"},
	}
	err = ValidateBands(inst, 3, overlap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches 2 bands")
}

func TestValidateBandsDimensions(t *testing.T) {
	store := seededStore()
	inst, _ := store.FindInstrumentByCode(context.Background(), "ASQ-SF")
	assert.NoError(t, ValidateBands(inst, 40, store.bands["inst-asq"]))

	// 70/20 = 3.5 is attainable and falls between the two anxiety bands.
	holed := []models.ResultBand{
		{Dimension: "anxiety", MinScore: 1, MaxScore: 3.45, Label: "Low"},
		{Dimension: "anxiety", MinScore: 3.55, MaxScore: 7, Label: "High"},
		{Dimension: "avoidance", MinScore: 1, MaxScore: 7, Label: "Any"},
	}
	err := ValidateBands(inst, 40, holed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `dimension "anxiety": score 3.5 has no band`)

	unknown := append(append([]models.ResultBand(nil), store.bands["inst-asq"]...),
		models.ResultBand{Dimension: "secure", MinScore: 1, MaxScore: 7, Label: "?"})
	err = ValidateBands(inst, 40, unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dimension")
}

func TestValidateBandsNonIntegralScaleChecksOverlapOnly(t *testing.T) {
	inst := &models.Instrument{MinScale: 0, MaxScale: 1.5}
	assert.NoError(t, ValidateBands(inst, 2, []models.ResultBand{
		{MinScore: 0, MaxScore: 1, Label: "a"},
		{MinScore: 2, MaxScore: 3, Label: "b"},
	}))
	assert.Error(t, ValidateBands(inst, 2, []models.ResultBand{
		{MinScore: 0, MaxScore: 2, Label: "a"},
		{MinScore: 1, MaxScore: 3, Label: "b"},
	}))
}
