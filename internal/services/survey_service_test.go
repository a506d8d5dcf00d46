package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/psyscore/internal/models"
)

func TestListMySurveysNewestFirst(t *testing.T) {
	store := seededStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// inserted out of order, interleaved with another user's attempts
	store.attempts = []*models.Attempt{
		{ID: "a2", UserID: "u1", InstrumentType: models.TypeProfessional, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "b1", UserID: "u2", InstrumentType: models.TypeProfessional, CreatedAt: base.Add(5 * time.Hour)},
		{ID: "a1", UserID: "u1", InstrumentType: models.TypeProfessional, CreatedAt: base.Add(1 * time.Hour)},
		{ID: "a3", UserID: "u1", InstrumentType: models.TypeProfessional, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "c1", UserID: "u1", InstrumentType: "casual", CreatedAt: base.Add(4 * time.Hour)},
	}
	svc := NewSurveyService(store)

	list, err := svc.ListMySurveys(context.Background(), "u1")
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a3", "a2", "a1"}, ids)

	empty, err := svc.ListMySurveys(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	svc.SetListType("casual")
	list, err = svc.ListMySurveys(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
}

func TestGetDetailOwnership(t *testing.T) {
	store := seededStore()
	svc := NewSurveyService(store)
	ctx := context.Background()

	res, err := svc.SubmitSurvey(ctx, "owner", SubmitRequest{InstrumentCode: "STRESS-3", Answers: []float64{3, 4, 5}})
	require.NoError(t, err)

	_, err = svc.GetDetail(ctx, "intruder", res.AttemptID)
	assert.True(t, HasCode(err, ErrorForbidden))

	_, err = svc.GetDetail(ctx, "owner", "missing")
	assert.True(t, HasCode(err, ErrorForbidden))

	detail, err := svc.GetDetail(ctx, "owner", res.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, res.AttemptID, detail.ID)
	assert.Equal(t, "Moderate", detail.ResultLabel)
	assert.Equal(t, "d", detail.ResultDetail)
	assert.Equal(t, "f", detail.ResultFeature)
	assert.Equal(t, "a", detail.ResultAdvice)
	assert.Equal(t, 10.0, detail.Score.Total)
}

func TestGetDetailDimensions(t *testing.T) {
	store := seededStore()
	svc := NewSurveyService(store)
	ctx := context.Background()

	answers := append(fill(20, 2), fill(20, 6)...)
	res, err := svc.SubmitSurvey(ctx, "u1", SubmitRequest{InstrumentCode: "ASQ-SF", Answers: answers})
	require.NoError(t, err)

	detail, err := svc.GetDetail(ctx, "u1", res.AttemptID)
	require.NoError(t, err)
	assert.Empty(t, detail.ResultLabel)
	require.Len(t, detail.Dimensions, 2)
	assert.Equal(t, "Low anxiety", detail.Dimensions[0].Band.Label)
	assert.Equal(t, "High avoidance", detail.Dimensions[1].Band.Label)

	b, err := json.Marshal(detail)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "ASQ-SF", raw["instrument_code"])
	assert.Contains(t, raw, "dimensions")
	assert.NotContains(t, raw, "resultLabel")
}

func TestStartSurvey(t *testing.T) {
	store := seededStore()
	svc := NewSurveyService(store)

	out, err := svc.StartSurvey(context.Background(), "u1", "stress")
	require.NoError(t, err)
	assert.Equal(t, "STRESS-3", out.InstrumentCode)
	assert.Equal(t, 1.0, out.MinScale)
	assert.Equal(t, 5.0, out.MaxScale)
	assert.Equal(t, models.StrategySimpleSum, out.Strategy)
	require.Len(t, out.Questions, 3)
	for i, q := range out.Questions {
		assert.Equal(t, i+1, q.Order)
	}
	assert.True(t, out.Questions[1].IsReverse)
	assert.Empty(t, store.attempts)

	_, err = svc.StartSurvey(context.Background(), "u1", "sleep")
	assert.True(t, HasCode(err, ErrorInstrumentNotFound))

	_, err = svc.StartSurvey(context.Background(), "u1", "")
	assert.True(t, HasCode(err, ErrorInvalid))
}

func TestStartSurveyOrdersQuestions(t *testing.T) {
	store := seededStore()
	qs := store.questions["inst-stress"]
	qs[0], qs[2] = qs[2], qs[0]
	svc := NewSurveyService(store)

	out, err := svc.StartSurvey(context.Background(), "u1", "stress")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{out.Questions[0].Order, out.Questions[1].Order, out.Questions[2].Order})
}

func TestFacadeRequiresUser(t *testing.T) {
	svc := NewSurveyService(seededStore())
	ctx := context.Background()

	_, err := svc.ListMySurveys(ctx, "")
	assert.True(t, HasCode(err, ErrorUnauthorized))
	_, err = svc.GetDetail(ctx, " ", "x")
	assert.True(t, HasCode(err, ErrorUnauthorized))
	_, err = svc.StartSurvey(ctx, "", "stress")
	assert.True(t, HasCode(err, ErrorUnauthorized))
}

func TestListMySurveysBreaksTiesByID(t *testing.T) {
	store := seededStore()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.attempts = []*models.Attempt{
		{ID: "a1", UserID: "u1", InstrumentType: models.TypeProfessional, CreatedAt: at},
		{ID: "a3", UserID: "u1", InstrumentType: models.TypeProfessional, CreatedAt: at},
		{ID: "a2", UserID: "u1", InstrumentType: models.TypeProfessional, CreatedAt: at},
		{ID: "a0", UserID: "u1", InstrumentType: models.TypeProfessional, CreatedAt: at.Add(time.Second)},
	}

	list, err := NewSurveyService(store).ListMySurveys(context.Background(), "u1")
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a0", "a3", "a2", "a1"}, ids)
}
