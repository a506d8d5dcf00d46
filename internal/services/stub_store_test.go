package services

import (
	"context"
	"fmt"
	"time"

	"github.com/soaringjerry/psyscore/internal/models"
)

type stubStore struct {
	instruments []*models.Instrument
	questions   map[string][]models.Question
	bands       map[string][]models.ResultBand
	attempts    []*models.Attempt
	bandReads   int
	createErr   error
	readErr     error
}

func newStubStore() *stubStore {
	return &stubStore{
		questions: map[string][]models.Question{},
		bands:     map[string][]models.ResultBand{},
	}
}

func (s *stubStore) addInstrument(inst *models.Instrument, reverse []bool, bands ...models.ResultBand) {
	s.instruments = append(s.instruments, inst)
	for i, rev := range reverse {
		s.questions[inst.ID] = append(s.questions[inst.ID], models.Question{
			ID:           fmt.Sprintf("%s-q%d", inst.ID, i+1),
			InstrumentID: inst.ID,
			Order:        i + 1,
			Text:         fmt.Sprintf("question %d", i+1),
			IsReverse:    rev,
		})
	}
	for i := range bands {
		bands[i].InstrumentID = inst.ID
		bands[i].Position = i
	}
	s.bands[inst.ID] = append(s.bands[inst.ID], bands...)
}

func (s *stubStore) FindInstrumentByCategory(_ context.Context, category, typ string) (*models.Instrument, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	for _, inst := range s.instruments {
		if inst.CategoryCode == category && inst.Type == typ {
			cp := *inst
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) FindInstrumentByCode(_ context.Context, code string) (*models.Instrument, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	for _, inst := range s.instruments {
		if inst.Code == code {
			cp := *inst
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListQuestions(_ context.Context, instrumentID string) ([]models.Question, error) {
	return append([]models.Question(nil), s.questions[instrumentID]...), nil
}

func (s *stubStore) ListBands(_ context.Context, instrumentID string) ([]models.ResultBand, error) {
	s.bandReads++
	return append([]models.ResultBand(nil), s.bands[instrumentID]...), nil
}

func (s *stubStore) CreateAttempt(_ context.Context, a *models.Attempt) (*models.Attempt, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	cp := *a
	s.attempts = append(s.attempts, &cp)
	return &cp, nil
}

func (s *stubStore) ListAttemptsByUser(_ context.Context, userID, typ string) ([]*models.Attempt, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []*models.Attempt
	for _, a := range s.attempts {
		if a.UserID == userID && a.InstrumentType == typ {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStore) GetAttempt(_ context.Context, id string) (*models.Attempt, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	for _, a := range s.attempts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// seededStore carries a three-item stress scale and the ASQ-SF attachment
// questionnaire (40 items, anxiety 1-20 and avoidance 21-40).
func seededStore() *stubStore {
	s := newStubStore()
	s.addInstrument(&models.Instrument{
		ID: "inst-stress", Code: "STRESS-3", CategoryCode: "stress", Type: models.TypeProfessional,
		MinScale: 1, MaxScale: 5, Strategy: models.ScoringStrategy{Kind: models.StrategySimpleSum},
	}, []bool{false, true, false},
		models.ResultBand{MinScore: 3, MaxScore: 7, Label: "Low"},
		models.ResultBand{MinScore: 8, MaxScore: 12, Label: "Moderate", Detail: "d", Feature: "f", Advice: "a"},
		models.ResultBand{MinScore: 13, MaxScore: 15, Label: "High"},
	)

	asq := make([]bool, 40)
	s.addInstrument(&models.Instrument{
		ID: "inst-asq", Code: "ASQ-SF", CategoryCode: "attachment", Type: models.TypeProfessional,
		MinScale: 1, MaxScale: 7,
		Strategy: models.ScoringStrategy{Kind: models.StrategyDimensionAverage, Blocks: []models.Block{
			{Dimension: "anxiety", Start: 0, End: 20},
			{Dimension: "avoidance", Start: 20, End: 40},
		}},
	}, asq,
		models.ResultBand{Dimension: "anxiety", MinScore: 1, MaxScore: 3.5, Label: "Low anxiety"},
		models.ResultBand{Dimension: "anxiety", MinScore: 3.55, MaxScore: 7, Label: "High anxiety"},
		models.ResultBand{Dimension: "avoidance", MinScore: 1, MaxScore: 3.5, Label: "Low avoidance"},
		models.ResultBand{Dimension: "avoidance", MinScore: 3.55, MaxScore: 7, Label: "High avoidance"},
	)
	return s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
