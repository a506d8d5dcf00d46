package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/soaringjerry/psyscore/internal/models"
)

// Store is everything the survey workflow needs from persistence.
type Store interface {
	CatalogStore
	BandStore
	AttemptStore
}

// SurveyService exposes the four survey operations. It composes the catalog,
// band resolver, attempt store and scoring engine without rules of its own.
type SurveyService struct {
	catalog  *CatalogService
	bands    *BandResolver
	attempts AttemptStore
	scoring  *ScoringService
	listType string
}

func NewSurveyService(store Store) *SurveyService {
	return &SurveyService{
		catalog:  NewCatalogService(store),
		bands:    NewBandResolver(store),
		attempts: store,
		scoring:  NewScoringService(store, store, store),
		listType: models.TypeProfessional,
	}
}

// SetListType changes which instrument type ListMySurveys returns.
func (s *SurveyService) SetListType(t string) {
	if strings.TrimSpace(t) != "" {
		s.listType = t
	}
}

func (s *SurveyService) SetLogger(l *slog.Logger) {
	s.scoring.SetLogger(l)
}

// Scoring exposes the underlying engine (used by tests to pin clocks and ids).
func (s *SurveyService) Scoring() *ScoringService { return s.scoring }

// AttemptDetail is an attempt enriched with its resolved interpretation.
type AttemptDetail struct {
	*models.Attempt
	ResultLabel       string              `json:"resultLabel,omitempty"`
	ResultDescription string              `json:"resultDescription,omitempty"`
	ResultDetail      string              `json:"resultDetail,omitempty"`
	ResultFeature     string              `json:"resultFeature,omitempty"`
	ResultAdvice      string              `json:"resultAdvice,omitempty"`
	Dimensions        []ResolvedDimension `json:"dimensions,omitempty"`
}

// QuestionView is a question as presented to a respondent.
type QuestionView struct {
	ID        string `json:"id"`
	Order     int    `json:"order"`
	Text      string `json:"text"`
	IsReverse bool   `json:"isReverse"`
}

// StartResult is the questionnaire handed out before answers are collected.
type StartResult struct {
	InstrumentCode string              `json:"instrumentCode"`
	InstrumentName string              `json:"instrumentName,omitempty"`
	MinScale       float64             `json:"minScale"`
	MaxScale       float64             `json:"maxScale"`
	Strategy       models.StrategyKind `json:"strategy"`
	Questions      []QuestionView      `json:"questions"`
}

// ListMySurveys returns the user's attempts of the listed type, newest first.
func (s *SurveyService) ListMySurveys(ctx context.Context, userID string) ([]*models.Attempt, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("user required")
	}
	list, err := s.attempts.ListAttemptsByUser(ctx, userID, s.listType)
	if err != nil {
		return nil, StorageError("list attempts", err)
	}
	// AttemptStore does not promise an order (the SQL store sorts, stubs do
	// not), so apply the same created_at DESC, id DESC ordering here.
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if list == nil {
		list = []*models.Attempt{}
	}
	return list, nil
}

// GetDetail returns one of the user's attempts. A missing attempt and one
// owned by someone else both yield ErrorForbidden.
func (s *SurveyService) GetDetail(ctx context.Context, userID, attemptID string) (*AttemptDetail, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("user required")
	}
	a, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, StorageError("get attempt", err)
	}
	if a == nil || a.UserID != userID {
		return nil, NewForbiddenError("forbidden")
	}
	res, err := s.bands.ResolveScore(ctx, a.InstrumentID, a.Score)
	if err != nil {
		return nil, err
	}
	detail := &AttemptDetail{Attempt: a, Dimensions: res.Dimensions}
	if b := res.Band; b != nil {
		detail.ResultLabel = b.Label
		detail.ResultDescription = b.Description
		detail.ResultDetail = b.Detail
		detail.ResultFeature = b.Feature
		detail.ResultAdvice = b.Advice
	}
	return detail, nil
}

// StartSurvey looks up the category's instrument of the listed type and
// returns it with its ordered questions.
func (s *SurveyService) StartSurvey(ctx context.Context, userID, categoryCode string) (*StartResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("user required")
	}
	if strings.TrimSpace(categoryCode) == "" {
		return nil, NewInvalidError("category required")
	}
	inst, err := s.catalog.FindByCategory(ctx, categoryCode, s.listType)
	if err != nil {
		return nil, err
	}
	qs, err := s.catalog.ListQuestions(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	kind := inst.Strategy.Kind
	if kind == "" {
		kind = models.StrategySimpleSum
	}
	out := &StartResult{
		InstrumentCode: inst.Code,
		InstrumentName: inst.Name,
		MinScale:       inst.MinScale,
		MaxScale:       inst.MaxScale,
		Strategy:       kind,
		Questions:      make([]QuestionView, 0, len(qs)),
	}
	for _, q := range qs {
		out.Questions = append(out.Questions, QuestionView{ID: q.ID, Order: q.Order, Text: q.Text, IsReverse: q.IsReverse})
	}
	return out, nil
}

// SubmitSurvey delegates to the scoring engine.
func (s *SurveyService) SubmitSurvey(ctx context.Context, userID string, req SubmitRequest) (*SubmitResult, error) {
	return s.scoring.Submit(ctx, userID, req)
}
