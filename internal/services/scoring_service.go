package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soaringjerry/psyscore/internal/models"
)

// AttemptStore persists scored attempts. GetAttempt returns (nil, nil) when absent.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, a *models.Attempt) (*models.Attempt, error)
	ListAttemptsByUser(ctx context.Context, userID, instrumentType string) ([]*models.Attempt, error)
	GetAttempt(ctx context.Context, id string) (*models.Attempt, error)
}

// SubmitRequest is the inbound answer sheet.
type SubmitRequest struct {
	InstrumentCode string    `json:"instrumentCode"`
	Answers        []float64 `json:"answers"`
}

// DimensionResult is one sub-scale of a dimension_average submission.
type DimensionResult struct {
	Dimension      string             `json:"dimension"`
	Average        float64            `json:"average"`
	Interpretation string             `json:"interpretation,omitempty"`
	Band           *models.ResultBand `json:"band,omitempty"`
}

// SubmitResult is the scoring outcome. Callers discriminate on Strategy:
// simple_sum fills TotalScore and the band fields, dimension_average fills Dimensions.
type SubmitResult struct {
	AttemptID      string              `json:"userSurveyId"`
	Strategy       models.StrategyKind `json:"strategy"`
	TotalScore     *float64            `json:"totalScore,omitempty"`
	Interpretation string              `json:"interpretation,omitempty"`
	Description    string              `json:"description,omitempty"`
	Detail         string              `json:"detail,omitempty"`
	Feature        string              `json:"feature,omitempty"`
	Advice         string              `json:"advice,omitempty"`
	Dimensions     []DimensionResult   `json:"dimensions,omitempty"`
}

// ScoringService validates, scores, interprets and persists submissions.
type ScoringService struct {
	catalog     *CatalogService
	bands       *BandResolver
	attempts    AttemptStore
	now         func() time.Time
	idGenerator func() string
	logger      *slog.Logger
}

func NewScoringService(catalog CatalogStore, bands BandStore, attempts AttemptStore) *ScoringService {
	return &ScoringService{
		catalog:     NewCatalogService(catalog),
		bands:       NewBandResolver(bands),
		attempts:    attempts,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: defaultAttemptID,
		logger:      slog.Default(),
	}
}

// SetLogger replaces the service logger; nil is ignored.
func (s *ScoringService) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func defaultAttemptID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Submit scores answers for the instrument identified by req.InstrumentCode
// and persists exactly one attempt. Every validation runs before the write.
func (s *ScoringService) Submit(ctx context.Context, userID string, req SubmitRequest) (*SubmitResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("user required")
	}
	code := strings.TrimSpace(req.InstrumentCode)
	if code == "" {
		return nil, NewInvalidError("instrumentCode required")
	}
	inst, err := s.catalog.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.ListQuestions(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	if len(req.Answers) != len(questions) {
		return nil, NewAnswerCountMismatchError(len(req.Answers), len(questions))
	}
	if len(questions) == 0 {
		return nil, NewInvalidError("instrument has no questions")
	}
	whole := IntegralScale(inst.MinScale, inst.MaxScale)
	for i, a := range req.Answers {
		if !InScale(a, inst.MinScale, inst.MaxScale) {
			return nil, NewAnswerOutOfRangeError(i, a, inst.MinScale, inst.MaxScale)
		}
		if whole && !isWhole(a) {
			return nil, NewFractionalAnswerError(i, a, inst.MinScale, inst.MaxScale)
		}
	}
	// Stored strategies come from seeding and are checked again against the
	// questions actually present before any block is indexed.
	if err := ValidateStrategy(inst.Strategy, len(questions)); err != nil {
		return nil, NewMisconfiguredError(inst.Code, err)
	}
	scorer, err := NewScorer(inst.Strategy)
	if err != nil {
		return nil, NewMisconfiguredError(inst.Code, err)
	}

	score := scorer.Score(inst, questions, req.Answers)
	resolution, err := s.bands.ResolveScore(ctx, inst.ID, score)
	if err != nil {
		return nil, err
	}

	attempt := &models.Attempt{
		ID:             s.idGenerator(),
		UserID:         userID,
		InstrumentID:   inst.ID,
		InstrumentCode: inst.Code,
		InstrumentType: inst.Type,
		InstrumentName: inst.Name,
		Answers:        append([]float64(nil), req.Answers...),
		Score:          score,
		Interpretation: Summarize(resolution),
		CreatedAt:      s.now(),
	}
	stored, err := s.attempts.CreateAttempt(ctx, attempt)
	if err != nil {
		return nil, StorageError("create attempt", err)
	}
	if stored != nil {
		attempt = stored
	}
	s.logger.Info("survey scored",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"instrument", inst.Code,
		"strategy", scorer.Kind(),
	)
	return buildSubmitResult(attempt.ID, scorer.Kind(), score, resolution), nil
}

// Summarize renders the free-text interpretation stored with an attempt:
// the band label for a total, "dim: label, dim: label" for dimensions.
func Summarize(r *Resolution) string {
	if r == nil {
		return ""
	}
	if len(r.Dimensions) == 0 {
		if r.Band == nil {
			return ""
		}
		return r.Band.Label
	}
	parts := make([]string, 0, len(r.Dimensions))
	for _, d := range r.Dimensions {
		label := ""
		if d.Band != nil {
			label = d.Band.Label
		}
		parts = append(parts, d.Dimension+": "+label)
	}
	return strings.Join(parts, ", ")
}

func buildSubmitResult(id string, kind models.StrategyKind, score models.Score, r *Resolution) *SubmitResult {
	out := &SubmitResult{AttemptID: id, Strategy: kind}
	if score.Kind == models.ScoreDimensions {
		for _, d := range r.Dimensions {
			dr := DimensionResult{Dimension: d.Dimension, Average: d.Average, Band: d.Band}
			if d.Band != nil {
				dr.Interpretation = d.Band.Label
			}
			out.Dimensions = append(out.Dimensions, dr)
		}
		return out
	}
	total := score.Total
	out.TotalScore = &total
	if b := r.Band; b != nil {
		out.Interpretation = b.Label
		out.Description = b.Description
		out.Detail = b.Detail
		out.Feature = b.Feature
		out.Advice = b.Advice
	}
	return out
}
