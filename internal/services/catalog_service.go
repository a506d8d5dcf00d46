package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/soaringjerry/psyscore/internal/models"
)

// CatalogStore reads externally seeded instrument definitions.
// Lookups return (nil, nil) when nothing matches.
type CatalogStore interface {
	FindInstrumentByCategory(ctx context.Context, categoryCode, instrumentType string) (*models.Instrument, error)
	FindInstrumentByCode(ctx context.Context, code string) (*models.Instrument, error)
	ListQuestions(ctx context.Context, instrumentID string) ([]models.Question, error)
}

// CatalogService is the read-only instrument catalog.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) FindByCategory(ctx context.Context, categoryCode, instrumentType string) (*models.Instrument, error) {
	inst, err := s.store.FindInstrumentByCategory(ctx, categoryCode, instrumentType)
	if err != nil {
		return nil, StorageError("find instrument", err)
	}
	if inst == nil {
		return nil, NewInstrumentNotFoundError(fmt.Sprintf("no %s instrument for category %q", instrumentType, categoryCode))
	}
	return inst, nil
}

func (s *CatalogService) FindByCode(ctx context.Context, code string) (*models.Instrument, error) {
	inst, err := s.store.FindInstrumentByCode(ctx, code)
	if err != nil {
		return nil, StorageError("find instrument", err)
	}
	if inst == nil {
		return nil, NewInstrumentNotFoundError(fmt.Sprintf("instrument %q not found", code))
	}
	return inst, nil
}

// ListQuestions returns the instrument's questions ordered by Order.
func (s *CatalogService) ListQuestions(ctx context.Context, instrumentID string) ([]models.Question, error) {
	qs, err := s.store.ListQuestions(ctx, instrumentID)
	if err != nil {
		return nil, StorageError("list questions", err)
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return qs, nil
}
