package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ecoschool/ecoschool-api/internal/models"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
)

type factorRepository interface {
	List(ctx context.Context) ([]models.CategoryFactor, error)
	Snapshot(ctx context.Context) (models.FactorTable, error)
	Upsert(ctx context.Context, category string, factor float64) error
	SeedDefaults(ctx context.Context, defaults []models.CategoryFactor) error
}

// FactorService manages the editable conversion-factor table.
type FactorService struct {
	repo   factorRepository
	logger *zap.Logger
}

// NewFactorService constructs the factor service.
func NewFactorService(repo factorRepository, logger *zap.Logger) *FactorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactorService{repo: repo, logger: logger}
}

// Seed installs the default factor set, skipping categories that already
// exist so an operator's edits survive restarts.
func (s *FactorService) Seed(ctx context.Context) error {
	if err := s.repo.SeedDefaults(ctx, models.DefaultFactors); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed factors")
	}
	return nil
}

// List returns the factor table in definition order.
func (s *FactorService) List(ctx context.Context) ([]models.CategoryFactor, error) {
	factors, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list factors")
	}
	return factors, nil
}

// Snapshot exposes the lookup view used by estimation.
func (s *FactorService) Snapshot(ctx context.Context) (models.FactorTable, error) {
	table, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load factor table")
	}
	return table, nil
}

// Set upserts one factor. The raw value arrives as text from the admin
// form; it must parse to a finite non-negative real or the table is left
// untouched.
func (s *FactorService) Set(ctx context.Context, category, rawFactor string) (*models.CategoryFactor, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category is required")
	}
	factor, err := strconv.ParseFloat(strings.TrimSpace(rawFactor), 64)
	if err != nil || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "factor must be a number")
	}
	if factor < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "factor must not be negative")
	}

	if err := s.repo.Upsert(ctx, category, factor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store factor")
	}
	s.logger.Info("conversion factor updated", zap.String("category", category), zap.Float64("factor", factor))
	return &models.CategoryFactor{Category: category, Factor: factor}, nil
}
