package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ecoschool/ecoschool-api/internal/models"
)

// FactorRepository manages the editable category -> kg CO2 factor table.
type FactorRepository struct {
	db *sqlx.DB
}

// NewFactorRepository constructs a FactorRepository.
func NewFactorRepository(db *sqlx.DB) *FactorRepository {
	return &FactorRepository{db: db}
}

// List returns factors in definition order.
func (r *FactorRepository) List(ctx context.Context) ([]models.CategoryFactor, error) {
	var factors []models.CategoryFactor
	query := "SELECT category, factor, position FROM factors ORDER BY position"
	if err := r.db.SelectContext(ctx, &factors, query); err != nil {
		return nil, fmt.Errorf("list factors: %w", err)
	}
	return factors, nil
}

// Snapshot loads the table as a lookup map for estimation.
func (r *FactorRepository) Snapshot(ctx context.Context) (models.FactorTable, error) {
	factors, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	table := make(models.FactorTable, len(factors))
	for _, f := range factors {
		table[f.Category] = f.Factor
	}
	return table, nil
}

// Upsert creates or overwrites one factor. A changed factor applies to
// future submissions only; stored entries keep their creation-time co2.
func (r *FactorRepository) Upsert(ctx context.Context, category string, factor float64) error {
	query := `INSERT INTO factors (category, factor) VALUES ($1, $2)
        ON CONFLICT (category) DO UPDATE SET factor = EXCLUDED.factor`
	if _, err := r.db.ExecContext(ctx, query, category, factor); err != nil {
		return fmt.Errorf("upsert factor: %w", err)
	}
	return nil
}

// SeedDefaults inserts the default factor set without overwriting existing
// rows, so re-running on a configured installation is harmless.
func (r *FactorRepository) SeedDefaults(ctx context.Context, defaults []models.CategoryFactor) error {
	query := `INSERT INTO factors (category, factor) VALUES ($1, $2)
        ON CONFLICT (category) DO NOTHING`
	for _, f := range defaults {
		if _, err := r.db.ExecContext(ctx, query, f.Category, f.Factor); err != nil {
			return fmt.Errorf("seed factor %s: %w", f.Category, err)
		}
	}
	return nil
}
