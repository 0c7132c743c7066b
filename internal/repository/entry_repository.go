package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ecoschool/ecoschool-api/internal/models"
)

// EntryRepository manages persistence for the append-only activity ledger.
// Rows never change after insert except for the verified flag.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository constructs an EntryRepository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Insert appends an entry and fills in its store-assigned id and timestamp.
func (r *EntryRepository) Insert(ctx context.Context, entry *models.Entry) error {
	query := `INSERT INTO entries (activity_date, student, class_name, category, quantity, unit, photo, notes, verified, points, co2)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10)
        RETURNING id, timestamp, verified`
	row := r.db.QueryRowxContext(ctx, query,
		entry.ActivityDate,
		entry.Student,
		entry.ClassName,
		entry.Category,
		entry.Quantity,
		entry.Unit,
		entry.Photo,
		entry.Notes,
		entry.Points,
		entry.CO2,
	)
	if err := row.Scan(&entry.ID, &entry.Timestamp, &entry.Verified); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// List returns entries newest first, optionally filtered by verification state.
func (r *EntryRepository) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	query := `SELECT id, timestamp, activity_date, student, class_name, category, quantity, unit, photo, notes, verified, points, co2
        FROM entries`
	args := []interface{}{}
	switch filter.Verified {
	case models.VerifiedOnly:
		query += " WHERE verified = $1"
		args = append(args, true)
	case models.Unverified:
		query += " WHERE verified = $1"
		args = append(args, false)
	}
	query += " ORDER BY timestamp DESC"

	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// FindByID fetches a single entry.
func (r *EntryRepository) FindByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT id, timestamp, activity_date, student, class_name, category, quantity, unit, photo, notes, verified, points, co2
        FROM entries WHERE id = $1`
	var entry models.Entry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarkVerified flips the verified flag for one entry. The update is a no-op
// when the entry is already verified; it reports whether the id exists.
func (r *EntryRepository) MarkVerified(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE entries SET verified = TRUE WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark verified result: %w", err)
	}
	return affected > 0, nil
}

// MarkAllVerified flips every unverified entry and returns how many changed.
func (r *EntryRepository) MarkAllVerified(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE entries SET verified = TRUE WHERE verified = FALSE")
	if err != nil {
		return 0, fmt.Errorf("mark all verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all verified result: %w", err)
	}
	return affected, nil
}

// DeleteAll irreversibly empties the ledger.
func (r *EntryRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

// Count reports the number of stored entries.
func (r *EntryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM entries"); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return total, nil
}
