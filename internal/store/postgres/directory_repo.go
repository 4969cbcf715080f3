package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"bookday/backend/internal/domain"
	"bookday/backend/internal/store"
)

// DirectoryRepo serves the read-only owner and service lookups the
// booking engine depends on. Writes to these tables belong to the
// surrounding product.
type DirectoryRepo struct {
	db *bun.DB
}

func NewDirectoryRepo(db *bun.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) OwnerHours(ctx context.Context, ownerID string) (domain.WeeklyHours, error) {
	var owner domain.Owner
	err := r.db.NewSelect().
		Model(&owner).
		Column("id", "available_hours").
		Where("id = ?", ownerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if len(owner.AvailableHours) == 0 {
		return domain.DefaultWeeklyHours(), nil
	}
	return owner.AvailableHours, nil
}

func (r *DirectoryRepo) ServiceDurations(ctx context.Context, serviceIDs []string) (map[string]int, error) {
	if len(serviceIDs) == 0 {
		return map[string]int{}, nil
	}

	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Column("id", "duration_minutes").
		Where("id IN (?)", bun.In(serviceIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	durations := make(map[string]int, len(rows))
	for _, s := range rows {
		durations[s.ID] = s.DurationMinutes
	}
	return durations, nil
}
