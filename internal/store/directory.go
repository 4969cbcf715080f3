package store

import (
	"context"

	"bookday/backend/internal/domain"
)

// OwnerDirectory resolves an owner's weekly open hours. Owner records
// are created and edited by the surrounding product; the booking
// engine only reads them.
type OwnerDirectory interface {
	OwnerHours(ctx context.Context, ownerID string) (domain.WeeklyHours, error)
}

// ServiceCatalog resolves service durations. Unknown ids are simply
// absent from the result; callers decide how a missing service is
// reported.
type ServiceCatalog interface {
	ServiceDurations(ctx context.Context, serviceIDs []string) (map[string]int, error)
}
