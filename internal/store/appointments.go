package store

import (
	"context"

	"github.com/google/uuid"

	"bookday/backend/internal/domain"
)

// AppointmentStore is the durability gate for appointment records.
// Keys are scoped by owner, so ListByOwner is a bounded scan over one
// calendar rather than the whole table.
type AppointmentStore interface {
	Get(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error)
	ListByContact(ctx context.Context, contactID string) ([]domain.Appointment, error)

	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ConditionalReplace(ctx context.Context, appt domain.Appointment, expectedVersion int64) (domain.Appointment, error)
	Delete(ctx context.Context, ownerID string, appointmentID uuid.UUID) error

	// InOwnerTransaction runs fn with the owner's calendar serialized:
	// at most one reserve/reschedule/release sequence is in flight per
	// owner while unrelated owners proceed in parallel.
	InOwnerTransaction(ctx context.Context, ownerID string, fn func(ctx context.Context, tx OwnerTx) error) error
}

// OwnerTx exposes the store operations bound to one serialized
// owner-calendar transaction.
type OwnerTx interface {
	Get(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error)
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ConditionalReplace(ctx context.Context, appt domain.Appointment, expectedVersion int64) (domain.Appointment, error)
	Delete(ctx context.Context, ownerID string, appointmentID uuid.UUID) error
}
