package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	OwnerID         string    `bun:"owner_id,notnull" json:"ownerId"`
	ContactID       string    `bun:"contact_id,notnull" json:"contactId"`
	ServiceIDs      []string  `bun:"service_ids,array,notnull" json:"serviceIds"`
	Date            string    `bun:"date,notnull" json:"date"`
	Time            string    `bun:"start_time,notnull" json:"time"`
	DurationMinutes int       `bun:"duration_minutes,notnull" json:"durationMinutes"`
	Version         int64     `bun:"version,notnull" json:"version"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Version == 0 {
			a.Version = 1
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// Slot returns the appointment's booked interval. A malformed stored
// start time yields a zero-length slot, which can never conflict.
func (a Appointment) Slot() Slot {
	start, err := ParseClock(a.Time)
	if err != nil {
		return Slot{Date: a.Date}
	}
	return NewSlot(a.Date, start, a.DurationMinutes)
}
