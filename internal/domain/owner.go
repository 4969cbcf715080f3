package domain

import (
	"time"

	"github.com/uptrace/bun"
)

type Owner struct {
	bun.BaseModel `bun:"table:owners"`

	ID             string      `bun:"id,pk" json:"id"`
	Name           string      `bun:"name,notnull" json:"name"`
	Email          string      `bun:"email" json:"email"`
	Phone          string      `bun:"phone" json:"phone"`
	AvailableHours WeeklyHours `bun:"available_hours,type:jsonb" json:"availableHours"`
	CreatedAt      time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time   `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Service is a bookable catalog entry. Price is carried for the
// surrounding product; the booking engine only reads the duration.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              string    `bun:"id,pk" json:"id"`
	OwnerID         string    `bun:"owner_id,notnull" json:"ownerId"`
	Name            string    `bun:"name,notnull" json:"name"`
	DurationMinutes int       `bun:"duration_minutes,notnull" json:"durationMinutes"`
	PriceCents      int64     `bun:"price_cents,notnull" json:"priceCents"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
