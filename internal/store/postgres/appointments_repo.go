package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookday/backend/internal/domain"
	"bookday/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type ownerTx struct {
	tx bun.IDB
}

func (r *AppointmentRepo) Get(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error) {
	return ownerTx{tx: r.db}.Get(ctx, ownerID, appointmentID)
}

func (r *AppointmentRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error) {
	return ownerTx{tx: r.db}.ListByOwner(ctx, ownerID)
}

func (r *AppointmentRepo) ListByContact(ctx context.Context, contactID string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("contact_id = ?", contactID).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InOwnerTransaction(ctx, appt.OwnerID, func(ctx context.Context, tx store.OwnerTx) error {
		a, err := tx.Create(ctx, appt)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) ConditionalReplace(ctx context.Context, appt domain.Appointment, expectedVersion int64) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InOwnerTransaction(ctx, appt.OwnerID, func(ctx context.Context, tx store.OwnerTx) error {
		a, err := tx.ConditionalReplace(ctx, appt, expectedVersion)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, ownerID string, appointmentID uuid.UUID) error {
	return r.InOwnerTransaction(ctx, ownerID, func(ctx context.Context, tx store.OwnerTx) error {
		return tx.Delete(ctx, ownerID, appointmentID)
	})
}

// InOwnerTransaction serializes all writers of one owner's calendar
// behind a transaction-scoped advisory lock, so the surrounding
// list-check-commit sequence cannot race another request for the same
// owner. Unrelated owners hash to unrelated locks.
func (r *AppointmentRepo) InOwnerTransaction(ctx context.Context, ownerID string, fn func(ctx context.Context, tx store.OwnerTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockOwnerCalendar(ctx, tx, ownerID); err != nil {
			return err
		}
		return fn(ctx, ownerTx{tx: tx})
	})
}

func lockOwnerCalendar(ctx context.Context, tx bun.Tx, ownerID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID).Exec(ctx)
	return err
}

func (t ownerTx) Get(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error) {
	var a domain.Appointment
	err := t.tx.NewSelect().
		Model(&a).
		Where("owner_id = ?", ownerID).
		Where("id = ?", appointmentID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return a, nil
}

func (t ownerTx) ListByOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := t.tx.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t ownerTx) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Appointment{}, store.ErrAlreadyExists
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (t ownerTx) ConditionalReplace(ctx context.Context, appt domain.Appointment, expectedVersion int64) (domain.Appointment, error) {
	m := appt
	m.Version = expectedVersion + 1

	res, err := t.tx.NewUpdate().
		Model(&m).
		Column("contact_id", "service_ids", "date", "start_time", "duration_minutes", "version", "updated_at").
		Where("owner_id = ?", appt.OwnerID).
		Where("id = ?", appt.ID).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		// The record either moved past expectedVersion or is gone.
		if _, err := t.Get(ctx, appt.OwnerID, appt.ID); err != nil {
			return domain.Appointment{}, err
		}
		return domain.Appointment{}, store.ErrVersionMismatch
	}
	return m, nil
}

func (t ownerTx) Delete(ctx context.Context, ownerID string, appointmentID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("owner_id = ?", ownerID).
		Where("id = ?", appointmentID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
