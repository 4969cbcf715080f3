package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookday/backend/internal/domain"
	"bookday/backend/internal/store"
)

var (
	ErrServiceNotFound       = errors.New("service not found")
	ErrOutsideAvailableHours = errors.New("outside available hours")
	ErrSlotConflict          = errors.New("slot conflict")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrStorage               = errors.New("storage error")
	ErrTimeout               = errors.New("timeout")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// replaceRetries bounds how often a stale-version commit is retried
// from a fresh read before the whole operation reports ErrConflict.
const replaceRetries = 3

type Service struct {
	appointments store.AppointmentStore
	owners       store.OwnerDirectory
	catalog      store.ServiceCatalog
}

func NewService(appointments store.AppointmentStore, owners store.OwnerDirectory, catalog store.ServiceCatalog) *Service {
	return &Service{
		appointments: appointments,
		owners:       owners,
		catalog:      catalog,
	}
}

type ReserveInput struct {
	OwnerID    string
	ContactID  string
	ServiceIDs []string
	Date       string
	Time       string
}

// Reserve books a new appointment. The slot must lie inside the
// owner's open hours for that weekday and must not intersect any of
// the owner's existing appointments; both checks and the insert run
// under the owner's serialized transaction so concurrent requests for
// the same slot cannot both commit.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (domain.Appointment, error) {
	if in.OwnerID == "" {
		return domain.Appointment{}, validationError("owner_id is required")
	}
	if in.ContactID == "" {
		return domain.Appointment{}, validationError("contact_id is required")
	}

	day, startMinutes, err := parseSlotInput(in.Date, in.Time)
	if err != nil {
		return domain.Appointment{}, err
	}

	duration, err := s.resolveDuration(ctx, in.ServiceIDs)
	if err != nil {
		return domain.Appointment{}, err
	}

	if err := s.checkOpenHours(ctx, in.OwnerID, day, startMinutes, duration); err != nil {
		return domain.Appointment{}, err
	}

	candidate := domain.NewSlot(in.Date, startMinutes, duration)

	var out domain.Appointment
	err = s.appointments.InOwnerTransaction(ctx, in.OwnerID, func(ctx context.Context, tx store.OwnerTx) error {
		existing, err := tx.ListByOwner(ctx, in.OwnerID)
		if err != nil {
			return err
		}
		if hit := domain.FirstConflict(candidate, existing); hit != nil {
			return fmt.Errorf("appointment %s at %s %s: %w", hit.ID, hit.Date, hit.Time, ErrSlotConflict)
		}

		appt := domain.Appointment{
			OwnerID:         in.OwnerID,
			ContactID:       in.ContactID,
			ServiceIDs:      in.ServiceIDs,
			Date:            in.Date,
			Time:            in.Time,
			DurationMinutes: duration,
		}

		// An id collision is practically unreachable, but a fresh id
		// gets one second chance before the failure surfaces.
		for attempt := 0; attempt < 2; attempt++ {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			appt.ID = id

			created, err := tx.Create(ctx, appt)
			if err == nil {
				out = created
				return nil
			}
			if !errors.Is(err, store.ErrAlreadyExists) {
				return err
			}
		}
		return fmt.Errorf("appointment id collisions: %w", ErrStorage)
	})
	if err != nil {
		return domain.Appointment{}, mapStoreErr(err)
	}
	return out, nil
}

type RescheduleInput struct {
	OwnerID       string
	AppointmentID uuid.UUID

	// Nil or empty fields keep the current value.
	ServiceIDs []string
	Date       string
	Time       string
}

// Reschedule moves an existing appointment and/or swaps its services,
// re-validating open hours and conflicts with the moving record
// excluded from its own conflict universe. The commit is conditional
// on the version read at load time; a concurrent writer forces a fresh
// load-validate-commit round, bounded by replaceRetries.
func (s *Service) Reschedule(ctx context.Context, in RescheduleInput) (domain.Appointment, error) {
	if in.OwnerID == "" {
		return domain.Appointment{}, validationError("owner_id is required")
	}
	if in.AppointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if in.ServiceIDs != nil && len(in.ServiceIDs) == 0 {
		return domain.Appointment{}, validationError("service_ids must not be empty")
	}

	for attempt := 0; attempt < replaceRetries; attempt++ {
		current, err := s.appointments.Get(ctx, in.OwnerID, in.AppointmentID)
		if err != nil {
			return domain.Appointment{}, mapStoreErr(err)
		}

		next := current
		if in.Date != "" {
			next.Date = in.Date
		}
		if in.Time != "" {
			next.Time = in.Time
		}
		if in.ServiceIDs != nil {
			next.ServiceIDs = in.ServiceIDs
			duration, err := s.resolveDuration(ctx, in.ServiceIDs)
			if err != nil {
				return domain.Appointment{}, err
			}
			next.DurationMinutes = duration
		}

		if next.Date == current.Date && next.Time == current.Time && equalIDs(next.ServiceIDs, current.ServiceIDs) {
			return current, nil
		}

		day, startMinutes, err := parseSlotInput(next.Date, next.Time)
		if err != nil {
			return domain.Appointment{}, err
		}
		if err := s.checkOpenHours(ctx, in.OwnerID, day, startMinutes, next.DurationMinutes); err != nil {
			return domain.Appointment{}, err
		}

		candidate := domain.NewSlot(next.Date, startMinutes, next.DurationMinutes)

		var out domain.Appointment
		err = s.appointments.InOwnerTransaction(ctx, in.OwnerID, func(ctx context.Context, tx store.OwnerTx) error {
			existing, err := tx.ListByOwner(ctx, in.OwnerID)
			if err != nil {
				return err
			}
			universe := existing[:0:0]
			for _, a := range existing {
				if a.ID != current.ID {
					universe = append(universe, a)
				}
			}
			if hit := domain.FirstConflict(candidate, universe); hit != nil {
				return fmt.Errorf("appointment %s at %s %s: %w", hit.ID, hit.Date, hit.Time, ErrSlotConflict)
			}

			replaced, err := tx.ConditionalReplace(ctx, next, current.Version)
			if err != nil {
				return err
			}
			out = replaced
			return nil
		})
		if err == nil {
			return out, nil
		}
		if errors.Is(err, store.ErrVersionMismatch) {
			continue
		}
		return domain.Appointment{}, mapStoreErr(err)
	}
	return domain.Appointment{}, fmt.Errorf("reschedule retries exhausted: %w", ErrConflict)
}

// Release deletes an appointment and returns the record that was
// removed. Releasing twice reports ErrNotFound the second time.
func (s *Service) Release(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error) {
	if ownerID == "" {
		return domain.Appointment{}, validationError("owner_id is required")
	}
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	var out domain.Appointment
	err := s.appointments.InOwnerTransaction(ctx, ownerID, func(ctx context.Context, tx store.OwnerTx) error {
		current, err := tx.Get(ctx, ownerID, appointmentID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, ownerID, appointmentID); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return domain.Appointment{}, mapStoreErr(err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error) {
	if ownerID == "" {
		return domain.Appointment{}, validationError("owner_id is required")
	}
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	appt, err := s.appointments.Get(ctx, ownerID, appointmentID)
	if err != nil {
		return domain.Appointment{}, mapStoreErr(err)
	}
	return appt, nil
}

func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error) {
	if ownerID == "" {
		return nil, validationError("owner_id is required")
	}
	rows, err := s.appointments.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return rows, nil
}

func (s *Service) ListForContact(ctx context.Context, contactID string) ([]domain.Appointment, error) {
	if contactID == "" {
		return nil, validationError("contact_id is required")
	}
	rows, err := s.appointments.ListByContact(ctx, contactID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return rows, nil
}

// resolveDuration snapshots the summed duration of the referenced
// services. Later catalog edits never change a committed appointment.
func (s *Service) resolveDuration(ctx context.Context, serviceIDs []string) (int, error) {
	if len(serviceIDs) == 0 {
		return 0, validationError("service_ids must not be empty")
	}
	for _, id := range serviceIDs {
		if strings.TrimSpace(id) == "" {
			return 0, validationError("service_ids must not contain empty ids")
		}
	}

	durations, err := s.catalog.ServiceDurations(ctx, serviceIDs)
	if err != nil {
		return 0, mapStoreErr(err)
	}

	total := 0
	for _, id := range serviceIDs {
		d, ok := durations[id]
		if !ok {
			return 0, fmt.Errorf("service %q: %w", id, ErrServiceNotFound)
		}
		if d <= 0 {
			return 0, fmt.Errorf("service %q has no duration: %w", id, ErrServiceNotFound)
		}
		total += d
	}
	return total, nil
}

func (s *Service) checkOpenHours(ctx context.Context, ownerID string, day time.Weekday, startMinutes, durationMinutes int) error {
	hours, err := s.owners.OwnerHours(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("owner %q: %w", ownerID, ErrNotFound)
		}
		return mapStoreErr(err)
	}
	if !hours.Covers(day, startMinutes, durationMinutes) {
		return fmt.Errorf("%s %02d:%02d for %dm: %w",
			domain.DayName(day), startMinutes/60, startMinutes%60, durationMinutes, ErrOutsideAvailableHours)
	}
	return nil
}

func parseSlotInput(date, clock string) (time.Weekday, int, error) {
	if strings.TrimSpace(date) == "" {
		return 0, 0, validationError("date is required")
	}
	if strings.TrimSpace(clock) == "" {
		return 0, 0, validationError("time is required")
	}
	d, err := domain.ParseDate(date)
	if err != nil {
		return 0, 0, validationError(err.Error())
	}
	startMinutes, err := domain.ParseClock(clock)
	if err != nil {
		return 0, 0, validationError(err.Error())
	}
	return d.Weekday(), startMinutes, nil
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mapStoreErr translates storage failures into the service taxonomy.
// Errors already belonging to the taxonomy pass through untouched.
func mapStoreErr(err error) error {
	var vErr *ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &vErr):
		return err
	case errors.Is(err, ErrServiceNotFound),
		errors.Is(err, ErrOutsideAvailableHours),
		errors.Is(err, ErrSlotConflict),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrStorage),
		errors.Is(err, ErrTimeout):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%v: %w", err, ErrTimeout)
	default:
		return fmt.Errorf("%v: %w", err, ErrStorage)
	}
}
