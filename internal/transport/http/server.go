package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookday/backend/internal/domain"
	"bookday/backend/internal/service/booking"
)

// bookingService is the slice of the booking service the transport
// depends on.
type bookingService interface {
	Reserve(ctx context.Context, in booking.ReserveInput) (domain.Appointment, error)
	Reschedule(ctx context.Context, in booking.RescheduleInput) (domain.Appointment, error)
	Release(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error)
	Get(ctx context.Context, ownerID string, appointmentID uuid.UUID) (domain.Appointment, error)
	ListForOwner(ctx context.Context, ownerID string) ([]domain.Appointment, error)
	ListForContact(ctx context.Context, contactID string) ([]domain.Appointment, error)
}

type Server struct {
	svc bookingService
	log *slog.Logger
}

func NewServer(svc bookingService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log.With(slog.String("component", "http.appointments")),
	}
}

// Router wires the appointment routes. Identity is explicit in the
// path; authenticating the caller and authorizing access to an owner's
// calendar happen in front of this service.
func (s *Server) Router(limiter *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	owners := router.Group("/owners/:ownerID")
	owners.GET("/appointments", s.listAppointments)
	owners.GET("/appointments/:id", s.getAppointment)

	mutating := owners.Group("")
	if limiter != nil {
		mutating.Use(limiter.Middleware())
	}
	mutating.POST("/appointments", s.reserveAppointment)
	mutating.PUT("/appointments/:id", s.rescheduleAppointment)
	mutating.DELETE("/appointments/:id", s.releaseAppointment)

	router.GET("/contacts/:contactID/appointments", s.listContactAppointments)

	return router
}

type reserveRequest struct {
	ContactID  string   `json:"contactId"`
	ServiceIDs []string `json:"serviceIds"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
}

func (s *Server) reserveAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "ReserveAppointment"))
	ownerID := c.Param("ownerID")

	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err), slog.String("owner_id", ownerID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	appt, err := s.svc.Reserve(c.Request.Context(), booking.ReserveInput{
		OwnerID:    ownerID,
		ContactID:  req.ContactID,
		ServiceIDs: req.ServiceIDs,
		Date:       req.Date,
		Time:       req.Time,
	})
	if err != nil {
		s.writeError(c, log, ownerID, err)
		return
	}

	log.Info(
		"appointment reserved",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("owner_id", appt.OwnerID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
		slog.Int("duration_minutes", appt.DurationMinutes),
	)
	c.JSON(http.StatusCreated, appt)
}

type rescheduleRequest struct {
	ServiceIDs []string `json:"serviceIds"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
}

func (s *Server) rescheduleAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "RescheduleAppointment"))
	ownerID := c.Param("ownerID")

	id, ok := s.appointmentID(c, log, ownerID)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err), slog.String("owner_id", ownerID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	appt, err := s.svc.Reschedule(c.Request.Context(), booking.RescheduleInput{
		OwnerID:       ownerID,
		AppointmentID: id,
		ServiceIDs:    req.ServiceIDs,
		Date:          req.Date,
		Time:          req.Time,
	})
	if err != nil {
		s.writeError(c, log, ownerID, err)
		return
	}

	log.Info(
		"appointment rescheduled",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("owner_id", appt.OwnerID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
		slog.Int64("version", appt.Version),
	)
	c.JSON(http.StatusOK, appt)
}

func (s *Server) releaseAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "ReleaseAppointment"))
	ownerID := c.Param("ownerID")

	id, ok := s.appointmentID(c, log, ownerID)
	if !ok {
		return
	}

	appt, err := s.svc.Release(c.Request.Context(), ownerID, id)
	if err != nil {
		s.writeError(c, log, ownerID, err)
		return
	}

	log.Info(
		"appointment released",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("owner_id", appt.OwnerID),
	)
	c.Status(http.StatusNoContent)
}

func (s *Server) getAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "GetAppointment"))
	ownerID := c.Param("ownerID")

	id, ok := s.appointmentID(c, log, ownerID)
	if !ok {
		return
	}

	appt, err := s.svc.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		s.writeError(c, log, ownerID, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (s *Server) listAppointments(c *gin.Context) {
	log := s.log.With(slog.String("route", "ListAppointments"))
	ownerID := c.Param("ownerID")

	rows, err := s.svc.ListForOwner(c.Request.Context(), ownerID)
	if err != nil {
		s.writeError(c, log, ownerID, err)
		return
	}
	if rows == nil {
		rows = []domain.Appointment{}
	}

	log.Debug("appointments listed", slog.String("owner_id", ownerID), slog.Int("count", len(rows)))
	c.JSON(http.StatusOK, rows)
}

func (s *Server) listContactAppointments(c *gin.Context) {
	log := s.log.With(slog.String("route", "ListContactAppointments"))
	contactID := c.Param("contactID")

	rows, err := s.svc.ListForContact(c.Request.Context(), contactID)
	if err != nil {
		s.writeError(c, log, contactID, err)
		return
	}
	if rows == nil {
		rows = []domain.Appointment{}
	}

	log.Debug("appointments listed", slog.String("contact_id", contactID), slog.Int("count", len(rows)))
	c.JSON(http.StatusOK, rows)
}

func (s *Server) appointmentID(c *gin.Context, log *slog.Logger, ownerID string) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid appointment id", slog.String("id", raw), slog.String("owner_id", ownerID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) writeError(c *gin.Context, log *slog.Logger, subject string, err error) {
	var vErr *booking.ValidationError

	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, booking.ErrServiceNotFound):
		log.Warn("unknown service", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrOutsideAvailableHours):
		log.Info("slot outside open hours", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusBadRequest, gin.H{"error": "The selected time slot is not available."})
	case errors.Is(err, booking.ErrSlotConflict):
		log.Info("slot conflict", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusConflict, gin.H{"error": "That time slot is already booked. Pick a different slot."})
	case errors.Is(err, booking.ErrConflict):
		log.Info("concurrent modification", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusConflict, gin.H{"error": "The calendar changed while booking. Try again."})
	case errors.Is(err, booking.ErrNotFound):
		log.Info("not found", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, booking.ErrTimeout):
		log.Error("request timed out", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "timed out"})
	default:
		log.Error("request failed", slog.Any("err", err), slog.String("subject", subject))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
