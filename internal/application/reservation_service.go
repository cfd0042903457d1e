package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kama-line/service-reservation/internal/conversation"
	"github.com/kama-line/service-reservation/internal/domain/catalog"
	"github.com/kama-line/service-reservation/internal/domain/errs"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
	"github.com/kama-line/service-reservation/internal/domain/user"
	"github.com/kama-line/service-reservation/internal/events"
)

const eventSource = "service-reservation"

// ReservationDTO is the response representation of a reservation.
type ReservationDTO struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"client_id"`
	FromCity    string     `json:"from_city"`
	ToCity      string     `json:"to_city"`
	Pickup      string     `json:"pickup"`
	Destination string     `json:"destination"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Price       int64      `json:"price"`
	RideType    string     `json:"ride_type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AdminReservationDTO extends ReservationDTO with client contact details for
// the admin listings.
type AdminReservationDTO struct {
	ReservationDTO
	ClientName       string `json:"client_name"`
	ClientPhone      string `json:"client_phone"`
	ClientExternalID int64  `json:"client_external_id"`
}

// NewAdminReservationDTO builds the admin representation of a reservation.
func NewAdminReservationDTO(v reservation.AdminView) AdminReservationDTO {
	return AdminReservationDTO{
		ReservationDTO:   toDTO(v.Reservation),
		ClientName:       v.ClientName,
		ClientPhone:      v.ClientPhone,
		ClientExternalID: v.ClientExternalID,
	}
}

// ReservationService orchestrates the reservation lifecycle: creation from a
// finished conversation draft, cancellation with the refund policy, admin
// approval and the listings. It implements conversation.Service.
type ReservationService struct {
	repo     reservation.Repository
	users    user.Directory
	flow     catalog.Flow
	producer events.Publisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	repo reservation.Repository,
	users user.Directory,
	flow catalog.Flow,
	producer events.Publisher,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		repo:     repo,
		users:    users,
		flow:     flow,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *ReservationService) WithClock(now func() time.Time) *ReservationService {
	s.now = now
	return s
}

// Resolve looks up a registered user by the chat transport handle. Returns a
// NotFoundError for unknown users.
func (s *ReservationService) Resolve(ctx context.Context, externalID int64) (*user.User, error) {
	return s.users.FindByExternalID(ctx, externalID)
}

// Register stores a new user with the customer role. If the user already
// exists it is returned as is.
func (s *ReservationService) Register(ctx context.Context, externalID int64, fullName, phone string) (*user.User, error) {
	existing, err := s.users.FindByExternalID(ctx, externalID)
	if err == nil {
		return existing, nil
	}
	if !errs.IsNotFound(err) {
		return nil, err
	}

	u, err := user.NewUser(externalID, fullName, phone)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		// Lost a registration race; the stored row wins.
		if errs.IsConflict(err) {
			return s.users.FindByExternalID(ctx, externalID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.Int64("external_id", externalID),
		zap.Int64("user_id", u.ID),
	)
	return u, nil
}

// CreateFromDraft turns a completed conversation draft into a persisted
// pending reservation and publishes reservation.requested.
func (s *ReservationService) CreateFromDraft(ctx context.Context, externalID int64, draft conversation.Draft) (*reservation.Reservation, error) {
	u, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if err := draft.Validate(s.flow.RequireDate); err != nil {
		return nil, err
	}
	scheduledAt, err := draft.ScheduledAt()
	if err != nil {
		return nil, err
	}

	res, err := reservation.NewReservation(
		u.ID,
		draft.FromCity,
		draft.ToCity,
		draft.PickupPoint,
		draft.DestinationPoint,
		scheduledAt,
		draft.Price,
		draft.RideType,
	)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}
	res.SetID(id)

	s.publishReservationEvent(ctx, events.ReservationRequested, res, "")

	s.logger.Info("reservation created",
		zap.Int64("reservation_id", id),
		zap.Int64("client_id", u.ID),
		zap.String("from_city", res.FromCity()),
		zap.String("to_city", res.ToCity()),
		zap.Int64("price", res.Price()),
	)
	return res, nil
}

// Cancel cancels the caller's reservation. The refund decision is settled
// against the clock before any state changes; a repeated cancel reports the
// already-cancelled state without side effects. Cancelling someone else's
// reservation is a ForbiddenError.
func (s *ReservationService) Cancel(ctx context.Context, externalID, reservationID int64) (*reservation.CancelOutcome, error) {
	u, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	res, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !res.OwnedBy(u.ID) {
		return nil, errs.NewForbiddenError("reservation belongs to another client")
	}

	decision := reservation.EvaluateRefund(s.now(), res.ScheduledAt())

	if err := res.Cancel(); err != nil {
		var already *errs.AlreadyInStateError
		if errors.As(err, &already) {
			return &reservation.CancelOutcome{Reservation: res, AlreadyCancelled: true}, nil
		}
		return nil, err
	}

	if err := s.repo.SetStatus(ctx, reservationID, reservation.StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}

	s.publishReservationEvent(ctx, events.ReservationCancelled, res, string(decision))

	s.logger.Info("reservation cancelled",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("client_id", u.ID),
		zap.String("refund", string(decision)),
	)
	return &reservation.CancelOutcome{Reservation: res, Decision: decision}, nil
}

// Approve marks a reservation confirmed on behalf of an administrator. A
// second approval of the same reservation reports the already-confirmed state
// without side effects.
func (s *ReservationService) Approve(ctx context.Context, reservationID int64) (*reservation.ApproveOutcome, error) {
	res, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if err := res.Confirm(); err != nil {
		var already *errs.AlreadyInStateError
		if errors.As(err, &already) {
			return &reservation.ApproveOutcome{Reservation: res, AlreadyConfirmed: true}, nil
		}
		return nil, err
	}

	if err := s.repo.SetStatus(ctx, reservationID, reservation.StatusConfirmed); err != nil {
		return nil, fmt.Errorf("failed to confirm reservation: %w", err)
	}

	s.publishReservationEvent(ctx, events.ReservationConfirmed, res, "")

	s.logger.Info("reservation confirmed",
		zap.Int64("reservation_id", reservationID),
	)
	return &reservation.ApproveOutcome{Reservation: res}, nil
}

// ListMine returns the caller's reservations, cancelled ones excluded.
func (s *ReservationService) ListMine(ctx context.Context, externalID int64) ([]*reservation.Reservation, error) {
	u, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByClient(ctx, u.ID, reservation.StatusCancelled)
}

// ListActive returns pending and confirmed reservations with client contact
// details attached.
func (s *ReservationService) ListActive(ctx context.Context) ([]reservation.AdminView, error) {
	list, err := s.repo.ListByStatus(ctx, []reservation.Status{
		reservation.StatusPending,
		reservation.StatusConfirmed,
	}, 0)
	if err != nil {
		return nil, err
	}
	return s.attachClients(ctx, list)
}

// ListHistory returns the most recent reservations in any state.
func (s *ReservationService) ListHistory(ctx context.Context, limit int) ([]reservation.AdminView, error) {
	list, err := s.repo.ListByStatus(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	return s.attachClients(ctx, list)
}

// ReservationStatsDTO aggregates reservation counts for the admin dashboard.
type ReservationStatsDTO struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Cancelled int64 `json:"cancelled"`
	Completed int64 `json:"completed"`
}

// GetStats returns reservation counts per status.
func (s *ReservationService) GetStats(ctx context.Context) (*ReservationStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &ReservationStatsDTO{
		Pending:   counts[reservation.StatusPending],
		Confirmed: counts[reservation.StatusConfirmed],
		Cancelled: counts[reservation.StatusCancelled],
		Completed: counts[reservation.StatusCompleted],
	}
	stats.Total = stats.Pending + stats.Confirmed + stats.Cancelled + stats.Completed
	return stats, nil
}

// GetReservation returns one reservation as a DTO. Used by the HTTP admin API.
func (s *ReservationService) GetReservation(ctx context.Context, reservationID int64) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(res)
	return &dto, nil
}

func (s *ReservationService) attachClients(ctx context.Context, list []*reservation.Reservation) ([]reservation.AdminView, error) {
	views := make([]reservation.AdminView, 0, len(list))
	cache := make(map[int64]*user.User)
	for _, res := range list {
		view := reservation.AdminView{Reservation: res}
		u, ok := cache[res.ClientID()]
		if !ok {
			var err error
			u, err = s.users.FindByID(ctx, res.ClientID())
			if err != nil {
				if !errs.IsNotFound(err) {
					return nil, err
				}
				u = nil
			}
			cache[res.ClientID()] = u
		}
		if u != nil {
			view.ClientName = u.FullName
			view.ClientPhone = u.Phone
			view.ClientExternalID = u.ExternalID
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ReservationService) publishReservationEvent(ctx context.Context, eventType string, res *reservation.Reservation, refund string) {
	evt := events.ReservationEvent{
		ReservationID: res.ID(),
		ClientID:      res.ClientID(),
		FromCity:      res.FromCity(),
		ToCity:        res.ToCity(),
		Status:        string(res.Status()),
		Price:         res.Price(),
		ScheduledAt:   res.ScheduledAt(),
		Refund:        refund,
		OccurredAt:    s.now().UTC(),
	}

	subject := strconv.FormatInt(res.ID(), 10)
	cloudEvent, err := events.NewCloudEvent(eventSource, eventType, subject, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicReservationEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicReservationEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toDTO(res *reservation.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:          res.ID(),
		ClientID:    res.ClientID(),
		FromCity:    res.FromCity(),
		ToCity:      res.ToCity(),
		Pickup:      res.PickupPoint(),
		Destination: res.DestinationPoint(),
		ScheduledAt: res.ScheduledAt(),
		Price:       res.Price(),
		RideType:    string(res.RideType()),
		Status:      string(res.Status()),
		CreatedAt:   res.CreatedAt(),
		UpdatedAt:   res.UpdatedAt(),
	}
}
