package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/kama-line/service-reservation/internal/domain/errs"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
)

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID               int64      `gorm:"primaryKey;autoIncrement"`
	ClientID         int64      `gorm:"index;not null"`
	FromCity         string     `gorm:"not null;size:100"`
	ToCity           string     `gorm:"not null;size:100"`
	PickupPoint      string     `gorm:"not null;size:200"`
	DestinationPoint string     `gorm:"not null;size:200"`
	ScheduledAt      *time.Time `gorm:"index"`
	Price            int64      `gorm:"not null"`
	RideType         string     `gorm:"not null;size:20"`
	Status           string     `gorm:"not null;size:20;index"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of
// reservation.Repository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Create persists a new reservation and returns the database-assigned id.
func (r *GormReservationRepository) Create(ctx context.Context, res *reservation.Reservation) (int64, error) {
	model := toReservationModel(res)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return 0, errs.NewPersistenceError(fmt.Errorf("failed to create reservation: %w", err))
	}
	return model.ID, nil
}

// FindByID retrieves a reservation by its identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFoundError("Reservation", strconv.FormatInt(id, 10))
		}
		return nil, errs.NewPersistenceError(fmt.Errorf("failed to find reservation by ID: %w", err))
	}
	return toDomainReservation(&model), nil
}

// SetStatus atomically updates the status of an existing reservation.
func (r *GormReservationRepository) SetStatus(ctx context.Context, id int64, status reservation.Status) error {
	tx := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if tx.Error != nil {
		return errs.NewPersistenceError(fmt.Errorf("failed to update reservation status: %w", tx.Error))
	}
	if tx.RowsAffected == 0 {
		return errs.NewNotFoundError("Reservation", strconv.FormatInt(id, 10))
	}
	return nil
}

// ListByClient retrieves a client's reservations, the excluded status filtered
// out, soonest ride first with unscheduled rows at the end.
func (r *GormReservationRepository) ListByClient(ctx context.Context, clientID int64, exclude reservation.Status) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	q := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	if exclude != "" {
		q = q.Where("status <> ?", string(exclude))
	}
	if err := q.Order("scheduled_at ASC NULLS LAST").Find(&models).Error; err != nil {
		return nil, errs.NewPersistenceError(fmt.Errorf("failed to list client reservations: %w", err))
	}
	return toDomainReservations(models), nil
}

// ListByStatus retrieves up to limit reservations in any of the given
// statuses, most recently scheduled first. An empty status set means all
// statuses; limit <= 0 means no limit.
func (r *GormReservationRepository) ListByStatus(ctx context.Context, statuses []reservation.Status, limit int) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	q := r.db.WithContext(ctx)
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		q = q.Where("status IN ?", values)
	}
	q = q.Order("scheduled_at DESC NULLS LAST").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, errs.NewPersistenceError(fmt.Errorf("failed to list reservations by status: %w", err))
	}
	return toDomainReservations(models), nil
}

// CountByStatus returns the number of reservations per status.
func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, errs.NewPersistenceError(fmt.Errorf("failed to count reservations: %w", err))
	}

	counts := make(map[reservation.Status]int64, len(rows))
	for _, row := range rows {
		counts[reservation.Status(row.Status)] = row.Count
	}
	return counts, nil
}

func toReservationModel(res *reservation.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:               res.ID(),
		ClientID:         res.ClientID(),
		FromCity:         res.FromCity(),
		ToCity:           res.ToCity(),
		PickupPoint:      res.PickupPoint(),
		DestinationPoint: res.DestinationPoint(),
		ScheduledAt:      res.ScheduledAt(),
		Price:            res.Price(),
		RideType:         string(res.RideType()),
		Status:           string(res.Status()),
		CreatedAt:        res.CreatedAt(),
		UpdatedAt:        res.UpdatedAt(),
	}
}

func toDomainReservation(m *ReservationModel) *reservation.Reservation {
	return reservation.Reconstruct(
		m.ID,
		m.ClientID,
		m.FromCity,
		m.ToCity,
		m.PickupPoint,
		m.DestinationPoint,
		m.ScheduledAt,
		m.Price,
		reservation.RideType(m.RideType),
		reservation.Status(m.Status),
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toDomainReservations(models []ReservationModel) []*reservation.Reservation {
	out := make([]*reservation.Reservation, len(models))
	for i := range models {
		out[i] = toDomainReservation(&models[i])
	}
	return out
}
