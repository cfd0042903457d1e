package reservation

import (
	"time"

	"github.com/kama-line/service-reservation/internal/domain/errs"
)

// Reservation is the aggregate root for the reservation domain. It records one
// requested ride between the two served cities. A reservation is never deleted;
// cancellation is a status write that preserves history.
type Reservation struct {
	id               int64
	clientID         int64
	fromCity         string
	toCity           string
	pickupPoint      string
	destinationPoint string
	scheduledAt      *time.Time
	price            int64
	rideType         RideType
	status           Status
	createdAt        time.Time
	updatedAt        time.Time
}

// NewReservation creates a pending reservation from confirmed draft data.
// The price is fixed here and never recomputed afterwards.
func NewReservation(
	clientID int64,
	fromCity, toCity string,
	pickupPoint, destinationPoint string,
	scheduledAt *time.Time,
	price int64,
	rideType RideType,
) (*Reservation, error) {
	if clientID == 0 {
		return nil, errs.NewValidationError("client ID is required")
	}
	if fromCity == "" || toCity == "" {
		return nil, errs.NewValidationError("both cities are required")
	}
	if pickupPoint == "" {
		return nil, errs.NewValidationError("pickup point is required")
	}
	if destinationPoint == "" {
		return nil, errs.NewValidationError("destination point is required")
	}
	if price <= 0 {
		return nil, errs.NewValidationError("price must be positive")
	}
	if !rideType.IsValid() {
		return nil, errs.NewValidationError("invalid ride type: " + string(rideType))
	}

	now := time.Now().UTC()
	return &Reservation{
		clientID:         clientID,
		fromCity:         fromCity,
		toCity:           toCity,
		pickupPoint:      pickupPoint,
		destinationPoint: destinationPoint,
		scheduledAt:      scheduledAt,
		price:            price,
		rideType:         rideType,
		status:           StatusPending,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a Reservation from persistence data (no validation).
func Reconstruct(
	id, clientID int64,
	fromCity, toCity string,
	pickupPoint, destinationPoint string,
	scheduledAt *time.Time,
	price int64,
	rideType RideType,
	status Status,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:               id,
		clientID:         clientID,
		fromCity:         fromCity,
		toCity:           toCity,
		pickupPoint:      pickupPoint,
		destinationPoint: destinationPoint,
		scheduledAt:      scheduledAt,
		price:            price,
		rideType:         rideType,
		status:           status,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// ID returns the repository-assigned identifier.
func (r *Reservation) ID() int64 { return r.id }

// SetID assigns the repository-generated identifier after the initial insert.
func (r *Reservation) SetID(id int64) { r.id = id }

// ClientID returns the owning user's identifier.
func (r *Reservation) ClientID() int64 { return r.clientID }

// FromCity returns the origin city.
func (r *Reservation) FromCity() string { return r.fromCity }

// ToCity returns the destination city.
func (r *Reservation) ToCity() string { return r.toCity }

// PickupPoint returns the pickup point or free-text address.
func (r *Reservation) PickupPoint() string { return r.pickupPoint }

// DestinationPoint returns the destination point or free-text address.
func (r *Reservation) DestinationPoint() string { return r.destinationPoint }

// ScheduledAt returns the scheduled instant, or nil when the flow deferred scheduling.
func (r *Reservation) ScheduledAt() *time.Time { return r.scheduledAt }

// Price returns the price fixed at creation.
func (r *Reservation) Price() int64 { return r.price }

// RideType returns the ride type.
func (r *Reservation) RideType() RideType { return r.rideType }

// Status returns the current lifecycle status.
func (r *Reservation) Status() Status { return r.status }

// CreatedAt returns the creation timestamp.
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

// OwnedBy reports whether the reservation belongs to the given client.
func (r *Reservation) OwnedBy(clientID int64) bool {
	return r.clientID == clientID
}

// Cancel transitions the reservation to cancelled. Cancelling an
// already-cancelled reservation returns AlreadyInStateError so callers can
// report it as an informational no-op. The scheduled time is never touched.
func (r *Reservation) Cancel() error {
	if r.status == StatusCancelled {
		return errs.NewAlreadyInStateError(string(StatusCancelled))
	}
	r.status = StatusCancelled
	r.updatedAt = time.Now().UTC()
	return nil
}

// Confirm marks the reservation approved by an administrator. Approval is a
// single-field write guarded by existence only; already-confirmed is the lone
// no-op case.
func (r *Reservation) Confirm() error {
	if r.status == StatusConfirmed {
		return errs.NewAlreadyInStateError(string(StatusConfirmed))
	}
	r.status = StatusConfirmed
	r.updatedAt = time.Now().UTC()
	return nil
}

// Complete marks the ride as carried out.
func (r *Reservation) Complete() error {
	if !r.status.CanTransitionTo(StatusCompleted) {
		return errs.NewConflictError("reservation cannot be completed from status " + string(r.status))
	}
	r.status = StatusCompleted
	r.updatedAt = time.Now().UTC()
	return nil
}
