package reservation

import "context"

// Repository defines the persistence contract for reservations. Every write is
// atomic at single-row granularity: a concurrent reader never observes a
// partially written reservation.
type Repository interface {
	// Create persists a new reservation and returns the assigned id.
	Create(ctx context.Context, r *Reservation) (int64, error)

	// FindByID retrieves a reservation by its identifier.
	FindByID(ctx context.Context, id int64) (*Reservation, error)

	// SetStatus atomically updates the status of an existing reservation.
	SetStatus(ctx context.Context, id int64, status Status) error

	// ListByClient retrieves a client's reservations, excluding the given
	// status, ordered by scheduled time with unscheduled rows last.
	ListByClient(ctx context.Context, clientID int64, exclude Status) ([]*Reservation, error)

	// ListByStatus retrieves up to limit reservations in any of the given
	// statuses, ordered by scheduled time descending. An empty status set
	// means all statuses.
	ListByStatus(ctx context.Context, statuses []Status, limit int) ([]*Reservation, error)

	// CountByStatus returns the number of reservations per status.
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
