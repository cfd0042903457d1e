package reservation

// CancelOutcome is the result of the shared cancellation contract. All three
// entry surfaces (menu list-and-cancel, direct command, inline button) receive
// the identical outcome.
type CancelOutcome struct {
	Reservation *Reservation
	Decision    RefundDecision
	// AlreadyCancelled marks the idempotent no-op case.
	AlreadyCancelled bool
}

// ApproveOutcome is the result of an admin approval.
type ApproveOutcome struct {
	Reservation *Reservation
	// AlreadyConfirmed marks the informational no-op case.
	AlreadyConfirmed bool
}

// AdminView is a reservation denormalized with its client's contact data for
// the admin listings.
type AdminView struct {
	Reservation      *Reservation
	ClientName       string
	ClientPhone      string
	ClientExternalID int64
}
