package conversation

import (
	"time"

	"github.com/kama-line/service-reservation/internal/domain/errs"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
)

// State is the enumerated conversation state for one user session.
type State string

const (
	// StateIdle: main menu, no flow in progress.
	StateIdle State = "idle"
	// StateAwaitPhone: first contact, waiting for the phone number share.
	StateAwaitPhone State = "await_phone"

	StateChooseType       State = "choose_type"
	StateChooseDirection  State = "choose_direction"
	StateEnterOrigin      State = "enter_origin"
	StateEnterDestination State = "enter_destination"
	StateEnterDate        State = "enter_date"
	StateEnterTime        State = "enter_time"
	StateConfirm          State = "confirm"

	StateAdminMenu    State = "admin_menu"
	StateAdminAwaitID State = "admin_await_id"
)

// IsBooking reports whether the state belongs to the booking flow.
func (s State) IsBooking() bool {
	switch s {
	case StateChooseType, StateChooseDirection, StateEnterOrigin,
		StateEnterDestination, StateEnterDate, StateEnterTime, StateConfirm:
		return true
	}
	return false
}

// IsAdmin reports whether the state belongs to the admin workflow.
func (s State) IsAdmin() bool {
	return s == StateAdminMenu || s == StateAdminAwaitID
}

// Draft is the in-progress, unpersisted booking data tied to one session.
// Date and TimeHHMM hold normalized text; the combined instant is derived only
// at commit time.
type Draft struct {
	RideType         reservation.RideType `json:"ride_type,omitempty"`
	FromCity         string               `json:"from_city,omitempty"`
	ToCity           string               `json:"to_city,omitempty"`
	PickupPoint      string               `json:"pickup_point,omitempty"`
	DestinationPoint string               `json:"destination_point,omitempty"`
	Date             string               `json:"date,omitempty"`
	TimeHHMM         string               `json:"time,omitempty"`
	Price            int64                `json:"price,omitempty"`
}

const (
	dateLayout = "02.01.2006"
	// dateInputLayout accepts one- or two-digit day and month components;
	// accepted input is re-formatted into the padded dateLayout form.
	dateInputLayout = "2.1.2006"
	combinedLayout  = "02.01.2006 15:04"
)

// ScheduledAt combines the captured date and normalized time into a single
// instant. It returns nil when the flow left the date unspecified, so the
// reservation's scheduled time stays unset.
func (d Draft) ScheduledAt() (*time.Time, error) {
	if d.Date == "" {
		return nil, nil
	}
	if d.TimeHHMM == "" {
		return nil, errs.NewValidationError("time is missing")
	}
	at, err := time.ParseInLocation(combinedLayout, d.Date+" "+d.TimeHHMM, time.Local)
	if err != nil {
		return nil, errs.NewValidationError("invalid date or time: " + err.Error())
	}
	return &at, nil
}

// Validate checks the draft has every field the active flow requires before it
// may be committed.
func (d Draft) Validate(requireDate bool) error {
	if !d.RideType.IsValid() {
		return errs.NewValidationError("ride type is missing")
	}
	if d.FromCity == "" || d.ToCity == "" {
		return errs.NewValidationError("direction is missing")
	}
	if d.PickupPoint == "" {
		return errs.NewValidationError("pickup point is missing")
	}
	if d.DestinationPoint == "" {
		return errs.NewValidationError("destination point is missing")
	}
	if d.Price <= 0 {
		return errs.NewValidationError("price is missing")
	}
	if d.TimeHHMM == "" {
		return errs.NewValidationError("time is missing")
	}
	if requireDate && d.Date == "" {
		return errs.NewValidationError("date is missing")
	}
	return nil
}

// Session is one user's conversation state. Created on conversation entry,
// destroyed on terminal transition; an idle session is equivalent to none.
type Session struct {
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
	StartedAt time.Time `json:"started_at"`
}

// NewSession returns a fresh idle session.
func NewSession() *Session {
	return &Session{State: StateIdle, StartedAt: time.Now().UTC()}
}

// Reset discards the draft and returns the session to the main menu.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Draft = Draft{}
}
