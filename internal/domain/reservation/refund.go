package reservation

import "time"

// RefundDecision is the outcome of the cancellation policy.
type RefundDecision string

const (
	// RefundFull: the prepayment is returned in full.
	RefundFull RefundDecision = "full_refund"
	// RefundForfeited: the ride is less than the cutoff away, prepayment is kept.
	RefundForfeited RefundDecision = "forfeited"
	// RefundUnknown: no scheduled time, so no refund computation was possible.
	// Advisory only, never blocks the cancellation.
	RefundUnknown RefundDecision = "unknown"
)

// RefundCutoff is the minimum time before departure for a full refund.
const RefundCutoff = 12 * time.Hour

// EvaluateRefund computes refund eligibility for a cancellation happening at
// now against the reservation's scheduled time. Exactly RefundCutoff before
// departure still earns a full refund (non-strict upper bound). The function
// is pure and has no side effects.
func EvaluateRefund(now time.Time, scheduledAt *time.Time) RefundDecision {
	if scheduledAt == nil {
		return RefundUnknown
	}
	if scheduledAt.Sub(now) < RefundCutoff {
		return RefundForfeited
	}
	return RefundFull
}

// Advisory returns the user-facing text for the refund decision.
func (d RefundDecision) Advisory() string {
	switch d {
	case RefundFull:
		return "✅ Предоплата будет возвращена в полном объёме."
	case RefundForfeited:
		return "⚠️ До поездки осталось менее 12 часов — предоплата не возвращается."
	case RefundUnknown:
		return "⚠️ Время поездки не указано. Бронь отменена без расчёта возврата."
	default:
		return string(d)
	}
}
