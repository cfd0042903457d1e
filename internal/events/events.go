package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic and event types published by the reservation service.
const (
	TopicReservationEvents = "reservation.events"

	ReservationRequested = "reservation.requested"
	ReservationConfirmed = "reservation.confirmed"
	ReservationCancelled = "reservation.cancelled"
)

// CloudEvent is the envelope for every published event. Subject identifies the
// resource the event is about and doubles as the Kafka message key.
type CloudEvent struct {
	ID      string          `json:"id"`
	Source  string          `json:"source"`
	Type    string          `json:"type"`
	Subject string          `json:"subject,omitempty"`
	Time    time.Time       `json:"time"`
	Data    json.RawMessage `json:"data"`
}

// NewCloudEvent wraps data in a CloudEvent envelope.
func NewCloudEvent(source, eventType, subject string, data interface{}) (CloudEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return CloudEvent{
		ID:      uuid.New().String(),
		Source:  source,
		Type:    eventType,
		Subject: subject,
		Time:    time.Now().UTC(),
		Data:    payload,
	}, nil
}

// ParseCloudEvent decodes a CloudEvent envelope from raw message bytes.
func ParseCloudEvent(data []byte) (CloudEvent, error) {
	var e CloudEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return CloudEvent{}, fmt.Errorf("failed to parse cloud event: %w", err)
	}
	return e, nil
}

// ParseData unmarshals the event payload into v.
func (e CloudEvent) ParseData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ReservationEvent is the payload for every reservation lifecycle event.
type ReservationEvent struct {
	ReservationID int64      `json:"reservation_id"`
	ClientID      int64      `json:"client_id"`
	FromCity      string     `json:"from_city"`
	ToCity        string     `json:"to_city"`
	Status        string     `json:"status"`
	Price         int64      `json:"price"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Refund        string     `json:"refund,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
