//go:build integration

package main_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kama-line/service-reservation/internal/conversation"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
	"github.com/kama-line/service-reservation/internal/events"
	"github.com/kama-line/service-reservation/internal/repository"
)

// TestReservationLifecycle_Integration drives the full lifecycle against real
// PostgreSQL and Kafka: register, create from a confirmed draft, approve,
// cancel, with the matching events on the reservation topic.
func TestReservationLifecycle_Integration(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	ctx := context.Background()

	_, err := stack.Service.Register(ctx, 42, "Иван Иванов", "+79991112233")
	require.NoError(t, err)

	draft := conversation.Draft{
		RideType:         reservation.RideTypeSeat,
		FromCity:         "Казань",
		ToCity:           "Нижнекамск",
		PickupPoint:      "РКБ",
		DestinationPoint: "ул. Ленина 5",
		Date:             time.Now().Add(48 * time.Hour).Format("02.01.2006"),
		TimeHHMM:         "09:05",
		Price:            1000,
	}
	res, err := stack.Service.CreateFromDraft(ctx, 42, draft)
	require.NoError(t, err)
	require.NotZero(t, res.ID())

	// The row landed in PostgreSQL as pending.
	var model repository.ReservationModel
	require.NoError(t, infra.DB.Where("id = ?", res.ID()).First(&model).Error)
	assert.Equal(t, "pending", model.Status)
	assert.Equal(t, int64(1000), model.Price)
	require.NotNil(t, model.ScheduledAt)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicReservationEvents,
		events.ReservationRequested, 15*time.Second)
	var requested events.ReservationEvent
	require.NoError(t, ce.ParseData(&requested))
	assert.Equal(t, res.ID(), requested.ReservationID)
	assert.Equal(t, strconv.FormatInt(res.ID(), 10), ce.Subject)

	// Admin approval.
	outcome, err := stack.Service.Approve(ctx, res.ID())
	require.NoError(t, err)
	assert.False(t, outcome.AlreadyConfirmed)

	require.NoError(t, infra.DB.Where("id = ?", res.ID()).First(&model).Error)
	assert.Equal(t, "confirmed", model.Status)

	second, err := stack.Service.Approve(ctx, res.ID())
	require.NoError(t, err)
	assert.True(t, second.AlreadyConfirmed)

	consumeOneEvent(t, infra.KafkaBrokers, events.TopicReservationEvents,
		events.ReservationConfirmed, 15*time.Second)
}

// TestCancelRefund_Integration verifies the refund decision rides along on the
// cancellation event and the repeated cancel stays side-effect free.
func TestCancelRefund_Integration(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	ctx := context.Background()

	_, err := stack.Service.Register(ctx, 43, "Пётр Петров", "+79994445566")
	require.NoError(t, err)

	draft := conversation.Draft{
		RideType:         reservation.RideTypeWholeVehicle,
		FromCity:         "Нижнекамск",
		ToCity:           "Казань",
		PickupPoint:      "ул. Гагарина 12",
		DestinationPoint: "ДРКБ",
		Date:             time.Now().Add(72 * time.Hour).Format("02.01.2006"),
		TimeHHMM:         "10:30",
		Price:            1100,
	}
	res, err := stack.Service.CreateFromDraft(ctx, 43, draft)
	require.NoError(t, err)

	outcome, err := stack.Service.Cancel(ctx, 43, res.ID())
	require.NoError(t, err)
	assert.Equal(t, reservation.RefundFull, outcome.Decision)

	var model repository.ReservationModel
	require.NoError(t, infra.DB.Where("id = ?", res.ID()).First(&model).Error)
	assert.Equal(t, "cancelled", model.Status)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicReservationEvents,
		events.ReservationCancelled, 15*time.Second)
	var cancelled events.ReservationEvent
	require.NoError(t, ce.ParseData(&cancelled))
	assert.Equal(t, string(reservation.RefundFull), cancelled.Refund)

	repeat, err := stack.Service.Cancel(ctx, 43, res.ID())
	require.NoError(t, err)
	assert.True(t, repeat.AlreadyCancelled)
}
