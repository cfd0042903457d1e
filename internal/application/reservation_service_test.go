package application_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kama-line/service-reservation/internal/application"
	"github.com/kama-line/service-reservation/internal/conversation"
	"github.com/kama-line/service-reservation/internal/domain/catalog"
	"github.com/kama-line/service-reservation/internal/domain/errs"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
	"github.com/kama-line/service-reservation/internal/domain/user"
	"github.com/kama-line/service-reservation/internal/events"
)

// memoryReservationRepo is an in-memory reservation.Repository double.
type memoryReservationRepo struct {
	nextID int64
	rows   map[int64]*reservation.Reservation
}

func newMemoryReservationRepo() *memoryReservationRepo {
	return &memoryReservationRepo{nextID: 1, rows: make(map[int64]*reservation.Reservation)}
}

func (r *memoryReservationRepo) Create(_ context.Context, res *reservation.Reservation) (int64, error) {
	id := r.nextID
	r.nextID++
	clone := *res
	clone.SetID(id)
	r.rows[id] = &clone
	return id, nil
}

func (r *memoryReservationRepo) FindByID(_ context.Context, id int64) (*reservation.Reservation, error) {
	res, ok := r.rows[id]
	if !ok {
		return nil, errs.NewNotFoundError("Reservation", strconv.FormatInt(id, 10))
	}
	clone := *res
	return &clone, nil
}

func (r *memoryReservationRepo) SetStatus(_ context.Context, id int64, status reservation.Status) error {
	res, ok := r.rows[id]
	if !ok {
		return errs.NewNotFoundError("Reservation", strconv.FormatInt(id, 10))
	}
	r.rows[id] = reservation.Reconstruct(
		res.ID(), res.ClientID(), res.FromCity(), res.ToCity(),
		res.PickupPoint(), res.DestinationPoint(), res.ScheduledAt(),
		res.Price(), res.RideType(), status, res.CreatedAt(), time.Now(),
	)
	return nil
}

func (r *memoryReservationRepo) ListByClient(_ context.Context, clientID int64, exclude reservation.Status) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, res := range r.rows {
		if res.ClientID() == clientID && res.Status() != exclude {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *memoryReservationRepo) ListByStatus(_ context.Context, statuses []reservation.Status, limit int) ([]*reservation.Reservation, error) {
	match := func(s reservation.Status) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, want := range statuses {
			if s == want {
				return true
			}
		}
		return false
	}
	var out []*reservation.Reservation
	for _, res := range r.rows {
		if match(res.Status()) {
			out = append(out, res)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryReservationRepo) CountByStatus(_ context.Context) (map[reservation.Status]int64, error) {
	counts := make(map[reservation.Status]int64)
	for _, res := range r.rows {
		counts[res.Status()]++
	}
	return counts, nil
}

// memoryDirectory is an in-memory user.Directory double.
type memoryDirectory struct {
	nextID int64
	rows   map[int64]*user.User
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{nextID: 1, rows: make(map[int64]*user.User)}
}

func (d *memoryDirectory) FindByID(_ context.Context, id int64) (*user.User, error) {
	for _, u := range d.rows {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errs.NewNotFoundError("User", strconv.FormatInt(id, 10))
}

func (d *memoryDirectory) FindByExternalID(_ context.Context, externalID int64) (*user.User, error) {
	u, ok := d.rows[externalID]
	if !ok {
		return nil, errs.NewNotFoundError("User", strconv.FormatInt(externalID, 10))
	}
	return u, nil
}

func (d *memoryDirectory) Create(_ context.Context, u *user.User) error {
	if _, ok := d.rows[u.ExternalID]; ok {
		return errs.NewConflictError("user already registered")
	}
	u.ID = d.nextID
	d.nextID++
	d.rows[u.ExternalID] = u
	return nil
}

// capturingPublisher records every CloudEvent handed to it.
type capturingPublisher struct {
	published []events.CloudEvent
	topics    []string
}

func (p *capturingPublisher) PublishEvent(_ context.Context, topic string, event events.CloudEvent) error {
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

type serviceFixture struct {
	svc       *application.ReservationService
	repo      *memoryReservationRepo
	dir       *memoryDirectory
	publisher *capturingPublisher
	now       time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newMemoryReservationRepo()
	dir := newMemoryDirectory()
	publisher := &capturingPublisher{}
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.Local)
	svc := application.NewReservationService(
		repo, dir, catalog.DefaultFlow(), publisher, zap.NewNop(),
	).WithClock(func() time.Time { return now })
	return &serviceFixture{svc: svc, repo: repo, dir: dir, publisher: publisher, now: now}
}

func (f *serviceFixture) registerUser(t *testing.T, externalID int64) *user.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), externalID, "Иван Иванов", "+79991112233")
	require.NoError(t, err)
	return u
}

func validDraft() conversation.Draft {
	return conversation.Draft{
		RideType:         reservation.RideTypeSeat,
		FromCity:         "Казань",
		ToCity:           "Нижнекамск",
		PickupPoint:      "РКБ",
		DestinationPoint: "ул. Ленина 5",
		Date:             "24.05.2025",
		TimeHHMM:         "09:05",
		Price:            1000,
	}
}

func TestRegister_IsIdempotentPerExternalID(t *testing.T) {
	f := newServiceFixture(t)

	first := f.registerUser(t, 42)
	second := f.registerUser(t, 42)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, user.RoleCustomer, first.Role)
	assert.Len(t, f.dir.rows, 1)
}

func TestCreateFromDraft_PersistsPendingAndPublishes(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	res, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)

	assert.Equal(t, reservation.StatusPending, res.Status())
	assert.NotZero(t, res.ID())
	require.NotNil(t, res.ScheduledAt())
	expected := time.Date(2025, 5, 24, 9, 5, 0, 0, time.Local)
	assert.True(t, res.ScheduledAt().Equal(expected))

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.TopicReservationEvents, f.publisher.topics[0])
	assert.Equal(t, events.ReservationRequested, f.publisher.published[0].Type)
	assert.Equal(t, strconv.FormatInt(res.ID(), 10), f.publisher.published[0].Subject)

	var payload events.ReservationEvent
	require.NoError(t, f.publisher.published[0].ParseData(&payload))
	assert.Equal(t, res.ID(), payload.ReservationID)
	assert.Equal(t, int64(1000), payload.Price)
}

func TestCreateFromDraft_IncompleteDraftRejected(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	draft := validDraft()
	draft.Date = ""

	_, err := f.svc.CreateFromDraft(context.Background(), 42, draft)
	assert.True(t, errs.IsValidation(err))
	assert.Empty(t, f.repo.rows)
	assert.Empty(t, f.publisher.published)
}

func TestCreateFromDraft_UnknownUser(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	assert.True(t, errs.IsNotFound(err))
}

func TestCancel_SettlesRefundBeforeStateChange(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	res, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)

	outcome, err := f.svc.Cancel(context.Background(), 42, res.ID())
	require.NoError(t, err)
	assert.False(t, outcome.AlreadyCancelled)
	assert.Equal(t, reservation.RefundFull, outcome.Decision)

	stored, err := f.repo.FindByID(context.Background(), res.ID())
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, stored.Status())

	// requested + cancelled
	require.Len(t, f.publisher.published, 2)
	assert.Equal(t, events.ReservationCancelled, f.publisher.published[1].Type)
}

func TestCancel_RepeatedCancelHasNoSideEffects(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	res, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), 42, res.ID())
	require.NoError(t, err)
	publishedBefore := len(f.publisher.published)

	outcome, err := f.svc.Cancel(context.Background(), 42, res.ID())
	require.NoError(t, err)
	assert.True(t, outcome.AlreadyCancelled)
	assert.Len(t, f.publisher.published, publishedBefore)
}

func TestCancel_ForeignReservationForbidden(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)
	f.registerUser(t, 43)

	res, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), 43, res.ID())
	assert.True(t, errs.IsForbidden(err))

	stored, err := f.repo.FindByID(context.Background(), res.ID())
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusPending, stored.Status())
}

func TestCancel_MissingReservationNotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	_, err := f.svc.Cancel(context.Background(), 42, 9999)
	assert.True(t, errs.IsNotFound(err))
}

func TestApprove_ConfirmsAndPublishes(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	res, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)

	outcome, err := f.svc.Approve(context.Background(), res.ID())
	require.NoError(t, err)
	assert.False(t, outcome.AlreadyConfirmed)
	assert.Equal(t, reservation.StatusConfirmed, outcome.Reservation.Status())

	second, err := f.svc.Approve(context.Background(), res.ID())
	require.NoError(t, err)
	assert.True(t, second.AlreadyConfirmed)

	confirmedEvents := 0
	for _, evt := range f.publisher.published {
		if evt.Type == events.ReservationConfirmed {
			confirmedEvents++
		}
	}
	assert.Equal(t, 1, confirmedEvents)
}

func TestApprove_MissingReservationNotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Approve(context.Background(), 9999)
	assert.True(t, errs.IsNotFound(err))
}

func TestListMine_ExcludesCancelled(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	first, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)
	_, err = f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), 42, first.ID())
	require.NoError(t, err)

	list, err := f.svc.ListMine(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEqual(t, first.ID(), list[0].ID())
}

func TestListActive_AttachesClientContact(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	_, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)

	views, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Иван Иванов", views[0].ClientName)
	assert.Equal(t, "+79991112233", views[0].ClientPhone)
	assert.Equal(t, int64(42), views[0].ClientExternalID)
}

func TestGetStats_CountsPerStatus(t *testing.T) {
	f := newServiceFixture(t)
	f.registerUser(t, 42)

	first, err := f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)
	_, err = f.svc.CreateFromDraft(context.Background(), 42, validDraft())
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), 42, first.ID())
	require.NoError(t, err)

	stats, err := f.svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Cancelled)
}
