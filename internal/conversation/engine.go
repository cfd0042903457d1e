package conversation

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kama-line/service-reservation/internal/domain/errs"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
	"github.com/kama-line/service-reservation/internal/domain/user"
)

// Service is the reservation lifecycle contract the engine drives. Implemented
// by the application layer.
type Service interface {
	Resolve(ctx context.Context, externalID int64) (*user.User, error)
	Register(ctx context.Context, externalID int64, fullName, phone string) (*user.User, error)
	CreateFromDraft(ctx context.Context, externalID int64, draft Draft) (*reservation.Reservation, error)
	Cancel(ctx context.Context, externalID, reservationID int64) (*reservation.CancelOutcome, error)
	Approve(ctx context.Context, reservationID int64) (*reservation.ApproveOutcome, error)
	ListMine(ctx context.Context, externalID int64) ([]*reservation.Reservation, error)
	ListActive(ctx context.Context) ([]reservation.AdminView, error)
	ListHistory(ctx context.Context, limit int) ([]reservation.AdminView, error)
}

// Store holds one session per user. Implementations must return (nil, nil)
// when no session exists.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, userID int64, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

// historyLimit caps the admin history listing.
const historyLimit = 30

// Engine routes inbound updates to the booking machine, the admin workflow or
// the menu, one atomic unit of work per message. Messages for the same user
// are serialised; different users never block each other.
type Engine struct {
	machine *Machine
	store   Store
	svc     Service
	logger  *zap.Logger

	locks sync.Map // userID -> *sync.Mutex
}

// NewEngine creates a conversation engine.
func NewEngine(machine *Machine, store Store, svc Service, logger *zap.Logger) *Engine {
	return &Engine{machine: machine, store: store, svc: svc, logger: logger}
}

// HandleUpdate processes one inbound update and returns the replies to send.
func (e *Engine) HandleUpdate(ctx context.Context, upd Update) ([]Reply, error) {
	lock := e.userLock(upd.UserID)
	lock.Lock()
	defer lock.Unlock()

	if upd.Callback != nil {
		return e.handleCallback(ctx, upd)
	}

	usr, err := e.svc.Resolve(ctx, upd.UserID)
	if err != nil {
		if errs.IsNotFound(err) {
			return e.handleUnregistered(ctx, upd)
		}
		e.logger.Error("failed to resolve user",
			zap.Int64("user_id", upd.UserID),
			zap.Error(err),
		)
		return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже.", Keyboard: MainMenu()}}, nil
	}

	sess, err := e.loadSession(ctx, upd.UserID)
	if err != nil {
		return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже.", Keyboard: MainMenu()}}, nil
	}

	switch {
	case sess.State.IsBooking():
		return e.handleBookingStep(ctx, upd, sess)
	case sess.State.IsAdmin():
		return e.handleAdminStep(ctx, upd, usr, sess)
	default:
		return e.handleMenu(ctx, upd, usr, sess)
	}
}

// handleUnregistered runs first-contact registration: the user is asked to
// share a phone number; a contact payload completes the registration.
func (e *Engine) handleUnregistered(ctx context.Context, upd Update) ([]Reply, error) {
	if upd.Phone == "" {
		sess := NewSession()
		sess.State = StateAwaitPhone
		if err := e.saveSession(ctx, upd.UserID, sess); err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
		}
		return []Reply{{
			Text:           "📱 Пожалуйста, подтвердите номер телефона:",
			Keyboard:       [][]string{{"📞 Отправить номер телефона"}},
			RequestContact: true,
		}}, nil
	}

	if _, err := e.svc.Register(ctx, upd.UserID, upd.FullName, upd.Phone); err != nil {
		e.logger.Error("failed to register user",
			zap.Int64("user_id", upd.UserID),
			zap.Error(err),
		)
		return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
	}

	if err := e.store.Delete(ctx, upd.UserID); err != nil {
		e.logger.Warn("failed to clear session after registration", zap.Error(err))
	}
	return []Reply{{Text: "✅ Номер подтверждён. Выберите действие:", Keyboard: MainMenu()}}, nil
}

// handleBookingStep advances the booking machine by one message.
func (e *Engine) handleBookingStep(ctx context.Context, upd Update, sess *Session) ([]Reply, error) {
	res := e.machine.Step(sess.State, &sess.Draft, upd.Text)

	switch {
	case res.Confirm:
		return e.commitDraft(ctx, upd.UserID, sess)

	case res.Abort:
		if err := e.store.Delete(ctx, upd.UserID); err != nil {
			e.logger.Warn("failed to discard session", zap.Error(err))
		}
		return []Reply{res.Reply}, nil

	default:
		sess.State = res.Next
		if err := e.saveSession(ctx, upd.UserID, sess); err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
		}
		return []Reply{res.Reply}, nil
	}
}

// commitDraft persists the confirmed draft as one pending reservation. On any
// failure the draft and state are preserved unchanged so the user may re-send
// the confirmation; there is no automatic retry.
func (e *Engine) commitDraft(ctx context.Context, userID int64, sess *Session) ([]Reply, error) {
	res, err := e.svc.CreateFromDraft(ctx, userID, sess.Draft)
	if err != nil {
		e.logger.Error("failed to create reservation",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		if errs.IsNotFound(err) {
			return []Reply{{Text: "⚠️ Пользователь не найден. Попробуйте /start заново."}}, nil
		}
		return []Reply{{Text: "❌ Ошибка при бронировании. Попробуйте позже."}}, nil
	}

	if err := e.store.Delete(ctx, userID); err != nil {
		e.logger.Warn("failed to clear session after booking", zap.Error(err))
	}

	e.logger.Info("reservation created",
		zap.Int64("user_id", userID),
		zap.Int64("reservation_id", res.ID()),
	)
	return []Reply{{
		Text:     "✅ Ваша заявка принята! Ожидайте подтверждения от администратора.",
		Keyboard: MainMenu(),
	}}, nil
}

// handleMenu routes an idle-state message through the tagged action set.
func (e *Engine) handleMenu(ctx context.Context, upd Update, usr *user.User, sess *Session) ([]Reply, error) {
	if id, ok := ParseCancelCommand(upd.Text); ok {
		return []Reply{e.doCancel(ctx, upd.UserID, id)}, nil
	}
	if IsCancelCommandPrefix(upd.Text) {
		return []Reply{{
			Text:     "❌ Укажите ID брони корректно. Пример: Отменить 123",
			Keyboard: MainMenu(),
		}}, nil
	}

	action, ok := ActionFromLabel(upd.Text)
	if !ok {
		return []Reply{{Text: "Добро пожаловать! Выберите действие:", Keyboard: MainMenu()}}, nil
	}

	switch action {
	case ActionBook:
		state, reply := e.machine.Entry()
		sess.Draft = Draft{}
		sess.State = state
		if err := e.saveSession(ctx, upd.UserID, sess); err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
		}
		return []Reply{reply}, nil

	case ActionMyReservations:
		return e.listMine(ctx, upd.UserID)

	case ActionProfile:
		return []Reply{{
			Text:     fmt.Sprintf("👤 Ваш профиль:\n\nИмя: %s\nТелефон: %s", usr.FullName, usr.Phone),
			Keyboard: MainMenu(),
		}}, nil

	case ActionBecomeDriver:
		return []Reply{{
			Text:     "🚘 Чтобы стать водителем, свяжитесь с админом: @admin",
			Keyboard: MainMenu(),
		}}, nil

	case ActionHelp:
		return []Reply{{Text: "📞 Поддержка: +7-999-123-4567", Keyboard: MainMenu()}}, nil

	case ActionAdminApprove, ActionAdminActive, ActionAdminHistory:
		return e.enterAdmin(ctx, upd, usr, sess, action)

	default:
		return []Reply{{Text: "Добро пожаловать! Выберите действие:", Keyboard: MainMenu()}}, nil
	}
}

// listMine renders the user's non-cancelled reservations, one reply each,
// with a cancellation button on the active ones.
func (e *Engine) listMine(ctx context.Context, userID int64) ([]Reply, error) {
	list, err := e.svc.ListMine(ctx, userID)
	if err != nil {
		e.logger.Error("failed to list reservations", zap.Int64("user_id", userID), zap.Error(err))
		return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже.", Keyboard: MainMenu()}}, nil
	}
	if len(list) == 0 {
		return []Reply{{Text: "📭 У вас нет активных броней.", Keyboard: MainMenu()}}, nil
	}

	replies := make([]Reply, 0, len(list))
	for i, r := range list {
		timeStr := "время не указано"
		if at := r.ScheduledAt(); at != nil {
			timeStr = at.Format("2006-01-02 15:04")
		}
		reply := Reply{
			Text: fmt.Sprintf(
				"📅 Бронь #%d:\n%s → %s\n⏰ Время: %s | Статус: %s\n\n"+
					"❗ Если до поездки < 12 часов — предоплата не возвращается.",
				i+1, r.PickupPoint(), r.DestinationPoint(), timeStr, r.Status().DisplayLabel(),
			),
		}
		if r.Status().IsActive() {
			reply.Buttons = []Button{{
				Label:         fmt.Sprintf("❌ Отменить бронь #%d", r.ID()),
				Action:        ActionCancelReservation,
				ReservationID: r.ID(),
			}}
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

// handleCallback processes a structured button press. The cancellation button
// shares the exact cancel contract with the textual surfaces.
func (e *Engine) handleCallback(ctx context.Context, upd Update) ([]Reply, error) {
	if upd.Callback.Action != ActionCancelReservation {
		return []Reply{{Text: "❌ Неверная команда.", Keyboard: MainMenu()}}, nil
	}
	return []Reply{e.doCancel(ctx, upd.UserID, upd.Callback.ReservationID)}, nil
}

// doCancel invokes the shared cancellation contract and renders its outcome.
// NotFound and Forbidden collapse into one message so ownership mismatches
// leak nothing beyond "not found or not yours".
func (e *Engine) doCancel(ctx context.Context, userID, reservationID int64) Reply {
	outcome, err := e.svc.Cancel(ctx, userID, reservationID)
	if err != nil {
		if errs.IsNotFound(err) || errs.IsForbidden(err) {
			return Reply{
				Text:     "❌ Бронь не найдена или вы не являетесь её владельцем.",
				Keyboard: MainMenu(),
			}
		}
		e.logger.Error("failed to cancel reservation",
			zap.Int64("user_id", userID),
			zap.Int64("reservation_id", reservationID),
			zap.Error(err),
		)
		return Reply{Text: "⚠️ Ошибка сервера. Повторите позже.", Keyboard: MainMenu()}
	}

	if outcome.AlreadyCancelled {
		return Reply{Text: "ℹ️ Эта бронь уже отменена.", Keyboard: MainMenu()}
	}
	return Reply{
		Text:     fmt.Sprintf("🚫 Бронь #%d успешно отменена.\n%s", reservationID, outcome.Decision.Advisory()),
		Keyboard: MainMenu(),
	}
}

func (e *Engine) loadSession(ctx context.Context, userID int64) (*Session, error) {
	sess, err := e.store.Get(ctx, userID)
	if err != nil {
		e.logger.Error("failed to load session", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	if sess == nil {
		sess = NewSession()
	}
	return sess, nil
}

func (e *Engine) saveSession(ctx context.Context, userID int64, sess *Session) error {
	if err := e.store.Put(ctx, userID, sess); err != nil {
		e.logger.Error("failed to save session", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (e *Engine) userLock(userID int64) *sync.Mutex {
	v, _ := e.locks.Load(userID)
	if v == nil {
		v, _ = e.locks.LoadOrStore(userID, &sync.Mutex{})
	}
	return v.(*sync.Mutex)
}

// formatAdminRow renders one reservation with client contact data for the
// admin listings.
func formatAdminRow(v reservation.AdminView) string {
	timeStr := "время не указано"
	if at := v.Reservation.ScheduledAt(); at != nil {
		timeStr = at.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf(
		"🆔 Бронь #%d\n👤 Клиент: %s\n📞 Телефон: %s\n📅 Время: %s\n📌 Статус: %s",
		v.Reservation.ID(), v.ClientName, v.ClientPhone, timeStr, v.Reservation.Status(),
	)
}
