package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kama-line/service-reservation/internal/domain/errs"
	"github.com/kama-line/service-reservation/internal/domain/user"
)

// enterAdmin gates the admin workflow behind the role check. Non-admins get a
// terminal rejection and no admin state is entered.
func (e *Engine) enterAdmin(ctx context.Context, upd Update, usr *user.User, sess *Session, action Action) ([]Reply, error) {
	if !usr.IsAdmin() {
		return []Reply{{Text: "🚫 У вас нет прав администратора.", Keyboard: MainMenu()}}, nil
	}
	return e.runAdminAction(ctx, upd.UserID, sess, action)
}

// handleAdminStep processes one message inside the admin workflow.
func (e *Engine) handleAdminStep(ctx context.Context, upd Update, usr *user.User, sess *Session) ([]Reply, error) {
	if !usr.IsAdmin() {
		// Role revoked mid-session: drop the admin state.
		if err := e.store.Delete(ctx, upd.UserID); err != nil {
			e.logger.Warn("failed to discard admin session", zap.Error(err))
		}
		return []Reply{{Text: "🚫 У вас нет прав администратора.", Keyboard: MainMenu()}}, nil
	}

	if sess.State == StateAdminAwaitID {
		return e.approveByID(ctx, upd, sess)
	}

	action, ok := ActionFromLabel(upd.Text)
	if !ok {
		return []Reply{{Text: "🔐 Добро пожаловать в админ-панель.", Keyboard: AdminMenu()}}, nil
	}
	return e.runAdminAction(ctx, upd.UserID, sess, action)
}

// runAdminAction executes one admin menu action and records the resulting state.
func (e *Engine) runAdminAction(ctx context.Context, userID int64, sess *Session, action Action) ([]Reply, error) {
	switch action {
	case ActionAdminApprove:
		sess.State = StateAdminAwaitID
		if err := e.saveSession(ctx, userID, sess); err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
		}
		return []Reply{{Text: "🔢 Введите ID брони для подтверждения:"}}, nil

	case ActionAdminActive:
		replies, err := e.listAdmin(ctx, true)
		if err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже.", Keyboard: AdminMenu()}}, nil
		}
		sess.State = StateAdminMenu
		if err := e.saveSession(ctx, userID, sess); err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
		}
		return replies, nil

	case ActionAdminHistory:
		replies, err := e.listAdmin(ctx, false)
		if err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже.", Keyboard: AdminMenu()}}, nil
		}
		sess.State = StateAdminMenu
		if err := e.saveSession(ctx, userID, sess); err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
		}
		return replies, nil

	case ActionAdminBack:
		sess.Reset()
		if err := e.store.Delete(ctx, userID); err != nil {
			e.logger.Warn("failed to discard admin session", zap.Error(err))
		}
		return []Reply{{Text: "🔙 Возвращение в главное меню.", Keyboard: MainMenu()}}, nil

	default:
		sess.State = StateAdminMenu
		if err := e.saveSession(ctx, userID, sess); err != nil {
			return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
		}
		return []Reply{{Text: "🔐 Добро пожаловать в админ-панель.", Keyboard: AdminMenu()}}, nil
	}
}

// listAdmin renders either the active listing or the 30 most recent
// reservations of any status, both ordered by scheduled time descending.
func (e *Engine) listAdmin(ctx context.Context, activeOnly bool) ([]Reply, error) {
	var (
		rows  []Reply
		empty string
	)
	if activeOnly {
		views, err := e.svc.ListActive(ctx)
		if err != nil {
			e.logger.Error("failed to list active reservations", zap.Error(err))
			return nil, err
		}
		for _, v := range views {
			rows = append(rows, Reply{Text: formatAdminRow(v)})
		}
		empty = "📭 Нет активных броней."
	} else {
		views, err := e.svc.ListHistory(ctx, historyLimit)
		if err != nil {
			e.logger.Error("failed to list reservation history", zap.Error(err))
			return nil, err
		}
		for _, v := range views {
			rows = append(rows, Reply{Text: formatAdminRow(v)})
		}
		empty = "📭 История пуста."
	}

	if len(rows) == 0 {
		return []Reply{{Text: empty, Keyboard: AdminMenu()}}, nil
	}
	return rows, nil
}

// approveByID parses the typed reservation id and runs the approval. Junk
// input re-prompts in place; an absent id keeps the admin in the same state.
func (e *Engine) approveByID(ctx context.Context, upd Update, sess *Session) ([]Reply, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(upd.Text), 10, 64)
	if err != nil {
		return []Reply{{Text: "❌ Введите корректный ID."}}, nil
	}

	outcome, err := e.svc.Approve(ctx, id)
	if err != nil {
		if errs.IsNotFound(err) {
			return []Reply{{Text: "❌ Бронь не найдена."}}, nil
		}
		e.logger.Error("failed to approve reservation", zap.Int64("reservation_id", id), zap.Error(err))
		return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже.", Keyboard: AdminMenu()}}, nil
	}

	sess.State = StateAdminMenu
	if err := e.saveSession(ctx, upd.UserID, sess); err != nil {
		return []Reply{{Text: "⚠️ Ошибка сервера. Повторите позже."}}, nil
	}

	if outcome.AlreadyConfirmed {
		return []Reply{{Text: "✅ Бронь уже подтверждена.", Keyboard: AdminMenu()}}, nil
	}
	return []Reply{{Text: fmt.Sprintf("✅ Бронь #%d подтверждена.", id), Keyboard: AdminMenu()}}, nil
}
