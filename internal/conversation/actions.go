package conversation

import (
	"strconv"
	"strings"
)

// Action is a closed set of tagged menu actions. Display labels are mapped to
// actions in exactly one place so control flow never compares raw display text.
type Action string

const (
	ActionBook           Action = "book"
	ActionMyReservations Action = "my_reservations"
	ActionProfile        Action = "profile"
	ActionBecomeDriver   Action = "become_driver"
	ActionHelp           Action = "help"
	ActionAdminApprove   Action = "admin_approve"
	ActionAdminActive    Action = "admin_active"
	ActionAdminHistory   Action = "admin_history"
	ActionAdminBack      Action = "admin_back"
	// ActionCancelReservation is the inline-button cancellation shortcut.
	ActionCancelReservation Action = "cancel_reservation"
)

var actionLabels = map[Action]string{
	ActionBook:           "🚕 Забронировать поездку",
	ActionMyReservations: "📅 Мои брони",
	ActionProfile:        "👤 Мой профиль",
	ActionBecomeDriver:   "👨‍✈️ Стать водителем",
	ActionHelp:           "ℹ️ Помощь / Контакты",
	ActionAdminApprove:   "📋 Подтвердить бронь",
	ActionAdminActive:    "📂 Активные брони",
	ActionAdminHistory:   "📜 История броней",
	ActionAdminBack:      "↩️ Назад",
}

// Label returns the display text for the action.
func (a Action) Label() string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

// ActionFromLabel resolves display text to its tagged action.
func ActionFromLabel(text string) (Action, bool) {
	cleaned := strings.TrimSpace(text)
	for a, label := range actionLabels {
		if label == cleaned {
			return a, true
		}
	}
	return "", false
}

// MainMenu is the persistent main menu keyboard.
func MainMenu() [][]string {
	return [][]string{
		{ActionBook.Label(), ActionMyReservations.Label()},
		{ActionProfile.Label(), ActionBecomeDriver.Label()},
		{ActionHelp.Label()},
	}
}

// AdminMenu is the admin panel keyboard.
func AdminMenu() [][]string {
	return [][]string{
		{ActionAdminApprove.Label()},
		{ActionAdminActive.Label(), ActionAdminHistory.Label()},
		{ActionAdminBack.Label()},
	}
}

// ParseCancelCommand recognizes the two textual cancellation surfaces:
// "Отменить <id>" from the menu flow and the direct "/cancel_<id>" command.
func ParseCancelCommand(text string) (int64, bool) {
	cleaned := strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(cleaned, "/cancel_"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}

	if rest, ok := strings.CutPrefix(cleaned, "Отменить"); ok {
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return 0, false
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}

	return 0, false
}

// IsCancelCommandPrefix reports whether text starts a cancellation command,
// well-formed or not, so the router can answer junk ids with usage help.
func IsCancelCommandPrefix(text string) bool {
	cleaned := strings.TrimSpace(text)
	return strings.HasPrefix(cleaned, "Отменить") || strings.HasPrefix(cleaned, "/cancel_")
}
