package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kama-line/service-reservation/internal/domain/catalog"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
)

// timePattern accepts one- or two-digit hour and minute components.
var timePattern = regexp.MustCompile(`^\d{1,2}:\d{1,2}$`)

// keyboardRowSize is the number of catalog points per keyboard row.
const keyboardRowSize = 2

// StepResult is the outcome of consuming one inbound message in the booking
// flow: the next state, the single reply, and whether the draft is ready to
// commit or the flow was aborted.
type StepResult struct {
	Next    State
	Reply   Reply
	Confirm bool
	Abort   bool
}

// Machine drives the ordered booking conversation. Each transition consumes
// exactly one inbound message and produces at most one reply plus a next
// state. Out-of-grammar input never advances the state and never loses
// previously captured draft fields. The machine carries no transport or
// storage dependency so it is testable in isolation.
type Machine struct {
	catalog *catalog.Catalog
	network catalog.Network
	flow    catalog.Flow
	now     func() time.Time
}

// MachineOption customizes a Machine.
type MachineOption func(*Machine)

// WithClock overrides the machine's clock, used by the date validation.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

// NewMachine creates a booking conversation machine over the given catalog,
// two-city network and flow configuration.
func NewMachine(c *catalog.Catalog, n catalog.Network, f catalog.Flow, opts ...MachineOption) *Machine {
	m := &Machine{catalog: c, network: n, flow: f, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Flow returns the active flow configuration.
func (m *Machine) Flow() catalog.Flow {
	return m.flow
}

// Entry returns the first state of the booking flow and its prompt.
func (m *Machine) Entry() (State, Reply) {
	return StateChooseType, Reply{
		Text:     "🚕 Выберите способ поездки:",
		Keyboard: [][]string{reservation.RideTypeLabels()},
	}
}

// Step consumes one inbound message for the given booking state, mutating the
// draft only when the input is accepted.
func (m *Machine) Step(state State, draft *Draft, input string) StepResult {
	switch state {
	case StateChooseType:
		return m.stepChooseType(draft, input)
	case StateChooseDirection:
		return m.stepChooseDirection(draft, input)
	case StateEnterOrigin:
		return m.stepEnterOrigin(draft, input)
	case StateEnterDestination:
		return m.stepEnterDestination(draft, input)
	case StateEnterDate:
		return m.stepEnterDate(draft, input)
	case StateEnterTime:
		return m.stepEnterTime(draft, input)
	case StateConfirm:
		return m.stepConfirm(draft, input)
	default:
		return StepResult{Next: state, Reply: Reply{Text: "⛔ Действие отменено.", Keyboard: MainMenu()}, Abort: true}
	}
}

func (m *Machine) stepChooseType(draft *Draft, input string) StepResult {
	rideType, ok := reservation.RideTypeFromLabel(strings.TrimSpace(input))
	if !ok {
		return StepResult{Next: StateChooseType, Reply: Reply{
			Text:     "🚕 Выберите способ поездки:",
			Keyboard: [][]string{reservation.RideTypeLabels()},
		}}
	}
	draft.RideType = rideType
	return StepResult{Next: StateChooseDirection, Reply: Reply{
		Text: fmt.Sprintf("🏙 Откуда вы едете? Введите '%s' или '%s'", m.network.CatalogCity, m.network.OpenCity),
	}}
}

func (m *Machine) stepChooseDirection(draft *Draft, input string) StepResult {
	fromCity, ok := m.network.Normalize(input)
	if !ok {
		return StepResult{Next: StateChooseDirection, Reply: Reply{
			Text: fmt.Sprintf("❌ Мы работаем только между городами %s и %s.", m.network.CatalogCity, m.network.OpenCity),
		}}
	}
	draft.FromCity = fromCity
	draft.ToCity = m.network.Other(fromCity)

	if m.flow.CollapseCityStep {
		// Collapsed variant: the open-side endpoint is the city itself and the
		// only selection left is the catalog point on the priced side.
		if m.network.IsCatalogSide(draft.FromCity) {
			draft.DestinationPoint = draft.ToCity
			return StepResult{Next: StateEnterOrigin, Reply: m.pointPrompt("📍 Выберите точку отправления в %s:")}
		}
		draft.PickupPoint = draft.FromCity
		return StepResult{Next: StateEnterDestination, Reply: m.pointPrompt("📍 Выберите точку назначения в %s:")}
	}

	if m.network.IsCatalogSide(draft.FromCity) {
		return StepResult{Next: StateEnterOrigin, Reply: m.pointPrompt("📍 Выберите точку отправления в %s:")}
	}
	return StepResult{Next: StateEnterOrigin, Reply: Reply{
		Text: fmt.Sprintf("📍 Укажите адрес, откуда вас забрать в городе %s:", draft.FromCity),
	}}
}

func (m *Machine) stepEnterOrigin(draft *Draft, input string) StepResult {
	text := strings.TrimSpace(input)

	if m.network.IsCatalogSide(draft.FromCity) {
		price, ok := m.catalog.Price(text)
		if !ok {
			return StepResult{Next: StateEnterOrigin, Reply: Reply{
				Text:     "❌ Выберите корректную точку из списка.",
				Keyboard: m.catalog.Rows(keyboardRowSize),
			}}
		}
		draft.PickupPoint = text
		draft.Price = price

		if m.flow.CollapseCityStep {
			return m.afterEndpoints(draft)
		}
		return StepResult{Next: StateEnterDestination, Reply: Reply{
			Text: fmt.Sprintf("🏠 Укажите точный адрес назначения в городе %s:", draft.ToCity),
		}}
	}

	if text == "" {
		return StepResult{Next: StateEnterOrigin, Reply: Reply{
			Text: fmt.Sprintf("📍 Укажите адрес, откуда вас забрать в городе %s:", draft.FromCity),
		}}
	}
	draft.PickupPoint = text
	return StepResult{Next: StateEnterDestination, Reply: m.pointPrompt("📍 Выберите точку назначения в %s:")}
}

func (m *Machine) stepEnterDestination(draft *Draft, input string) StepResult {
	text := strings.TrimSpace(input)

	if m.network.IsCatalogSide(draft.ToCity) {
		price, ok := m.catalog.Price(text)
		if !ok {
			return StepResult{Next: StateEnterDestination, Reply: Reply{
				Text:     "❌ Выберите корректную точку назначения из списка.",
				Keyboard: m.catalog.Rows(keyboardRowSize),
			}}
		}
		draft.DestinationPoint = text
		draft.Price = price
		return m.afterEndpoints(draft)
	}

	if text == "" {
		return StepResult{Next: StateEnterDestination, Reply: Reply{
			Text: fmt.Sprintf("🏠 Укажите точный адрес назначения в городе %s:", draft.ToCity),
		}}
	}
	draft.DestinationPoint = text
	return m.afterEndpoints(draft)
}

// afterEndpoints routes to the date step or straight to the time step,
// depending on the flow configuration.
func (m *Machine) afterEndpoints(draft *Draft) StepResult {
	if m.flow.RequireDate {
		return StepResult{Next: StateEnterDate, Reply: Reply{
			Text: "📅 Введите дату поездки (ДД.ММ.ГГГГ):",
		}}
	}
	return StepResult{Next: StateEnterTime, Reply: Reply{
		Text: "🕒 Когда вы хотите быть на месте? (в формате HH:MM, например, 09:30)",
	}}
}

func (m *Machine) stepEnterDate(draft *Draft, input string) StepResult {
	text := strings.TrimSpace(input)

	day, err := time.ParseInLocation(dateInputLayout, text, time.Local)
	if err != nil {
		return StepResult{Next: StateEnterDate, Reply: Reply{
			Text: "❌ Введите дату в формате ДД.ММ.ГГГГ (например, 24.05.2025)",
		}}
	}

	now := m.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if day.Before(today) {
		return StepResult{Next: StateEnterDate, Reply: Reply{
			Text: "❌ Введите дату в формате ДД.ММ.ГГГГ (например, 24.05.2025)",
		}}
	}

	draft.Date = day.Format(dateLayout)
	return StepResult{Next: StateEnterTime, Reply: Reply{
		Text: "🕒 Когда вы хотите быть на месте? (в формате HH:MM, например, 09:30)",
	}}
}

func (m *Machine) stepEnterTime(draft *Draft, input string) StepResult {
	normalized, ok := NormalizeTime(input)
	if !ok {
		return StepResult{Next: StateEnterTime, Reply: Reply{
			Text: "❗ Введите время в формате HH:MM (например, 08:45)",
		}}
	}
	draft.TimeHHMM = normalized

	dateLine := ""
	if draft.Date != "" {
		dateLine = fmt.Sprintf("Дата: %s\n", draft.Date)
	}
	summary := fmt.Sprintf(
		"🔒 Подтвердите бронирование:\n\n"+
			"Тип: %s\n"+
			"Из: %s (%s)\n"+
			"В: %s (%s)\n"+
			"%s"+
			"Время: %s\n"+
			"💰 Стоимость: %d р\n\n"+
			"Напишите 'Подтверждаю' или 'Отмена'",
		draft.RideType.DisplayLabel(),
		draft.FromCity, draft.PickupPoint,
		draft.ToCity, draft.DestinationPoint,
		dateLine,
		draft.TimeHHMM,
		draft.Price,
	)
	return StepResult{Next: StateConfirm, Reply: Reply{Text: summary}}
}

func (m *Machine) stepConfirm(draft *Draft, input string) StepResult {
	if !strings.EqualFold(strings.TrimSpace(input), "подтверждаю") {
		return StepResult{
			Next:  StateIdle,
			Reply: Reply{Text: "❌ Бронирование отменено.", Keyboard: MainMenu()},
			Abort: true,
		}
	}
	return StepResult{Next: StateConfirm, Confirm: true}
}

func (m *Machine) pointPrompt(format string) Reply {
	return Reply{
		Text:     fmt.Sprintf(format, m.network.CatalogCity),
		Keyboard: m.catalog.Rows(keyboardRowSize),
	}
}

// NormalizeTime validates hour:minute input, accepting one- or two-digit
// components, and normalizes it to the zero-padded HH:MM form.
func NormalizeTime(input string) (string, bool) {
	text := strings.TrimSpace(input)
	if !timePattern.MatchString(text) {
		return "", false
	}
	parts := strings.SplitN(text, ":", 2)
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), true
}
