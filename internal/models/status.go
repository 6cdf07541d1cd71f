package models

// OrderStatus описывает положение заказа в жизненном цикле.
type OrderStatus string

const (
	// OrderStatusWaitingForProposals — заказ опубликован, ждём отклики специалистов.
	OrderStatusWaitingForProposals OrderStatus = "waiting_for_proposals"
	// OrderStatusWaitingForSelection — есть хотя бы один отклик, заказчик выбирает.
	OrderStatusWaitingForSelection OrderStatus = "waiting_for_selection"
	// OrderStatusWaitingForArrival — отклик выбран, ждём выезда специалиста.
	OrderStatusWaitingForArrival OrderStatus = "waiting_for_arrival"
	// OrderStatusStarted — специалист приступил к работе.
	OrderStatusStarted OrderStatus = "started"
	// OrderStatusCompleted — работа принята заказчиком, оплата ещё не проведена.
	// Статус восстановимый: при неудачном расчёте заказ остаётся здесь,
	// и завершение можно повторить.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusPaid — расчёт проведён, терминальный статус.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCancelled — заказ отменён администратором.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusExpired — окно видимости истекло без единого отклика.
	OrderStatusExpired OrderStatus = "expired"
)

// orderTransitions — полная таблица переходов конечного автомата заказа.
// Переход waiting_for_proposals -> waiting_for_selection срабатывает при
// первом отклике, expired ставит только свипер, cancelled — только админ.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusWaitingForProposals: {OrderStatusWaitingForSelection, OrderStatusExpired, OrderStatusCancelled},
	OrderStatusWaitingForSelection: {OrderStatusWaitingForArrival, OrderStatusCancelled},
	OrderStatusWaitingForArrival:   {OrderStatusStarted, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusStarted:             {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:           {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:                {},
	OrderStatusCancelled:           {},
	OrderStatusExpired:             {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет исходящих переходов.
func (s OrderStatus) IsTerminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo проверяет допустимость перехода по таблице.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsProposals сообщает, принимает ли заказ новые отклики в этом статусе.
// Окно видимости проверяется отдельно.
func (s OrderStatus) AcceptsProposals() bool {
	return s == OrderStatusWaitingForProposals || s == OrderStatusWaitingForSelection
}
