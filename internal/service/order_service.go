package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adukenov/uslugi-backend/internal/models"
	"github.com/adukenov/uslugi-backend/internal/pkg/apperror"
	"github.com/adukenov/uslugi-backend/internal/pkg/clock"
	"github.com/adukenov/uslugi-backend/internal/repository"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	ListAvailable(ctx context.Context, subServiceIDs []uuid.UUID, now time.Time) ([]models.Order, error)
	CreateProposal(ctx context.Context, proposal *models.Proposal) error
	GetProposalByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListProposals(ctx context.Context, orderID uuid.UUID) ([]models.Proposal, error)
	SelectProposal(ctx context.Context, orderID, proposalID uuid.UUID, now time.Time) error
	UpdateStatusIf(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error)
}

// OrderSettler проводит денежный расчёт по завершённому заказу.
type OrderSettler interface {
	SettleOrder(ctx context.Context, orderID, customerID, specialistID uuid.UUID, gross decimal.Decimal) (*models.Transaction, *models.Transaction, error)
}

// CreateOrderInput — данные нового заказа.
type CreateOrderInput struct {
	SubServiceID   uuid.UUID
	Description    string
	SuggestedPrice decimal.Decimal
	ScheduledDate  time.Time
	Address        *string
	// VisibleUntil задаёт окно видимости явно; если nil, окно считается
	// от срока жизни подуслуги.
	VisibleUntil *time.Time
}

// SubmitProposalInput — данные отклика специалиста.
type SubmitProposalInput struct {
	ProposedPrice     decimal.Decimal
	EstimatedDuration time.Duration
}

// OrderService реализует жизненный цикл заказа: от публикации до оплаты.
// Все смены статуса идут через условные обновления репозитория, поэтому
// конкурирующие запросы не могут провести заказ по недопустимому пути.
type OrderService struct {
	orders  OrderRepository
	catalog CatalogRepository
	settler OrderSettler
	clock   clock.Clock
}

func NewOrderService(orders OrderRepository, catalog CatalogRepository, settler OrderSettler, clk clock.Clock) *OrderService {
	return &OrderService{
		orders:  orders,
		catalog: catalog,
		settler: settler,
		clock:   clk,
	}
}

// Create публикует новый заказ. Окно видимости считается от срока жизни
// подуслуги: visible_until = now + expiration_hours.
func (s *OrderService) Create(ctx context.Context, customerID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if input.SuggestedPrice.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}
	if input.Description == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание заказа обязательно")
	}

	sub, err := s.catalog.GetSubServiceByID(ctx, input.SubServiceID)
	if errors.Is(err, repository.ErrSubServiceNotFound) {
		return nil, apperror.ErrSubServiceNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	visibleUntil := now.Add(time.Duration(sub.ExpirationHours) * time.Hour)
	if input.VisibleUntil != nil {
		if !input.VisibleUntil.After(now) {
			return nil, apperror.New(apperror.ErrCodeValidation, "окно видимости должно быть в будущем")
		}
		visibleUntil = *input.VisibleUntil
	}

	order := &models.Order{
		CustomerID:     customerID,
		SubServiceID:   sub.ID,
		Description:    input.Description,
		SuggestedPrice: input.SuggestedPrice,
		Status:         models.OrderStatusWaitingForProposals,
		ScheduledDate:  input.ScheduledDate,
		Address:        input.Address,
		VisibleUntil:   visibleUntil,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder возвращает заказ. Заказ видят его заказчик, администратор и
// специалисты, откликнувшиеся на него.
func (s *OrderService) GetOrder(ctx context.Context, viewerID uuid.UUID, role string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsOwnedBy(viewerID) || role == models.RoleAdmin {
		return order, nil
	}
	if role == models.RoleSpecialist {
		proposals, err := s.orders.ListProposals(ctx, orderID)
		if err != nil {
			return nil, err
		}
		for _, p := range proposals {
			if p.SpecialistID == viewerID {
				return order, nil
			}
		}
		// Витринные заказы специалист видит и без отклика.
		if order.Status == models.OrderStatusWaitingForProposals && order.VisibleUntil.After(s.clock.Now()) {
			return order, nil
		}
	}
	return nil, apperror.ErrOrderNotFound
}

// ListMyOrders возвращает заказы заказчика, новые первыми.
func (s *OrderService) ListMyOrders(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListAvailable возвращает витрину для специалиста: открытые заказы в рамках
// его подуслуг с ещё не истёкшим окном видимости, старые первыми.
func (s *OrderService) ListAvailable(ctx context.Context, specialistID uuid.UUID) ([]models.Order, error) {
	subServiceIDs, err := s.catalog.ListSpecialistSubServiceIDs(ctx, specialistID)
	if err != nil {
		return nil, err
	}
	if len(subServiceIDs) == 0 {
		return []models.Order{}, nil
	}
	return s.orders.ListAvailable(ctx, subServiceIDs, s.clock.Now())
}

// SubmitProposal регистрирует отклик специалиста. Первый отклик переводит
// заказ из waiting_for_proposals в waiting_for_selection в той же транзакции,
// что и вставка отклика.
func (s *OrderService) SubmitProposal(ctx context.Context, specialistID, orderID uuid.UUID, input SubmitProposalInput) (*models.Proposal, error) {
	if input.ProposedPrice.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}
	// Срок хранится в целых минутах.
	if input.EstimatedDuration < time.Minute {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок выполнения должен быть не меньше минуты")
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsOwnedBy(specialistID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя откликнуться на собственный заказ")
	}
	if !order.Status.AcceptsProposals() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ больше не принимает отклики")
	}
	if order.Status == models.OrderStatusWaitingForProposals && !order.VisibleUntil.After(s.clock.Now()) {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "срок подачи откликов истёк")
	}

	allowed, err := s.catalog.HasCapability(ctx, specialistID, order.SubServiceID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.New(apperror.ErrCodeForbidden, "подуслуга заказа не входит в ваш профиль")
	}

	proposal := &models.Proposal{
		OrderID:          orderID,
		SpecialistID:     specialistID,
		ProposedPrice:    input.ProposedPrice,
		EstimatedMinutes: int64(input.EstimatedDuration / time.Minute),
	}
	if err := s.orders.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// ListProposals возвращает отклики по заказу. Доступно заказчику и
// администратору.
func (s *OrderService) ListProposals(ctx context.Context, viewerID uuid.UUID, role string, orderID uuid.UUID) ([]models.Proposal, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(viewerID) && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return s.orders.ListProposals(ctx, orderID)
}

// SelectProposal фиксирует выбор исполнителя. Заказ переходит в
// waiting_for_arrival, окно видимости закрывается.
func (s *OrderService) SelectProposal(ctx context.Context, customerID, orderID, proposalID uuid.UUID) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(customerID) {
		return nil, apperror.ErrForbidden
	}

	proposal, err := s.orders.GetProposalByID(ctx, proposalID)
	if errors.Is(err, repository.ErrProposalNotFound) {
		return nil, apperror.ErrProposalNotFound
	}
	if err != nil {
		return nil, err
	}
	// Отклик чужого заказа неотличим от несуществующего.
	if proposal.OrderID != orderID {
		return nil, apperror.ErrProposalNotFound
	}

	err = s.orders.SelectProposal(ctx, orderID, proposalID, s.clock.Now())
	if errors.Is(err, repository.ErrOrderStateChanged) {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ не находится в стадии выбора исполнителя")
	}
	if err != nil {
		return nil, err
	}
	return s.getOrder(ctx, orderID)
}

// Start отмечает прибытие исполнителя. Доступно только выбранному
// специалисту.
func (s *OrderService) Start(ctx context.Context, specialistID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	proposal, err := s.selectedProposal(ctx, order)
	if err != nil {
		return nil, err
	}
	if proposal.SpecialistID != specialistID {
		return nil, apperror.ErrForbidden
	}

	ok, err := s.orders.UpdateStatusIf(ctx, orderID,
		[]models.OrderStatus{models.OrderStatusWaitingForArrival}, models.OrderStatusStarted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ нельзя начать из текущего статуса")
	}
	return s.getOrder(ctx, orderID)
}

// Complete подтверждает выполнение и запускает расчёт. Если списание не
// удалось (например, не хватило средств), заказ остаётся в статусе
// completed и оплату можно повторить этим же вызовом.
func (s *OrderService) Complete(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, *models.Transaction, *models.Transaction, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !order.IsOwnedBy(customerID) {
		return nil, nil, nil, apperror.ErrForbidden
	}

	switch order.Status {
	case models.OrderStatusWaitingForArrival, models.OrderStatusStarted:
		ok, err := s.orders.UpdateStatusIf(ctx, orderID,
			[]models.OrderStatus{models.OrderStatusWaitingForArrival, models.OrderStatusStarted},
			models.OrderStatusCompleted)
		if err != nil {
			return nil, nil, nil, err
		}
		if !ok {
			return nil, nil, nil, apperror.New(apperror.ErrCodeInvalidState, "заказ нельзя завершить из текущего статуса")
		}
	case models.OrderStatusCompleted:
		// Повторная попытка оплаты после неудачного расчёта.
	default:
		return nil, nil, nil, apperror.New(apperror.ErrCodeInvalidState, "заказ нельзя завершить из текущего статуса")
	}

	proposal, err := s.selectedProposal(ctx, order)
	if err != nil {
		return nil, nil, nil, err
	}

	// Расчёт идёт по заявленной цене заказа, цена отклика на сумму не влияет.
	debit, credit, err := s.settler.SettleOrder(ctx, orderID, order.CustomerID, proposal.SpecialistID, order.SuggestedPrice)
	if err != nil {
		return nil, nil, nil, err
	}

	updated, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	return updated, debit, credit, nil
}

// Cancel снимает заказ. Доступно только администратору, терминальные статусы
// не отменяются.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(models.OrderStatusCancelled) {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ уже в конечном статусе")
	}

	ok, err := s.orders.UpdateStatusIf(ctx, orderID, []models.OrderStatus{
		models.OrderStatusWaitingForProposals,
		models.OrderStatusWaitingForSelection,
		models.OrderStatusWaitingForArrival,
		models.OrderStatusStarted,
		models.OrderStatusCompleted,
	}, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ уже в конечном статусе")
	}
	return s.getOrder(ctx, orderID)
}

func (s *OrderService) getOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, apperror.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) selectedProposal(ctx context.Context, order *models.Order) (*models.Proposal, error) {
	if order.SelectedProposalID == nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "исполнитель по заказу ещё не выбран")
	}
	proposal, err := s.orders.GetProposalByID(ctx, *order.SelectedProposalID)
	if errors.Is(err, repository.ErrProposalNotFound) {
		return nil, apperror.ErrProposalNotFound
	}
	if err != nil {
		return nil, err
	}
	return proposal, nil
}
