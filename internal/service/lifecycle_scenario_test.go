package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adukenov/uslugi-backend/internal/models"
	"github.com/adukenov/uslugi-backend/internal/repository"
)

// Фейковые хранилища в памяти для сквозного прогона жизненного цикла.

type memOrderRepo struct {
	orders    map[uuid.UUID]*models.Order
	proposals map[uuid.UUID]*models.Proposal
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders:    make(map[uuid.UUID]*models.Order),
		proposals: make(map[uuid.UUID]*models.Proposal),
	}
}

func (r *memOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *memOrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var result []models.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (r *memOrderRepo) ListAvailable(ctx context.Context, subServiceIDs []uuid.UUID, now time.Time) ([]models.Order, error) {
	allowed := make(map[uuid.UUID]bool, len(subServiceIDs))
	for _, id := range subServiceIDs {
		allowed[id] = true
	}
	var result []models.Order
	for _, order := range r.orders {
		if allowed[order.SubServiceID] &&
			order.Status == models.OrderStatusWaitingForProposals &&
			order.VisibleUntil.After(now) &&
			order.SelectedProposalID == nil {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (r *memOrderRepo) CreateProposal(ctx context.Context, proposal *models.Proposal) error {
	order, ok := r.orders[proposal.OrderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	proposal.ID = uuid.New()
	proposal.CreatedAt = time.Now()
	cp := *proposal
	r.proposals[proposal.ID] = &cp
	if order.Status == models.OrderStatusWaitingForProposals {
		order.Status = models.OrderStatusWaitingForSelection
	}
	return nil
}

func (r *memOrderRepo) GetProposalByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	proposal, ok := r.proposals[id]
	if !ok {
		return nil, repository.ErrProposalNotFound
	}
	cp := *proposal
	return &cp, nil
}

func (r *memOrderRepo) ListProposals(ctx context.Context, orderID uuid.UUID) ([]models.Proposal, error) {
	var result []models.Proposal
	for _, proposal := range r.proposals {
		if proposal.OrderID == orderID {
			result = append(result, *proposal)
		}
	}
	return result, nil
}

func (r *memOrderRepo) SelectProposal(ctx context.Context, orderID, proposalID uuid.UUID, now time.Time) error {
	order, ok := r.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusWaitingForSelection {
		return repository.ErrOrderStateChanged
	}
	order.Status = models.OrderStatusWaitingForArrival
	order.SelectedProposalID = &proposalID
	order.VisibleUntil = now
	return nil
}

func (r *memOrderRepo) UpdateStatusIf(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return false, repository.ErrOrderNotFound
	}
	for _, status := range from {
		if order.Status == status {
			order.Status = to
			return true, nil
		}
	}
	return false, nil
}

type memCatalogRepo struct {
	subServices  map[uuid.UUID]*models.SubService
	capabilities map[uuid.UUID]map[uuid.UUID]bool
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{
		subServices:  make(map[uuid.UUID]*models.SubService),
		capabilities: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *memCatalogRepo) addSubService(expirationHours int) uuid.UUID {
	id := uuid.New()
	r.subServices[id] = &models.SubService{ID: id, ExpirationHours: expirationHours}
	return id
}

func (r *memCatalogRepo) grant(specialistID, subServiceID uuid.UUID) {
	if r.capabilities[specialistID] == nil {
		r.capabilities[specialistID] = make(map[uuid.UUID]bool)
	}
	r.capabilities[specialistID][subServiceID] = true
}

func (r *memCatalogRepo) ListMainServices(ctx context.Context) ([]models.MainService, error) {
	return nil, nil
}

func (r *memCatalogRepo) ListSubServices(ctx context.Context, mainServiceID *uuid.UUID) ([]models.SubService, error) {
	return nil, nil
}

func (r *memCatalogRepo) GetSubServiceByID(ctx context.Context, id uuid.UUID) (*models.SubService, error) {
	sub, ok := r.subServices[id]
	if !ok {
		return nil, repository.ErrSubServiceNotFound
	}
	return sub, nil
}

func (r *memCatalogRepo) ListSpecialistSubServiceIDs(ctx context.Context, specialistID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range r.capabilities[specialistID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memCatalogRepo) HasCapability(ctx context.Context, specialistID, subServiceID uuid.UUID) (bool, error) {
	return r.capabilities[specialistID][subServiceID], nil
}

func (r *memCatalogRepo) ReplaceSpecialistSubServices(ctx context.Context, specialistID uuid.UUID, subServiceIDs []uuid.UUID) error {
	r.capabilities[specialistID] = make(map[uuid.UUID]bool)
	for _, id := range subServiceIDs {
		r.capabilities[specialistID][id] = true
	}
	return nil
}

type memWalletRepo struct {
	orders       *memOrderRepo
	balances     map[uuid.UUID]decimal.Decimal
	transactions map[uuid.UUID][]models.Transaction
}

func newMemWalletRepo(orders *memOrderRepo) *memWalletRepo {
	return &memWalletRepo{
		orders:       orders,
		balances:     make(map[uuid.UUID]decimal.Decimal),
		transactions: make(map[uuid.UUID][]models.Transaction),
	}
}

func (r *memWalletRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{ID: userID, UserID: userID, Balance: r.balances[userID]}, nil
}

func (r *memWalletRepo) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	r.balances[userID] = r.balances[userID].Add(amount)
	txn := models.Transaction{ID: uuid.New(), WalletID: userID, Amount: amount, Description: description}
	r.transactions[userID] = append(r.transactions[userID], txn)
	return &txn, nil
}

func (r *memWalletRepo) Transfer(ctx context.Context, payerID, payeeID uuid.UUID, gross, net decimal.Decimal, debitDesc, creditDesc string) (*models.Transaction, *models.Transaction, error) {
	if r.balances[payerID].LessThan(gross) {
		return nil, nil, repository.ErrInsufficientFunds
	}
	r.balances[payerID] = r.balances[payerID].Sub(gross)
	r.balances[payeeID] = r.balances[payeeID].Add(net)
	debit := models.Transaction{ID: uuid.New(), WalletID: payerID, Amount: gross.Neg(), Description: debitDesc}
	credit := models.Transaction{ID: uuid.New(), WalletID: payeeID, Amount: net, Description: creditDesc}
	r.transactions[payerID] = append(r.transactions[payerID], debit)
	r.transactions[payeeID] = append(r.transactions[payeeID], credit)
	return &debit, &credit, nil
}

func (r *memWalletRepo) SettleOrder(ctx context.Context, orderID, payerID, payeeID uuid.UUID, gross, net decimal.Decimal) (*models.Transaction, *models.Transaction, error) {
	order, ok := r.orders.orders[orderID]
	if !ok || order.Status != models.OrderStatusCompleted {
		return nil, nil, repository.ErrOrderNotSettleable
	}
	debit, credit, err := r.Transfer(ctx, payerID, payeeID, gross, net,
		"Оплата услуги по заказу", "Доход за выполненную услугу")
	if err != nil {
		return nil, nil, err
	}
	order.Status = models.OrderStatusPaid
	return debit, credit, nil
}

func (r *memWalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	return r.transactions[userID], nil
}

// Сквозной прогон: публикация заказа, отклик, выбор исполнителя, выезд,
// завершение и расчёт с удержанием комиссии.
func TestOrderLifecycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clk := &fixedClock{now: now}

	orderRepo := newMemOrderRepo()
	catalogRepo := newMemCatalogRepo()
	walletRepo := newMemWalletRepo(orderRepo)

	walletSvc := NewWalletService(walletRepo, decimal.RequireFromString("0.30"))
	orderSvc := NewOrderService(orderRepo, catalogRepo, walletSvc, clk)

	customerID := uuid.New()
	specialistID := uuid.New()
	subServiceID := catalogRepo.addSubService(48)
	catalogRepo.grant(specialistID, subServiceID)

	_, err := walletSvc.Deposit(ctx, customerID, decimal.NewFromInt(10000))
	require.NoError(t, err)

	// Публикация заказа.
	order, err := orderSvc.Create(ctx, customerID, CreateOrderInput{
		SubServiceID:   subServiceID,
		Description:    "Генеральная уборка после ремонта",
		SuggestedPrice: decimal.NewFromInt(5000),
		ScheduledDate:  now.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusWaitingForProposals, order.Status)
	assert.Equal(t, now.Add(48*time.Hour), order.VisibleUntil)

	// Заказ виден специалисту в витрине.
	available, err := orderSvc.ListAvailable(ctx, specialistID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, order.ID, available[0].ID)

	// Первый отклик переводит заказ в выбор исполнителя.
	proposal, err := orderSvc.SubmitProposal(ctx, specialistID, order.ID, SubmitProposalInput{
		ProposedPrice:     decimal.NewFromInt(4500),
		EstimatedDuration: 3 * time.Hour,
	})
	require.NoError(t, err)

	order, err = orderSvc.GetOrder(ctx, customerID, models.RoleCustomer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusWaitingForSelection, order.Status)

	// Заказ пропадает из витрины после первого отклика.
	available, err = orderSvc.ListAvailable(ctx, specialistID)
	require.NoError(t, err)
	assert.Empty(t, available)

	// Выбор исполнителя закрывает окно видимости.
	order, err = orderSvc.SelectProposal(ctx, customerID, order.ID, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusWaitingForArrival, order.Status)
	require.NotNil(t, order.SelectedProposalID)
	assert.Equal(t, proposal.ID, *order.SelectedProposalID)
	assert.Equal(t, now, order.VisibleUntil)

	// Специалист приступает к работе.
	order, err = orderSvc.Start(ctx, specialistID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusStarted, order.Status)

	// Завершение проводит расчёт по заявленной цене заказа, а не отклика.
	order, debit, credit, err := orderSvc.Complete(ctx, customerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.True(t, debit.Amount.Equal(decimal.NewFromInt(-5000)), "debit = %s", debit.Amount)
	assert.True(t, credit.Amount.Equal(decimal.NewFromInt(3500)), "credit = %s", credit.Amount)

	customerWallet, err := walletSvc.GetBalance(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, customerWallet.Balance.Equal(decimal.NewFromInt(5000)), "customer balance = %s", customerWallet.Balance)

	specialistWallet, err := walletSvc.GetBalance(ctx, specialistID)
	require.NoError(t, err)
	assert.True(t, specialistWallet.Balance.Equal(decimal.NewFromInt(3500)), "specialist balance = %s", specialistWallet.Balance)

	// Повторное завершение не проходит: заказ уже оплачен.
	_, _, _, err = orderSvc.Complete(ctx, customerID, order.ID)
	assert.Error(t, err)
}

// Неудачный расчёт оставляет заказ в completed, оплату можно повторить.
func TestOrderLifecycle_RetryAfterInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clk := &fixedClock{now: now}

	orderRepo := newMemOrderRepo()
	catalogRepo := newMemCatalogRepo()
	walletRepo := newMemWalletRepo(orderRepo)

	walletSvc := NewWalletService(walletRepo, decimal.RequireFromString("0.30"))
	orderSvc := NewOrderService(orderRepo, catalogRepo, walletSvc, clk)

	customerID := uuid.New()
	specialistID := uuid.New()
	subServiceID := catalogRepo.addSubService(24)
	catalogRepo.grant(specialistID, subServiceID)

	order, err := orderSvc.Create(ctx, customerID, CreateOrderInput{
		SubServiceID:   subServiceID,
		Description:    "Замена смесителя",
		SuggestedPrice: decimal.NewFromInt(3000),
		ScheduledDate:  now.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	proposal, err := orderSvc.SubmitProposal(ctx, specialistID, order.ID, SubmitProposalInput{
		ProposedPrice:     decimal.NewFromInt(2500),
		EstimatedDuration: time.Hour,
	})
	require.NoError(t, err)

	_, err = orderSvc.SelectProposal(ctx, customerID, order.ID, proposal.ID)
	require.NoError(t, err)
	_, err = orderSvc.Start(ctx, specialistID, order.ID)
	require.NoError(t, err)

	// Кошелёк пуст, расчёт не проходит, заказ остаётся в completed.
	_, _, _, err = orderSvc.Complete(ctx, customerID, order.ID)
	require.Error(t, err)

	order, err = orderSvc.GetOrder(ctx, customerID, models.RoleCustomer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)

	// После пополнения повтор завершения проводит оплату.
	_, err = walletSvc.Deposit(ctx, customerID, decimal.NewFromInt(3000))
	require.NoError(t, err)

	order, debit, credit, err := orderSvc.Complete(ctx, customerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.True(t, debit.Amount.Equal(decimal.NewFromInt(-3000)))
	assert.True(t, credit.Amount.Equal(decimal.NewFromInt(2100)))
}
