package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adukenov/uslugi-backend/internal/models"
	"github.com/adukenov/uslugi-backend/internal/pkg/apperror"
	"github.com/adukenov/uslugi-backend/internal/repository"
)

type WalletRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error)
	Transfer(ctx context.Context, payerID, payeeID uuid.UUID, gross, net decimal.Decimal, debitDesc, creditDesc string) (*models.Transaction, *models.Transaction, error)
	SettleOrder(ctx context.Context, orderID, payerID, payeeID uuid.UUID, gross, net decimal.Decimal) (*models.Transaction, *models.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// WalletService управляет кошельками и расчётами по заказам. Комиссия
// площадки удерживается при расчёте: заказчик платит полную сумму,
// специалист получает её за вычетом комиссии.
type WalletService struct {
	repo           WalletRepository
	commissionRate decimal.Decimal
}

func NewWalletService(repo WalletRepository, commissionRate decimal.Decimal) *WalletService {
	return &WalletService{repo: repo, commissionRate: commissionRate}
}

// SplitGross делит полную сумму на долю специалиста и комиссию площадки.
// Сумма net и комиссии всегда равна gross: комиссия считается как остаток
// после округления net до копеек.
func (s *WalletService) SplitGross(gross decimal.Decimal) (net, commission decimal.Decimal) {
	net = gross.Mul(decimal.NewFromInt(1).Sub(s.commissionRate)).Round(2)
	commission = gross.Sub(net)
	return net, commission
}

// GetBalance возвращает кошелёк пользователя, создавая его при первом
// обращении.
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// Deposit пополняет кошелёк.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	return s.repo.Deposit(ctx, userID, amount, "Пополнение кошелька")
}

// Transfer переводит средства между кошельками с удержанием комиссии.
// Прямой перевод вне расчёта по заказу, статус заказов не трогает.
func (s *WalletService) Transfer(ctx context.Context, payerID, payeeID uuid.UUID, gross decimal.Decimal) (*models.Transaction, *models.Transaction, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	if payerID == payeeID {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "нельзя перевести средства самому себе")
	}
	net, _ := s.SplitGross(gross)

	debit, credit, err := s.repo.Transfer(ctx, payerID, payeeID, gross, net,
		"Перевод средств", "Поступление средств")
	if errors.Is(err, repository.ErrInsufficientFunds) {
		return nil, nil, apperror.ErrInsufficientFunds
	}
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

// SettleOrder проводит расчёт по заказу: списывает полную сумму с заказчика,
// зачисляет специалисту его долю и переводит заказ в статус paid. Весь
// расчёт выполняется в одной транзакции базы.
func (s *WalletService) SettleOrder(ctx context.Context, orderID, customerID, specialistID uuid.UUID, gross decimal.Decimal) (*models.Transaction, *models.Transaction, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "сумма расчёта должна быть положительной")
	}
	net, _ := s.SplitGross(gross)

	debit, credit, err := s.repo.SettleOrder(ctx, orderID, customerID, specialistID, gross, net)
	switch {
	case errors.Is(err, repository.ErrInsufficientFunds):
		return nil, nil, apperror.ErrInsufficientFunds
	case errors.Is(err, repository.ErrOrderNotSettleable):
		return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "заказ уже оплачен или изменил статус")
	case err != nil:
		return nil, nil, err
	}
	return debit, credit, nil
}

// ListTransactions возвращает историю операций по кошельку.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
