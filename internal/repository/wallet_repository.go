package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/adukenov/uslugi-backend/internal/models"
)

var (
	// ErrInsufficientFunds возвращается, когда на кошельке плательщика не
	// хватает средств. Ни одна запись при этом не создаётся.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrOrderNotSettleable возвращается, когда заказ уже оплачен или его
	// статус поменялся конкурентно во время расчёта.
	ErrOrderNotSettleable = errors.New("order is not in a settleable state")
)

// WalletRepository — единственная точка изменения балансов. Всё движение
// денег проходит через транзакции этого репозитория; прямых UPDATE балансов
// в других местах нет.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetOrCreate возвращает кошелёк пользователя, создавая его при первом
// обращении.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, balance, created_at, updated_at
	`
	if err := r.db.GetContext(ctx, &wallet, query, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: get or create %w", err)
	}
	return &wallet, nil
}

// Deposit пополняет кошелёк и пишет зачисление в леджер.
func (r *WalletRepository) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: begin tx %w", err)
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, wallet.ID, amount); err != nil {
		return nil, fmt.Errorf("wallet repository: deposit update balance %w", err)
	}

	transaction, err := insertTransaction(ctx, tx, wallet.ID, amount, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("wallet repository: commit %w", err)
	}
	return transaction, nil
}

// Transfer атомарно переводит средства: списывает gross с плательщика,
// зачисляет net получателю и создаёт ровно две записи леджера (-gross, +net).
// Разница gross-net — комиссия площадки, отдельной записью не фиксируется.
func (r *WalletRepository) Transfer(ctx context.Context, payerID, payeeID uuid.UUID, gross, net decimal.Decimal, debitDesc, creditDesc string) (*models.Transaction, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet repository: begin tx %w", err)
	}
	defer tx.Rollback()

	debit, credit, err := transferLocked(ctx, tx, payerID, payeeID, gross, net, debitDesc, creditDesc)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("wallet repository: commit %w", err)
	}
	return debit, credit, nil
}

// SettleOrder выполняет расчёт по заказу: тот же перевод, что и Transfer, но
// в той же транзакции заказ условно переводится из completed в paid. Если
// заказ уже оплачен (0 строк), вся транзакция откатывается — двойной расчёт
// невозможен.
func (r *WalletRepository) SettleOrder(ctx context.Context, orderID uuid.UUID, payerID, payeeID uuid.UUID, gross, net decimal.Decimal) (*models.Transaction, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet repository: begin tx %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, orderID, models.OrderStatusPaid, models.OrderStatusCompleted)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet repository: mark order paid %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("wallet repository: mark order paid rows affected %w", err)
	}
	if affected == 0 {
		return nil, nil, ErrOrderNotSettleable
	}

	debit, credit, err := transferLocked(ctx, tx, payerID, payeeID, gross, net,
		"Оплата услуги по заказу", "Доход за выполненную услугу")
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("wallet repository: commit %w", err)
	}
	return debit, credit, nil
}

// ListTransactions возвращает историю леджера по кошельку пользователя.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT t.id, t.wallet_id, t.amount, t.description, t.created_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: list transactions %w", err)
	}
	return transactions, nil
}

// transferLocked блокирует оба кошелька в детерминированном порядке id
// пользователей (защита от взаимной блокировки встречных переводов),
// проверяет баланс плательщика и пишет обе записи леджера.
func transferLocked(ctx context.Context, tx *sqlx.Tx, payerID, payeeID uuid.UUID, gross, net decimal.Decimal, debitDesc, creditDesc string) (*models.Transaction, *models.Transaction, error) {
	first, second := payerID, payeeID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	wallets := make(map[uuid.UUID]*models.Wallet, 2)
	for _, userID := range []uuid.UUID{first, second} {
		wallet, err := lockWallet(ctx, tx, userID)
		if err != nil {
			return nil, nil, err
		}
		wallets[userID] = wallet
	}

	payer := wallets[payerID]
	payee := wallets[payeeID]

	if payer.Balance.LessThan(gross) {
		return nil, nil, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - $2, updated_at = NOW() WHERE id = $1
	`, payer.ID, gross); err != nil {
		return nil, nil, fmt.Errorf("wallet repository: debit payer %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, payee.ID, net); err != nil {
		return nil, nil, fmt.Errorf("wallet repository: credit payee %w", err)
	}

	debit, err := insertTransaction(ctx, tx, payer.ID, gross.Neg(), debitDesc)
	if err != nil {
		return nil, nil, err
	}
	credit, err := insertTransaction(ctx, tx, payee.ID, net, creditDesc)
	if err != nil {
		return nil, nil, err
	}

	return debit, credit, nil
}

// lockWallet создаёт кошелёк при необходимости и берёт блокировку строки до
// конца транзакции.
func lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*models.Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: ensure wallet %w", err)
	}

	var wallet models.Wallet
	if err := tx.GetContext(ctx, &wallet, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets WHERE user_id = $1 FOR UPDATE
	`, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: lock wallet %w", err)
	}
	return &wallet, nil
}

// insertTransaction добавляет запись в append-only леджер.
func insertTransaction(ctx context.Context, tx *sqlx.Tx, walletID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (wallet_id, amount, description)
		VALUES ($1, $2, $3)
		RETURNING id, wallet_id, amount, description, created_at
	`, walletID, amount, description); err != nil {
		return nil, fmt.Errorf("wallet repository: insert transaction %w", err)
	}
	return &transaction, nil
}
