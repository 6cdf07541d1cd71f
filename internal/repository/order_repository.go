package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adukenov/uslugi-backend/internal/models"
)

// Ошибки уровня репозитория.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrOrderStateChanged = errors.New("order state changed concurrently")
)

// OrderRepository отвечает за работу с заказами и откликами.
// Все изменения статуса выполняются условными UPDATE с проверкой текущего
// статуса, чтобы конкурирующие операции не могли выполнить переход дважды.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, customer_id, sub_service_id, description, suggested_price,
	       status, scheduled_date, address, visible_until, selected_proposal_id,
	       created_at, updated_at`

// Create сохраняет новый заказ.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, sub_service_id, description, suggested_price, status, scheduled_date, address, visible_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		order.CustomerID,
		order.SubServiceID,
		order.Description,
		order.SuggestedPrice,
		order.Status,
		order.ScheduledDate,
		order.Address,
		order.VisibleUntil,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: insert order %w", err)
	}

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}
	return &order, nil
}

// ListByCustomer возвращает заказы пользователя, свежие первыми.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &orders, query, customerID); err != nil {
		return nil, fmt.Errorf("order repository: list by customer %w", err)
	}
	return orders, nil
}

// ListAvailable возвращает заказы, доступные для откликов по набору подуслуг:
// статус waiting_for_proposals, окно видимости не истекло, отклик не выбран.
// Сортировка: старые первыми, id как детерминированный tiebreak.
func (r *OrderRepository) ListAvailable(ctx context.Context, subServiceIDs []uuid.UUID, now time.Time) ([]models.Order, error) {
	if len(subServiceIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE sub_service_id IN (?)
		  AND status = ?
		  AND visible_until > ?
		  AND selected_proposal_id IS NULL
		ORDER BY created_at ASC, id ASC
	`, subServiceIDs, models.OrderStatusWaitingForProposals, now)
	if err != nil {
		return nil, fmt.Errorf("order repository: build available query %w", err)
	}

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("order repository: list available %w", err)
	}
	return orders, nil
}

// CreateProposal добавляет отклик и в той же транзакции выполняет переход
// waiting_for_proposals -> waiting_for_selection. UPDATE защищён проверкой
// текущего статуса: для второго и последующих откликов он не трогает строк.
func (r *OrderRepository) CreateProposal(ctx context.Context, proposal *models.Proposal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: begin tx %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO proposals (order_id, specialist_id, proposed_price, estimated_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`,
		proposal.OrderID,
		proposal.SpecialistID,
		proposal.ProposedPrice,
		proposal.EstimatedMinutes,
	).Scan(&proposal.ID, &proposal.CreatedAt); err != nil {
		return fmt.Errorf("order repository: insert proposal %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`,
		proposal.OrderID,
		models.OrderStatusWaitingForSelection,
		models.OrderStatusWaitingForProposals,
	); err != nil {
		return fmt.Errorf("order repository: first proposal transition %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("order repository: commit %w", err)
	}

	return nil
}

// GetProposalByID возвращает отклик по идентификатору.
func (r *OrderRepository) GetProposalByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	query := `
		SELECT id, order_id, specialist_id, proposed_price, estimated_minutes, created_at
		FROM proposals WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("order repository: get proposal %w", err)
	}
	return &proposal, nil
}

// ListProposals возвращает отклики по заказу, свежие первыми.
func (r *OrderRepository) ListProposals(ctx context.Context, orderID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	query := `
		SELECT id, order_id, specialist_id, proposed_price, estimated_minutes, created_at
		FROM proposals WHERE order_id = $1 ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &proposals, query, orderID); err != nil {
		return nil, fmt.Errorf("order repository: list proposals %w", err)
	}
	return proposals, nil
}

// SelectProposal фиксирует выбор отклика: проставляет selected_proposal_id,
// переводит заказ в waiting_for_arrival и немедленно закрывает окно
// видимости, чтобы заказ исчез из выдачи доступных.
func (r *OrderRepository) SelectProposal(ctx context.Context, orderID, proposalID uuid.UUID, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET selected_proposal_id = $2,
		    status = $3,
		    visible_until = $4,
		    updated_at = NOW()
		WHERE id = $1 AND status = $5
	`,
		orderID,
		proposalID,
		models.OrderStatusWaitingForArrival,
		now,
		models.OrderStatusWaitingForSelection,
	)
	if err != nil {
		return fmt.Errorf("order repository: select proposal %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: select proposal rows affected %w", err)
	}
	if affected == 0 {
		return ErrOrderStateChanged
	}
	return nil
}

// UpdateStatusIf выполняет переход to, только если заказ находится в одном из
// статусов from. Возвращает false, если ни одна строка не изменилась (статус
// успел поменяться конкурентно).
func (r *OrderRepository) UpdateStatusIf(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	query, args, err := sqlx.In(`
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE id = ? AND status IN (?)
	`, to, orderID, from)
	if err != nil {
		return false, fmt.Errorf("order repository: build status query %w", err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("order repository: update status %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("order repository: update status rows affected %w", err)
	}
	return affected > 0, nil
}

// ExpireStale переводит в expired заказы без единого отклика, у которых окно
// видимости истекло. Один UPDATE, идемпотентно: повторный запуск не находит
// строк, потому что статус уже не waiting_for_proposals.
func (r *OrderRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE status = $2
		  AND visible_until <= $3
		  AND NOT EXISTS (SELECT 1 FROM proposals p WHERE p.order_id = orders.id)
	`,
		models.OrderStatusExpired,
		models.OrderStatusWaitingForProposals,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("order repository: expire stale %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("order repository: expire stale rows affected %w", err)
	}
	return affected, nil
}
