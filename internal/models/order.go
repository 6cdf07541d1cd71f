package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order описывает заявку заказчика на выездную услугу.
type Order struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	CustomerID         uuid.UUID       `db:"customer_id" json:"customer_id"`
	SubServiceID       uuid.UUID       `db:"sub_service_id" json:"sub_service_id"`
	Description        string          `db:"description" json:"description"`
	SuggestedPrice     decimal.Decimal `db:"suggested_price" json:"suggested_price"`
	Status             OrderStatus     `db:"status" json:"status"`
	ScheduledDate      time.Time       `db:"scheduled_date" json:"scheduled_date"`
	Address            *string         `db:"address" json:"address,omitempty"`
	VisibleUntil       time.Time       `db:"visible_until" json:"visible_until"`
	SelectedProposalID *uuid.UUID      `db:"selected_proposal_id" json:"selected_proposal_id,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// IsOwnedBy проверяет, что заказ принадлежит пользователю.
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.CustomerID == userID
}

// Proposal представляет отклик специалиста на заказ.
// Отклик неизменяем после создания.
type Proposal struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	OrderID       uuid.UUID       `db:"order_id" json:"order_id"`
	SpecialistID  uuid.UUID       `db:"specialist_id" json:"specialist_id"`
	ProposedPrice decimal.Decimal `db:"proposed_price" json:"proposed_price"`
	// EstimatedMinutes — оценка длительности работ в минутах.
	EstimatedMinutes int64     `db:"estimated_minutes" json:"estimated_minutes"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// EstimatedDuration возвращает оценку длительности как time.Duration.
func (p *Proposal) EstimatedDuration() time.Duration {
	return time.Duration(p.EstimatedMinutes) * time.Minute
}
