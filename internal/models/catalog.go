package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MainService представляет основную категорию услуг (например, сантехника).
type MainService struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubService — конкретная услуга внутри категории со своей базовой ценой
// и длительностью окна видимости заказов.
type SubService struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	MainServiceID uuid.UUID       `db:"main_service_id" json:"main_service_id"`
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description,omitempty"`
	BasePrice     decimal.Decimal `db:"base_price" json:"base_price"`
	// ExpirationHours — сколько часов заказ этой подуслуги принимает отклики.
	ExpirationHours int       `db:"expiration_hours" json:"expiration_hours"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
