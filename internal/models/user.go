package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей платформы.
const (
	RoleCustomer   = "customer"
	RoleSpecialist = "specialist"
	RoleAdmin      = "admin"
)

// ValidRoles список валидных ролей.
var ValidRoles = map[string]struct{}{
	RoleCustomer:   {},
	RoleSpecialist: {},
	RoleAdmin:      {},
}

// User описывает сущность пользователя платформы. Регистрация и
// аутентификация живут во внешнем сервисе; здесь пользователь нужен как
// владелец заказов, откликов и кошелька.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
