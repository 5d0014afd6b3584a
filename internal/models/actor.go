package models

import "github.com/google/uuid"

// Роли из access-токена.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor — аутентифицированный пользователь, от имени которого выполняется операция.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
