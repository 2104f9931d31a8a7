package auth

import (
	"errors"
	"fmt"
	"time"
)

// Role это уровень доступа к API редактора
type Role string

const (
	// RoleViewer может только читать карту
	RoleViewer Role = "viewer"
	// RoleEditor может менять карту и буфер обмена
	RoleEditor Role = "editor"
)

// ParseRole разбирает роль; пустая строка даёт RoleViewer
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleViewer:
		return RoleViewer, nil
	case RoleEditor:
		return RoleEditor, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CanEdit сообщает, разрешены ли изменения карты
func (r Role) CanEdit() bool {
	return r == RoleEditor
}

// User это учётная запись пользователя API
type User struct {
	Username     string    // Уникальное имя (без учёта регистра)
	PasswordHash string    // bcrypt-хеш пароля
	Role         Role      // Уровень доступа
	CreatedAt    time.Time // Время создания
	LastLogin    time.Time // Последний успешный вход
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
