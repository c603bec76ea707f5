package auth

import "errors"

// UserRepository - источник учётных записей для выдачи токенов
type UserRepository interface {
	// GetUserByUsername возвращает пользователя по имени (без учёта регистра)
	// или ErrUserNotFound.
	GetUserByUsername(username string) (*User, error)

	// ValidateCredentials проверяет имя и пароль
	ValidateCredentials(username, password string) (*User, error)
}

// Ошибки репозитория
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
