package auth

import (
	"fmt"
	"strings"
	"sync"

	"github.com/annel0/topomap/internal/config"
)

// MemoryUserRepo хранит учётные записи из конфигурации в памяти.
// Потокобезопасен.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*User // ключ - имя в нижнем регистре
}

// NewMemoryUserRepo создаёт репозиторий с администраторами из конфигурации.
// Хеши паролей должны быть bcrypt.
func NewMemoryUserRepo(admins []config.AdminConfig) (*MemoryUserRepo, error) {
	repo := &MemoryUserRepo{users: make(map[string]*User)}
	for i, a := range admins {
		if a.Username == "" || a.PasswordHash == "" {
			return nil, fmt.Errorf("auth.admins[%d]: нужны username и password_hash", i)
		}
		if _, err := repo.CreateUser(a.Username, a.PasswordHash, true); err != nil {
			return nil, fmt.Errorf("auth.admins[%d]: %w", i, err)
		}
	}
	return repo, nil
}

// GetUserByUsername возвращает пользователя по имени без учёта регистра
func (r *MemoryUserRepo) GetUserByUsername(username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[normalize(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateUser добавляет пользователя, если имя свободно
func (r *MemoryUserRepo) CreateUser(username string, passwordHash string, isAdmin bool) (*User, error) {
	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	r.users[key] = user
	return user, nil
}

// ValidateCredentials проверяет пароль; неизвестное имя и неверный пароль
// неразличимы для вызывающего.
func (r *MemoryUserRepo) ValidateCredentials(username, password string) (*User, error) {
	user, err := r.GetUserByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalize(username string) string {
	return strings.ToLower(username)
}
