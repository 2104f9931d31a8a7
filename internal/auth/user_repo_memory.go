package auth

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// UserRepository это хранилище учётных записей API
type UserRepository interface {
	GetUser(username string) (*User, error)
	CreateUser(username, passwordHash string, role Role) (*User, error)
	ListUsers() []*User
	// Authenticate проверяет пароль и обновляет LastLogin
	Authenticate(username, password string) (*User, error)
}

// MemoryUserRepo это потокобезопасное хранилище в памяти.
// Заполняется из конфигурации при старте mapd.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*User // ключ: имя в нижнем регистре
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]*User)}
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (r *MemoryUserRepo) GetUser(username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[normalize(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepo) CreateUser(username, passwordHash string, role Role) (*User, error) {
	key := normalize(username)
	if key == "" {
		return nil, ErrInvalidCredentials
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}
	user := &User{
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	r.users[key] = user
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepo) ListUsers() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return normalize(result[i].Username) < normalize(result[j].Username) })
	return result
}

// Authenticate не различает "нет пользователя" и "неверный пароль"
func (r *MemoryUserRepo) Authenticate(username, password string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[normalize(username)]
	if !ok || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	user.LastLogin = time.Now()
	copied := *user
	return &copied, nil
}
