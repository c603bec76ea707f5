package auth

// User - учётная запись с доступом к административному API карт
type User struct {
	Username     string // Уникальное имя (без учёта регистра)
	PasswordHash string // bcrypt
	IsAdmin      bool
}
