package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/annel0/topomap/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// TestGenerateJWT тестирует создание JWT токена
func TestGenerateJWT(t *testing.T) {
	token, err := GenerateJWT(&User{Username: "cartographer"})
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Неверный формат JWT токена: %s", token)
	}
}

// TestValidateJWT тестирует валидацию JWT токена
func TestValidateJWT(t *testing.T) {
	user := &User{Username: "admin", IsAdmin: true}
	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	username, isValid, isAdmin := ValidateJWT(token)
	if !isValid {
		t.Fatal("Валидный токен определен как недействительный")
	}
	if username != user.Username {
		t.Errorf("Неверное имя: ожидалось %s, получено %s", user.Username, username)
	}
	if !isAdmin {
		t.Error("Флаг администратора потерян")
	}
}

// TestValidateInvalidJWT тестирует валидацию недействительного JWT
func TestValidateInvalidJWT(t *testing.T) {
	testCases := []string{
		"invalid.token.here",
		"",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, invalidToken := range testCases {
		username, isValid, isAdmin := ValidateJWT(invalidToken)
		if isValid || username != "" || isAdmin {
			t.Errorf("Недействительный токен '%s' прошел валидацию", invalidToken)
		}
	}
}

// TestValidateExpiredJWT проверяет отказ для просроченного токена
func TestValidateExpiredJWT(t *testing.T) {
	secretMu.RLock()
	secret := jwtSecret
	secretMu.RUnlock()

	past := time.Now().Add(-2 * time.Hour)
	claims := &Claims{
		Username: "admin",
		IsAdmin:  true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("Ошибка подписи: %v", err)
	}

	if _, isValid, _ := ValidateJWT(token); isValid {
		t.Error("Просроченный токен прошел валидацию")
	}
}

// TestValidateJWTWrongAlgorithm проверяет отказ для токена без подписи
func TestValidateJWTWrongAlgorithm(t *testing.T) {
	claims := &Claims{Username: "admin", IsAdmin: true}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Ошибка подписи: %v", err)
	}
	if _, isValid, _ := ValidateJWT(token); isValid {
		t.Error("Токен alg=none прошел валидацию")
	}
}

// TestGenerateSecureSecret тестирует генерацию секретного ключа
func TestGenerateSecureSecret(t *testing.T) {
	secret1, err1 := GenerateSecureSecret()
	secret2, err2 := GenerateSecureSecret()
	if err1 != nil || err2 != nil {
		t.Fatalf("Ошибка генерации секрета: %v %v", err1, err2)
	}
	if secret1 == secret2 {
		t.Error("Два последовательных вызова GenerateSecureSecret вернули одинаковый результат")
	}
	// base64 от 32 байт = 44 символа
	if len(secret1) < 40 {
		t.Error("Секрет слишком короткий")
	}
}

// TestSetJWTSecret тестирует установку пользовательского секретного ключа
func TestSetJWTSecret(t *testing.T) {
	token, err := GenerateJWT(&User{Username: "admin", IsAdmin: true})
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	validSecret, err := GenerateSecureSecret()
	if err != nil {
		t.Fatalf("Ошибка генерации валидного секрета: %v", err)
	}
	if err := SetJWTSecret(validSecret); err != nil {
		t.Errorf("Ошибка установки валидного секрета: %v", err)
	}

	// Токен, подписанный старым секретом, больше не действителен
	if _, isValid, _ := ValidateJWT(token); isValid {
		t.Error("Токен со старым секретом прошел валидацию")
	}

	for _, invalidSecret := range []string{"too-short", "invalid-base64-@#$%", ""} {
		if err := SetJWTSecret(invalidSecret); err == nil {
			t.Errorf("Недействительный секрет '%s' был принят", invalidSecret)
		}
	}
}

// TestMemoryUserRepo проверяет учётные записи из конфигурации
func TestMemoryUserRepo(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("Ошибка хеширования: %v", err)
	}

	repo, err := NewMemoryUserRepo([]config.AdminConfig{{Username: "Admin", PasswordHash: hash}})
	if err != nil {
		t.Fatalf("Ошибка создания репозитория: %v", err)
	}

	user, err := repo.ValidateCredentials("admin", "s3cret")
	if err != nil {
		t.Fatalf("Верные учётные данные отклонены: %v", err)
	}
	if !user.IsAdmin || user.Username != "Admin" {
		t.Errorf("Неверный пользователь: %+v", user)
	}

	if _, err := repo.ValidateCredentials("admin", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("Ожидалась ErrInvalidCredentials, получено %v", err)
	}
	if _, err := repo.ValidateCredentials("ghost", "s3cret"); err != ErrInvalidCredentials {
		t.Errorf("Ожидалась ErrInvalidCredentials для неизвестного имени, получено %v", err)
	}
	if _, err := repo.CreateUser("ADMIN", hash, false); err != ErrUserExists {
		t.Errorf("Ожидалась ErrUserExists, получено %v", err)
	}

	if _, err := NewMemoryUserRepo([]config.AdminConfig{{Username: "x"}}); err == nil {
		t.Error("Учётная запись без хеша принята")
	}
}
