package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
	tokenTTL  = 24 * time.Hour
)

func init() {
	jwtSecret = make([]byte, 32)
	if _, err := rand.Read(jwtSecret); err != nil {
		panic(err)
	}
}

// Claims - данные токена администратора карт
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// GenerateJWT выпускает токен HS256 для пользователя
func GenerateJWT(user *User) (string, error) {
	secretMu.RLock()
	secret, ttl := jwtSecret, tokenTTL
	secretMu.RUnlock()

	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "topomap",
			Subject:   user.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateJWT проверяет подпись и срок действия токена
func ValidateJWT(tokenString string) (username string, isValid bool, isAdmin bool) {
	secretMu.RLock()
	secret := jwtSecret
	secretMu.RUnlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", false, false
	}
	return claims.Username, true, claims.IsAdmin
}

// GenerateSecureSecret возвращает случайный секрет в base64
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// SetJWTSecret устанавливает секрет из base64 (не меньше 32 байт)
func SetJWTSecret(secret string) error {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return err
	}
	if len(decoded) < 32 {
		return errors.New("secret key must be at least 32 bytes")
	}
	secretMu.Lock()
	jwtSecret = decoded
	secretMu.Unlock()
	return nil
}

// SetTokenTTL задаёт срок действия новых токенов
func SetTokenTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	secretMu.Lock()
	tokenTTL = ttl
	secretMu.Unlock()
}
