package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL время жизни токена администратора
const DefaultTokenTTL = 12 * time.Hour

var (
	// ErrInvalidToken токен не прошел проверку
	ErrInvalidToken = errors.New("недействительный токен")
	// ErrInvalidCredentials неверное имя или пароль
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrLoginDisabled вход по паролю не настроен
	ErrLoginDisabled = errors.New("вход по паролю отключен")
)

// Claims утверждения токена администратора
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator выдает и проверяет токены админского API
type Authenticator struct {
	secret       []byte
	username     string
	passwordHash string
	issuer       string
	ttl          time.Duration
}

// NewAuthenticator создаёт аутентификатор.
// secret в base64 не короче 32 байт; пустой secret заменяется случайным ключом.
// Пустой passwordHash отключает вход по паролю.
func NewAuthenticator(secret, username, passwordHash string) (*Authenticator, error) {
	a := &Authenticator{
		username:     username,
		passwordHash: passwordHash,
		issuer:       "blockverse",
		ttl:          DefaultTokenTTL,
	}

	if secret == "" {
		a.secret = make([]byte, 32)
		if _, err := rand.Read(a.secret); err != nil {
			return nil, fmt.Errorf("генерация ключа: %w", err)
		}
		return a, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("ключ должен быть в base64: %w", err)
	}
	if len(decoded) < 32 {
		return nil, errors.New("ключ должен быть не короче 32 байт")
	}
	a.secret = decoded
	return a, nil
}

// GenerateToken выдает токен для subject
func (a *Authenticator) GenerateToken(subject string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.issuer,
			Subject:   subject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate проверяет подпись, срок действия и издателя токена
func (a *Authenticator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(a.issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Login проверяет пароль администратора и выдает токен
func (a *Authenticator) Login(username, password string) (string, error) {
	if a.passwordHash == "" {
		return "", ErrLoginDisabled
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return a.GenerateToken(username)
}

// HashPassword возвращает bcrypt хэш пароля для конфигурации
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateSecureSecret возвращает случайный ключ в base64
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
