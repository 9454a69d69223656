package tokenmanager

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/bankmatch/internal/models"
)

const (
	defaultTokenTTL      = 90 * 24 * time.Hour
	defaultSigningMethod = "HS256"

	SecretKeyBytesLen = 32
)

// ClientClaims identify the client application in the subject claim
type ClientClaims struct {
	jwt.RegisteredClaims
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Token lifetime
	// If not set than default is used
	TTL time.Duration
}

type TokenManager struct {
	// Secret key to sign tokens
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	ttl time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTokenTTL
	}

	return &TokenManager{
		key: cfg.SecretKey,
		alg: alg,
		ttl: cfg.TTL,
	}, nil
}

// Issue signs a token for the client application
func (m *TokenManager) Issue(client string) (models.IssuedToken, error) {
	if strings.TrimSpace(client) == "" {
		return models.IssuedToken{}, errors.New("client name must not be empty")
	}

	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	token := jwt.NewWithClaims(
		m.alg,
		ClientClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   client,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
		},
	)
	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Client: client, Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse validates the token and returns the client it was issued for
func (m *TokenManager) Parse(value string) (client string, err error) {
	claims := &ClientClaims{}

	_, err = jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	if claims.Subject == "" {
		return "", errors.New("token has no client")
	}

	return claims.Subject, nil
}

// NewSecret returns a random hex encoded key suitable for signing tokens
func NewSecret() (string, error) {
	b := make([]byte, SecretKeyBytesLen)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating secret key: %w", err)
	}

	return hex.EncodeToString(b), nil
}
