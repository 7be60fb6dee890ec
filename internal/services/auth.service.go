package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer        = "diskwarden"
	secretKeyFileName  = ".diskwarden-secret-key"
	minSecretKeyLength = 32
)

// DefaultTokenExpiry is used when no expiry is configured
const DefaultTokenExpiry = 90 * 24 * time.Hour

// AuthService signs and verifies the tokens websocket clients present
type AuthService struct {
	secretKey   []byte
	tokenExpiry time.Duration
}

// AgentClaims identifies the dashboard or agent a token was issued to
type AgentClaims struct {
	Agent string `json:"agent"`
	jwt.RegisteredClaims
}

var authService *AuthService

// InitAuthService initializes the authentication service. An empty secret
// is loaded from (or generated into) ~/.diskwarden-secret-key.
func InitAuthService(secretKey string, tokenExpiry time.Duration) (*AuthService, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		var err error
		secretKey, err = loadOrCreateSecretKey(secretKeyPath())
		if err != nil {
			return nil, err
		}
	}
	if len(secretKey) < minSecretKeyLength {
		return nil, fmt.Errorf("secret key is %d bytes, need at least %d", len(secretKey), minSecretKeyLength)
	}

	if tokenExpiry <= 0 {
		tokenExpiry = DefaultTokenExpiry
	}

	authService = &AuthService{
		secretKey:   []byte(secretKey),
		tokenExpiry: tokenExpiry,
	}
	return authService, nil
}

func secretKeyPath() string {
	dir, err := os.UserHomeDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, secretKeyFileName)
}

func loadOrCreateSecretKey(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil {
		if key := strings.TrimSpace(string(data)); key != "" {
			log.WithField("path", path).Debug("Loaded persisted secret key")
			return key, nil
		}
	}

	randomBytes := make([]byte, minSecretKeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	key := hex.EncodeToString(randomBytes)

	if err := os.WriteFile(path, []byte(key), 0o600); err != nil {
		log.WithError(err).Warnf("Could not persist secret key to %s", path)
	} else {
		log.WithField("path", path).Info("Generated and persisted secret key")
	}
	return key, nil
}

// GenerateToken creates a signed token for the named agent
func (a *AuthService) GenerateToken(agent string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.tokenExpiry)

	claims := AgentClaims{
		Agent: agent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   agent,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies and parses a token
func (a *AuthService) ValidateToken(tokenString string) (*AgentClaims, error) {
	claims := &AgentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateToken creates a token with the shared auth service
func GenerateToken(agent string) (string, time.Time, error) {
	if authService == nil {
		return "", time.Time{}, errors.New("auth service not initialized")
	}
	return authService.GenerateToken(agent)
}

// ValidateToken verifies a token with the shared auth service
func ValidateToken(tokenString string) (*AgentClaims, error) {
	if authService == nil {
		return nil, errors.New("auth service not initialized")
	}
	return authService.ValidateToken(tokenString)
}
