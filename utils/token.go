package utils

import (
	"errors"
	"fmt"
	"time"

	"hostelgrievance-be/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenLifetime is how long an issued login token stays valid.
const TokenLifetime = 7 * 24 * time.Hour

// Claims is the payload of a login token.
type Claims struct {
	UserID     string          `json:"userId"`
	Role       models.Role     `json:"role"`
	RegNo      string          `json:"regNo,omitempty"`
	TechID     string          `json:"techId,omitempty"`
	RoomNumber string          `json:"roomNumber,omitempty"`
	Department models.Category `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// AccountID returns the account id carried by the token.
func (c *Claims) AccountID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}

// TokenManager signs and verifies HS256 login tokens.
type TokenManager struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenManager returns a manager using secret for signing.
func NewTokenManager(secret string, lifetime time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), lifetime: lifetime}
}

// Generate issues a token for the account with its role-specific claims.
func (m *TokenManager) Generate(account *models.Account) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("JWT_SECRET environment variable is not set")
	}

	now := time.Now()
	claims := &Claims{
		UserID:     account.ID.Hex(),
		Role:       account.Role,
		RegNo:      account.RegNo,
		TechID:     account.TechID,
		RoomNumber: account.RoomNumber,
		Department: account.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("token carries unknown role %q", claims.Role)
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, fmt.Errorf("token carries invalid user id: %w", err)
	}
	return claims, nil
}
