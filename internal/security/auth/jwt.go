package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/workstream/internal/domain"
)

// UserMetadata mirrors the metadata block the identity layer attaches to a
// user. Its companyId must agree with the top-level claim.
type UserMetadata struct {
	CompanyID string `json:"companyId"`
}

type Claims struct {
	CompanyID string       `json:"company_id"`
	UserID    string       `json:"user_id"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	Metadata  UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Session converts validated claims into the immutable per-connection
// context handlers receive.
func (c *Claims) Session() domain.Session {
	return domain.Session{
		UserID:            c.UserID,
		Email:             c.Email,
		Role:              domain.Role(c.Role),
		CompanyID:         c.CompanyID,
		MetadataCompanyID: c.Metadata.CompanyID,
	}
}

type TokenManager struct {
	secret string
	issuer string
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "workstream"
	}
	return &TokenManager{secret: secret, issuer: issuer}
}

func (tm *TokenManager) GenerateToken(companyID, userID, email string, role domain.Role, expiresIn time.Duration) (string, error) {
	if companyID == "" || userID == "" {
		return "", fmt.Errorf("company_id and user_id required")
	}
	now := time.Now()
	claims := Claims{
		CompanyID: companyID,
		UserID:    userID,
		Email:     email,
		Role:      string(role),
		Metadata:  UserMetadata{CompanyID: companyID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secret))
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
