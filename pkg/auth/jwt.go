package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in the role claim.
const (
	RoleFarmer     = "farmer"
	RoleAgronomist = "agronomist"
	RoleAdmin      = "admin"
)

// Claims represents the JWT claims for the crop health API. Every scan query
// is scoped to FarmerID.
type Claims struct {
	FarmerID uuid.UUID `json:"farmer_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

// ErrMissingFarmer is returned for tokens without a farmer_id claim.
var ErrMissingFarmer = errors.New("token has no farmer_id claim")

// GenerateToken creates a signed JWT for the given farmer, user, and role.
func GenerateToken(secret, issuer string, farmerID, userID uuid.UUID, role string, expiryHours int) (string, error) {
	now := time.Now()
	claims := Claims{
		FarmerID: farmerID,
		UserID:   userID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a JWT, returning the claims.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.FarmerID == uuid.Nil {
		return nil, ErrMissingFarmer
	}

	return claims, nil
}
