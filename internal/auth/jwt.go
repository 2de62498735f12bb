package auth

import (
	"fmt"
	"strconv"
	"time"

	"portaria-backend/internal/config"
	"portaria-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller identity the middleware reconstructs on every
// request. PropertyID is the tenant boundary for everything downstream.
type Claims struct {
	UserID         int    `json:"user_id"`
	Role           string `json:"role"`
	PropertyID     int    `json:"property_id"`
	ProfessionalID *int   `json:"professional_id,omitempty"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	expiry time.Duration
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.JWT.Secret),
		expiry: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
	}
}

// Generate signs a token for the user. Users without a property (platform
// admins, professionals) get PropertyID zero.
func (m *JWTManager) Generate(user *models.User) (string, error) {
	propertyID := 0
	if user.PropertyID != nil {
		propertyID = *user.PropertyID
	}
	now := time.Now()
	claims := &Claims{
		UserID:         user.ID,
		Role:           user.Role,
		PropertyID:     propertyID,
		ProfessionalID: user.ProfessionalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates the signature and expiry and returns the claims.
func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
