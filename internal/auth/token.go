package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/vendora/vendora/internal/models"
)

const tokenDuration = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the actor payload carried by a bearer token. Tokens are
// issued by the identity service; this service only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	Role   string `json:"role"`
	ShopID string `json:"shop_id,omitempty"`
}

// AuthToken creates and verifies HMAC-signed JWT tokens
type AuthToken struct {
	key []byte
}

// NewAuthToken creates new AuthToken instance with signing key
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key}
}

// CreateToken issues a signed token for the actor
func (at *AuthToken) CreateToken(actor models.Actor) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
		},
		Role: actor.Role,
	}
	if actor.ShopID != nil {
		claims.ShopID = actor.ShopID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(at.key)
}

// VerifyToken parses and validates the token and returns the actor
func (at *AuthToken) VerifyToken(tokenString string) (*models.Actor, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return at.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	actor := models.Actor{
		ID:   id,
		Role: claims.Role,
	}
	if claims.ShopID != "" {
		shopID, err := uuid.Parse(claims.ShopID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		actor.ShopID = &shopID
	}

	return &actor, nil
}
