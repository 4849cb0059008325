package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

type Claims struct {
	Sub       int64  `json:"sub"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID *int64 `json:"company_id,omitempty"`
	ZoneID    *int64 `json:"zone_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor rebuilds the authorization view carried by the token.
func (c *Claims) Actor() domain.Actor {
	role, _ := domain.ParseRole(c.Role)
	return domain.Actor{ID: c.Sub, Role: role, CompanyID: c.CompanyID, ZoneID: c.ZoneID}
}

func NewAccessToken(acc *domain.Account, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:       acc.ID,
		Email:     acc.Email,
		Role:      string(acc.Role),
		CompanyID: acc.CompanyID,
		ZoneID:    acc.ZoneID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"apppark-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
