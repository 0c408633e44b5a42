package security

import (
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "Hydro"

// UserClaims Token 中携带的用户信息
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
