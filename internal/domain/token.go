package domain

import (
	"errors"
	"time"
)

// TokenType identifica el tipo de token emitido.
type TokenType string

const (
	TokenTypeAccess        TokenType = "access"
	TokenTypeRefresh       TokenType = "refresh"
	TokenTypeResetPassword TokenType = "resetPassword"
	TokenTypeVerifyEmail   TokenType = "verifyEmail"
)

// ErrTokenNotFound indica que no existe un registro vigente para el token.
var ErrTokenNotFound = errors.New("token record not found")

// TokenRecord es el registro persistido de un token revocable o de un solo uso.
// Los access tokens nunca se persisten.
type TokenRecord struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	Type        TokenType `json:"type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Blacklisted bool      `json:"blacklisted"`
	CreatedAt   time.Time `json:"created_at"`
}
