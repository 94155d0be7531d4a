// Package auth contiene los DTOs de los endpoints de autenticación.
package auth

import "time"

// LoginRequest: POST /api/v1/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest: POST /api/v1/auth/register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest: POST /api/v1/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RevokeRequest: POST /api/v1/auth/revoke. RefreshToken es opcional.
type RevokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair es la respuesta de login, register y refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // segundos
}

// UserResponse es la vista pública de un usuario.
type UserResponse struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// MeResponse: GET /api/v1/auth/me
type MeResponse struct {
	User      UserResponse `json:"user"`
	JTI       string       `json:"jti"`
	ExpiresAt time.Time    `json:"expires_at"`
	APIKeyID  *int64       `json:"api_key_id,omitempty"`
}

// AuthResult agrupa usuario y tokens (login/register).
type AuthResult struct {
	User   UserResponse `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

// RevokeAllResponse: POST /api/v1/auth/revoke-all
type RevokeAllResponse struct {
	RefreshTokensRevoked bool `json:"refresh_tokens_revoked"`
}
