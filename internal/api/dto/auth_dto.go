package dto

import "time"

type CredentialDTO struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type SignUpDTO struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

type TokenDTO struct {
	Token     string    `json:"token"`
	UserID    uint64    `json:"userId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}
