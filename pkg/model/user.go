package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	UserID         uuid.UUID `json:"id" db:"user_id"`
	GoogleID       string    `json:"googleId" db:"google_id"`
	Email          string    `json:"email" db:"email"`
	Name           string    `json:"name" db:"name"`
	ProfilePicture string    `json:"profilePicture,omitempty" db:"profile_picture"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// GoogleIDTokenReq is the body of signup and signin.
type GoogleIDTokenReq struct {
	IDToken string `json:"idToken" binding:"required"`
}

type AuthRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type UpdateProfileReq struct {
	Name           *string `json:"name" binding:"omitempty,notblank,max=100"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,url"`
}
