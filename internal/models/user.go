package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// User represents an account caring for one or more pets.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"` // bcrypt hash, never serialized
	// Avatar is optional and stores a profile picture URL.
	Avatar string `json:"avatar,omitempty"`

	Ownerships []PetOwnership `json:"-"`
}

/** -------------------- DTOs -------------------- */

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Avatar    string    `json:"avatar,omitempty"`
}

// LoginResponse represents the response for a successful login
// swagger:model
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UpdateProfileRequest struct {
	CurrentPassword string  `json:"current_password" binding:"required"`
	Username        *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Password        *string `json:"password,omitempty" binding:"omitempty,min=8"`
	Avatar          *string `json:"avatar,omitempty"`
}
