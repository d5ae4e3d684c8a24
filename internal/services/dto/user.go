package dto

import (
	"shareplace_backend/internal/models"
)

type SignupRequest struct {
	Name     string `form:"name" json:"name" validate:"required,notblank"`
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Image  string   `json:"image"`
	Places []string `json:"places"`
}

type UsersEnvelope struct {
	Users []*UserResponse `json:"users"`
}

func NewUserResponse(u *models.User) *UserResponse {
	places := make([]string, len(u.PlaceIDs))
	copy(places, u.PlaceIDs)
	return &UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Image:  u.ImageURL,
		Places: places,
	}
}
