package dto

import (
	"time"

	"github.com/aokisa/project-tracker-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID           uint64          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Role         models.UserRole `json:"role"`
	Bio          string          `json:"bio,omitempty"`
	ProfileImage string          `json:"profile_image,omitempty"`
	IsAdmin      bool            `json:"is_admin"`
	CreatedAt    time.Time       `json:"created_at"`
}

// UserRefDTO is the minimal user representation embedded in other payloads
type UserRefDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// TokenResponse is the login payload: both tokens plus the user
type TokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	User         UserDTO `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         user.Role,
		Bio:          user.Bio,
		ProfileImage: user.ProfileImage,
		IsAdmin:      user.IsAdmin(),
		CreatedAt:    user.CreatedAt,
	}
}

// ToUserRefDTO converts a User model to its minimal representation
func ToUserRefDTO(user models.User) UserRefDTO {
	return UserRefDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}
