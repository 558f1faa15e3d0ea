package models

import (
	"time"
)

type UserRole string

const (
	RoleStandard UserRole = "standard"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	Role         UserRole  `gorm:"type:varchar(10);not null;default:'standard'" json:"role"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	Bio          string    `gorm:"type:text" json:"bio"`
	ProfileImage string    `gorm:"type:varchar(500)" json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	CreatedProjects []Project       `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedTasks    []Task          `gorm:"foreignKey:CreatedByID" json:"-"`
	AssignedTasks   []Task          `gorm:"foreignKey:AssignedToID" json:"-"`
	Memberships     []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user has administrative privileges,
// either through the admin role or the staff flag.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsStaff
}
