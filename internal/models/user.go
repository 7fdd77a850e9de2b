package models

import (
	"time"
)

type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Username   string     `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email      string     `gorm:"uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"not null" json:"-"` // bcrypt hash
	FirstName  string     `gorm:"size:50" json:"first_name"`
	LastName   string     `gorm:"size:50" json:"last_name"`
	Avatar     string     `json:"avatar"` // URL to profile image
	Role       string     `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	Department string     `gorm:"size:100" json:"department"`
	Bio        string     `gorm:"size:500" json:"bio"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	LastLogin  *time.Time `json:"last_login"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	// No DeletedAt, accounts are deactivated via IsActive instead
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
