package models

import "time"

// User 會員帳號，email 唯一
type User struct {
	ID           int       `json:"user_id" gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

type UserResponse struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
