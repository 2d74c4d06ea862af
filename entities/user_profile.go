package entities

import (
	"fmt"

	"github.com/skif48/wellness-engine/leveling"
)

type UserProfile struct {
	Id        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	Avatar    string `json:"avatar" db:"avatar"`
	Bio       string `json:"bio" db:"bio"`
	Xp        int    `json:"xp" db:"xp"`
	Level     int    `json:"level" db:"level"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

func (u *UserProfile) Progress() leveling.UserProgress {
	return leveling.UserProgress{Level: u.Level, Xp: u.Xp}
}

// DefaultAvatar is the generated avatar a profile starts with.
func DefaultAvatar(userId string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/bottts/svg?seed=%s", userId)
}

type CreateUserProfileDto struct {
	Name         string
	Email        string
	PasswordHash string
	Progress     leveling.UserProgress
}

type UpdateUserProfileDto struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

type Credentials struct {
	Email        string `db:"email"`
	UserId       string `db:"id"`
	PasswordHash string `db:"password_hash"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

// ProgressUpdate is the outcome of applying an XP award to a user.
type ProgressUpdate struct {
	UserId    string                `json:"user_id"`
	Before    leveling.UserProgress `json:"before"`
	After     leveling.UserProgress `json:"after"`
	LeveledUp bool                  `json:"leveled_up"`
}
