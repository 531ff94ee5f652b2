package models

import "time"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	ProfileImage   string    `json:"profile_image"`
	CoverImage     string    `json:"cover_image"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	FollowersCount int32     `json:"followers_count"`
	FollowingCount int32     `json:"following_count"`
}

// AuthorSummary is the slice of a user embedded in tweets and comments.
type AuthorSummary struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
	IsVerified   bool   `json:"is_verified"`
}

func (u *User) Summary() *AuthorSummary {
	return &AuthorSummary{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
		IsVerified:   u.IsVerified,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Username string
	Password string
}

// UserPatch carries the profile fields to change. Nil fields are left as
// they are.
type UserPatch struct {
	Name         *string
	Bio          *string
	ProfileImage *string
	CoverImage   *string
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Bio == nil && p.ProfileImage == nil && p.CoverImage == nil
}

// NewUser is what the user repository persists on registration.
type NewUser struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}
