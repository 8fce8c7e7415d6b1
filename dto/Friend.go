package dto

import "time"

type AddFriendRequest struct {
	EmailAddress string `json:"emailAddress" validate:"required,email,max=128"`
	Nickname     string `json:"nickname" validate:"max=64"`
}

type FriendResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	FriendUserID string    `json:"friendUserId"`
	FriendName   string    `json:"friendName,omitempty"`
	Nickname     string    `json:"nickname,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
