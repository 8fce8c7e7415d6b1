package dto

import "time"

type CreateGoalRequest struct {
	// UserID defaults to the caller. Setting it to someone else requires the admin role.
	UserID      string     `json:"userId" validate:"omitempty,uuid"`
	Title       string     `json:"title" validate:"required,max=128"`
	Description string     `json:"description" validate:"max=1024"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateGoalRequest struct {
	Title       string     `json:"title" validate:"required,max=128"`
	Description string     `json:"description" validate:"max=1024"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
}

type GoalResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
