package resolver

import "github.com/chetan-code/concentraction/internal/models"

// NoArgs is the argument set of the parameterless queries.
type NoArgs struct{}

type AddUserArgs struct {
	Name    string           `json:"name"`
	Content models.UserInput `json:"content"`
}

type LoginArgs struct {
	Content models.UserInput `json:"content"`
}

type AddTaskArgs struct {
	Content models.TaskContent `json:"content"`
}

type UpdateTaskArgs struct {
	ID      string             `json:"id"`
	Content models.TaskContent `json:"content"`
}

type DeleteTaskArgs struct {
	ID string `json:"id"`
}

// UpdateUserArgs carries optional account changes; nil fields stay as they are.
type UpdateUserArgs struct {
	ID       string  `json:"id"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
	Email    *string `json:"email,omitempty"`
}
