// Package repository persists the Account aggregate and its embedded tasks.
package repository

import (
	"context"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/models"
)

// ErrNotFound indicates a requested account is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "account not found")

// Filter selects an account by email. An empty filter matches nothing.
type Filter struct {
	Email string
}

// UpdateResult is the store acknowledgement for a push or set update.
type UpdateResult struct {
	Acknowledged  bool
	MatchedCount  int64
	ModifiedCount int64
	// InsertedID is the identifier assigned to a pushed task.
	InsertedID string
}

// TaskFields are the only task fields an update may touch.
type TaskFields struct {
	Name     string
	Category models.Category
	Status   models.Status
}

// AccountFields holds optional account updates; nil fields are left unchanged.
type AccountFields struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether no field is set.
func (f AccountFields) Empty() bool {
	return f.Username == nil && f.Email == nil && f.PasswordHash == nil
}

// AccountStore persists accounts. Each push or set targets a single account
// and is atomic at the store level; nothing spans multiple calls.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindOne(ctx context.Context, filter Filter) (models.Account, error)
	Insert(ctx context.Context, account models.Account) (models.Account, error)
	PushTask(ctx context.Context, accountID string, task models.Task) (UpdateResult, error)
	SetTaskFields(ctx context.Context, accountID, taskID string, fields TaskFields) (UpdateResult, error)
	SetAccountFields(ctx context.Context, accountID string, fields AccountFields) (UpdateResult, error)
}

func duplicateError(cause error) error {
	return apperrors.Wrap(apperrors.CodeValidationFailure, "duplicate account field", cause)
}

func unavailableError(op string, cause error) error {
	return apperrors.Wrap(apperrors.CodeStoreUnavailable, op, cause)
}
