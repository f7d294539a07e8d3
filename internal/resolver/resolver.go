// Package resolver implements the query and mutation operations over the
// account aggregate. Every operation returns a models.Response envelope; a
// non-nil error is reserved for failures the envelope cannot describe, such
// as an unreachable store or a hashing failure.
package resolver

import (
	"context"
	"log/slog"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/auth"
	"github.com/chetan-code/concentraction/internal/models"
	"github.com/chetan-code/concentraction/internal/repository"
)

// minPasswordLength matches the account schema constraint. bcrypt rejects
// secrets longer than maxPasswordBytes.
const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

// Operation is a single query or mutation handler.
type Operation[A any] func(ctx context.Context, args A) (models.Response, error)

type protectedOperation[A any] func(ctx context.Context, id *auth.Identity, args A) (models.Response, error)

// requireIdentity composes fn with the authorization gate: anonymous callers
// get a 401 envelope and never reach fn or the store.
func requireIdentity[A any](denied string, fn protectedOperation[A]) Operation[A] {
	return func(ctx context.Context, args A) (models.Response, error) {
		id := auth.IdentityFromContext(ctx)
		if id == nil {
			return failure(401, denied), nil
		}
		return fn(ctx, id, args)
	}
}

// Set is the operation table handed to the dispatcher.
type Set struct {
	AddUser       Operation[AddUserArgs]
	Login         Operation[LoginArgs]
	GetUser       Operation[NoArgs]
	GetTasks      Operation[NoArgs]
	GetObjectives Operation[NoArgs]
	AddTask       Operation[AddTaskArgs]
	UpdateTask    Operation[UpdateTaskArgs]
	DeleteTask    Operation[DeleteTaskArgs]
	UpdateUser    Operation[UpdateUserArgs]
}

type resolver struct {
	store  repository.AccountStore
	hasher *auth.Hasher
	tokens *auth.TokenCodec
}

func New(store repository.AccountStore, hasher *auth.Hasher, tokens *auth.TokenCodec) *Set {
	r := &resolver{store: store, hasher: hasher, tokens: tokens}
	return &Set{
		AddUser:       r.addUser,
		Login:         r.login,
		GetUser:       requireIdentity(msgDeniedGetUser, r.getUser),
		GetTasks:      requireIdentity(msgDeniedGetTasks, r.getTasks),
		GetObjectives: requireIdentity(msgDeniedGetObjectives, r.getObjectives),
		AddTask:       requireIdentity(msgDeniedAddTask, r.addTask),
		UpdateTask:    requireIdentity(msgDeniedUpdateTask, r.updateTask),
		DeleteTask:    requireIdentity(msgDeniedDeleteTask, r.deleteTask),
		UpdateUser:    requireIdentity(msgDeniedUpdateUser, r.updateUser),
	}
}

const (
	msgDeniedGetUser       = "You don't have permission to retrieve user"
	msgDeniedGetTasks      = "You don't have permission to retrieve tasks"
	msgDeniedGetObjectives = "You don't have permission to retrieve Objectives"
	msgDeniedAddTask       = "You don't have permission to add a task"
	msgDeniedUpdateTask    = "You don't have permission to update a task"
	msgDeniedDeleteTask    = "You don't have permission to delete a task"
	msgDeniedUpdateUser    = "You don't have permission to update this user"

	msgBadCredentials = "Incorrect email or password"
)

func failure(code int, message string) models.Response {
	return models.Response{Code: code, Success: false, Message: message}
}

func success(message string) models.Response {
	return models.Response{Code: 200, Success: true, Message: message}
}

// freshAccount re-reads the caller's account instead of trusting the
// request snapshot. A vanished account reads as ok == false.
func (r *resolver) freshAccount(ctx context.Context, id *auth.Identity) (models.Account, bool, error) {
	acc, err := r.store.FindByID(ctx, id.ID())
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return models.Account{}, false, nil
	}
	if err != nil {
		return models.Account{}, false, err
	}
	return acc, true, nil
}

func validateSecret(password string) bool {
	return len(password) >= minPasswordLength && len(password) <= maxPasswordBytes
}

func isValidation(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeValidationFailure)
}

func logRejected(op string, err error) {
	slog.Warn("resolver_rejected", "operation", op, "error", err)
}
