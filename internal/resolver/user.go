package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/auth"
	"github.com/chetan-code/concentraction/internal/models"
	"github.com/chetan-code/concentraction/internal/repository"
)

// addUser is signup. Any rejection, including a duplicate username or
// email, is reported as 401.
func (r *resolver) addUser(ctx context.Context, args AddUserArgs) (models.Response, error) {
	name := strings.TrimSpace(args.Name)
	email := strings.TrimSpace(args.Content.Email)
	if name == "" || email == "" || !validateSecret(args.Content.Password) {
		return failure(401, "Failed to add new user"), nil
	}

	hashed, err := r.hasher.Hash(args.Content.Password)
	if err != nil {
		return models.Response{}, err
	}

	acc, err := r.store.Insert(ctx, models.Account{
		Username:     name,
		PasswordHash: hashed,
		Email:        email,
	})
	if isValidation(err) {
		logRejected("addUser", err)
		return failure(401, "Failed to add new user"), nil
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("insert account: %w", err)
	}

	token, err := r.tokens.Sign(acc.ID)
	if err != nil {
		return models.Response{}, err
	}
	slog.Info("user_signup_success", "user_id", acc.ID)

	resp := success("Successfully added new user")
	resp.User = &acc
	resp.Token = token
	return resp, nil
}

// login answers identically for an unknown email and a wrong password.
func (r *resolver) login(ctx context.Context, args LoginArgs) (models.Response, error) {
	email := strings.TrimSpace(args.Content.Email)
	if email == "" {
		return failure(401, msgBadCredentials), nil
	}

	acc, err := r.store.FindOne(ctx, repository.Filter{Email: email})
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return failure(401, msgBadCredentials), nil
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("find account: %w", err)
	}
	if !r.hasher.Verify(args.Content.Password, acc.PasswordHash) {
		return failure(401, msgBadCredentials), nil
	}

	token, err := r.tokens.Sign(acc.ID)
	if err != nil {
		return models.Response{}, err
	}

	resp := success("Successfully logged in")
	resp.User = &acc
	resp.Token = token
	return resp, nil
}

func (r *resolver) getUser(ctx context.Context, id *auth.Identity, _ NoArgs) (models.Response, error) {
	return r.accountResponse(ctx, id, msgDeniedGetUser, "Successfully retrieved user")
}

func (r *resolver) getTasks(ctx context.Context, id *auth.Identity, _ NoArgs) (models.Response, error) {
	return r.accountResponse(ctx, id, msgDeniedGetTasks, "Successfully retrieved tasks")
}

func (r *resolver) getObjectives(ctx context.Context, id *auth.Identity, _ NoArgs) (models.Response, error) {
	return r.accountResponse(ctx, id, msgDeniedGetObjectives, "Successfully retrieved Objectives")
}

func (r *resolver) accountResponse(ctx context.Context, id *auth.Identity, denied, message string) (models.Response, error) {
	acc, ok, err := r.freshAccount(ctx, id)
	if err != nil {
		return models.Response{}, fmt.Errorf("find account: %w", err)
	}
	if !ok {
		return failure(401, denied), nil
	}
	resp := success(message)
	resp.User = &acc
	return resp, nil
}

// updateUser changes the caller's own username, email or password.
func (r *resolver) updateUser(ctx context.Context, id *auth.Identity, args UpdateUserArgs) (models.Response, error) {
	if args.ID != id.ID() {
		return failure(403, msgDeniedUpdateUser), nil
	}

	var fields repository.AccountFields
	if args.Name != nil {
		name := strings.TrimSpace(*args.Name)
		if name == "" {
			return failure(401, "Failed to update user"), nil
		}
		fields.Username = &name
	}
	if args.Email != nil {
		email := strings.TrimSpace(*args.Email)
		if email == "" {
			return failure(401, "Failed to update user"), nil
		}
		fields.Email = &email
	}
	if args.Password != nil {
		if !validateSecret(*args.Password) {
			return failure(401, "Failed to update user"), nil
		}
		hashed, err := r.hasher.Hash(*args.Password)
		if err != nil {
			return models.Response{}, err
		}
		fields.PasswordHash = &hashed
	}

	if !fields.Empty() {
		res, err := r.store.SetAccountFields(ctx, id.ID(), fields)
		if isValidation(err) {
			logRejected("updateUser", err)
			return failure(401, "Failed to update user"), nil
		}
		if err != nil {
			return models.Response{}, fmt.Errorf("update account: %w", err)
		}
		if !res.Acknowledged {
			return failure(500, "User update was not acknowledged"), nil
		}
		if res.MatchedCount == 0 {
			return failure(401, msgDeniedUpdateUser), nil
		}
	}

	acc, ok, err := r.freshAccount(ctx, id)
	if err != nil {
		return models.Response{}, fmt.Errorf("find account: %w", err)
	}
	if !ok {
		return failure(401, msgDeniedUpdateUser), nil
	}
	resp := success("Successfully updated user")
	resp.User = &acc
	return resp, nil
}
