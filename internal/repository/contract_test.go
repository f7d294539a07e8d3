package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/models"
)

// testAccount returns an account with unique fields so contract runs can
// share a live database.
func testAccount() models.Account {
	suffix := uuid.NewString()
	return models.Account{
		Username:     "user-" + suffix,
		PasswordHash: "hash-" + suffix,
		Email:        suffix + "@example.com",
	}
}

// runStoreContract exercises the behavior every AccountStore adapter shares.
func runStoreContract(t *testing.T, store AccountStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert assigns id and find round trips", func(t *testing.T) {
		in := testAccount()
		acc, err := store.Insert(ctx, in)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if acc.ID == "" {
			t.Fatal("expected assigned id")
		}
		if len(acc.Tasks) != 0 || acc.Tasks == nil {
			t.Fatalf("expected empty non-nil tasks, got %#v", acc.Tasks)
		}

		got, err := store.FindByID(ctx, acc.ID)
		if err != nil {
			t.Fatalf("find by id: %v", err)
		}
		if got.Username != in.Username || got.Email != in.Email || got.PasswordHash != in.PasswordHash {
			t.Fatalf("FindByID = %+v, want fields of %+v", got, in)
		}

		byEmail, err := store.FindOne(ctx, Filter{Email: in.Email})
		if err != nil {
			t.Fatalf("find by email: %v", err)
		}
		if byEmail.ID != acc.ID {
			t.Fatalf("FindOne(email) id = %q, want %q", byEmail.ID, acc.ID)
		}
	})

	t.Run("missing account is not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, "000000000000000000000000")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		_, err = store.FindOne(ctx, Filter{Email: uuid.NewString() + "@nowhere.test"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty filter matches no account", func(t *testing.T) {
		if _, err := store.Insert(ctx, testAccount()); err != nil {
			t.Fatalf("insert: %v", err)
		}
		_, err := store.FindOne(ctx, Filter{})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("FindOne(empty) = %v, want ErrNotFound", err)
		}
		_, err = store.FindByID(ctx, "")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("FindByID(empty) = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate unique fields are validation failures", func(t *testing.T) {
		first := testAccount()
		if _, err := store.Insert(ctx, first); err != nil {
			t.Fatalf("insert: %v", err)
		}

		dupUser := testAccount()
		dupUser.Username = first.Username
		_, err := store.Insert(ctx, dupUser)
		if !apperrors.HasCode(err, apperrors.CodeValidationFailure) {
			t.Fatalf("duplicate username: expected validation failure, got %v", err)
		}

		dupEmail := testAccount()
		dupEmail.Email = first.Email
		_, err = store.Insert(ctx, dupEmail)
		if !apperrors.HasCode(err, apperrors.CodeValidationFailure) {
			t.Fatalf("duplicate email: expected validation failure, got %v", err)
		}
	})

	t.Run("push appends at tail and returns inserted id", func(t *testing.T) {
		acc, err := store.Insert(ctx, testAccount())
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		var ids []string
		for _, name := range []string{"first", "second", "third"} {
			res, err := store.PushTask(ctx, acc.ID, models.Task{
				Name:      name,
				Priority:  models.PriorityHigh,
				Category:  models.CategoryWork,
				Status:    models.StatusTodo,
				StartDate: &start,
				Desc:      "desc " + name,
			})
			if err != nil {
				t.Fatalf("push %s: %v", name, err)
			}
			if !res.Acknowledged || res.ModifiedCount != 1 || res.InsertedID == "" {
				t.Fatalf("push %s result = %+v", name, res)
			}
			ids = append(ids, res.InsertedID)
		}

		got, err := store.FindByID(ctx, acc.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got.Tasks) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(got.Tasks))
		}
		latest, _ := got.LatestTask()
		if latest.ID != ids[2] || latest.Name != "third" {
			t.Fatalf("latest task = %+v, want id %q", latest, ids[2])
		}
		if got.Tasks[0].StartDate == nil || !got.Tasks[0].StartDate.Equal(start) {
			t.Fatalf("start date = %v, want %v", got.Tasks[0].StartDate, start)
		}
		if got.Tasks[0].Priority != models.PriorityHigh || got.Tasks[0].Desc != "desc first" {
			t.Fatalf("unexpected first task %+v", got.Tasks[0])
		}
	})

	t.Run("push to missing account modifies nothing", func(t *testing.T) {
		res, err := store.PushTask(ctx, "000000000000000000000000", models.Task{
			Name: "orphan", Category: models.CategoryOther, Status: models.StatusTodo,
		})
		if err != nil {
			t.Fatalf("push: %v", err)
		}
		if res.ModifiedCount != 0 || res.InsertedID != "" {
			t.Fatalf("expected no modification, got %+v", res)
		}
	})

	t.Run("set task fields touches only name category status", func(t *testing.T) {
		acc, err := store.Insert(ctx, testAccount())
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		push, err := store.PushTask(ctx, acc.ID, models.Task{
			Name: "draft", Priority: models.PriorityLow, Category: models.CategoryWork,
			Status: models.StatusTodo, EndDate: &end, Desc: "keep me",
		})
		if err != nil {
			t.Fatalf("push: %v", err)
		}

		fields := TaskFields{Name: "final", Category: models.CategoryPersonal, Status: models.StatusDone}
		res, err := store.SetTaskFields(ctx, acc.ID, push.InsertedID, fields)
		if err != nil {
			t.Fatalf("set: %v", err)
		}
		if !res.Acknowledged || res.MatchedCount != 1 || res.ModifiedCount != 1 {
			t.Fatalf("set result = %+v", res)
		}

		got, err := store.FindByID(ctx, acc.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		task, ok := got.TaskByID(push.InsertedID)
		if !ok {
			t.Fatal("task missing after update")
		}
		if task.Name != "final" || task.Category != models.CategoryPersonal || task.Status != models.StatusDone {
			t.Fatalf("fields not updated: %+v", task)
		}
		if task.Priority != models.PriorityLow || task.Desc != "keep me" || task.EndDate == nil || !task.EndDate.Equal(end) {
			t.Fatalf("untouched fields changed: %+v", task)
		}

		again, err := store.SetTaskFields(ctx, acc.ID, push.InsertedID, fields)
		if err != nil {
			t.Fatalf("set again: %v", err)
		}
		if again.MatchedCount != 1 || again.ModifiedCount != 0 {
			t.Fatalf("identical set result = %+v, want matched 1 modified 0", again)
		}

		missing, err := store.SetTaskFields(ctx, acc.ID, "000000000000000000000000", fields)
		if err != nil {
			t.Fatalf("set missing: %v", err)
		}
		if missing.MatchedCount != 0 || missing.ModifiedCount != 0 {
			t.Fatalf("missing task result = %+v", missing)
		}
	})

	t.Run("set account fields", func(t *testing.T) {
		acc, err := store.Insert(ctx, testAccount())
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		email := uuid.NewString() + "@changed.test"
		res, err := store.SetAccountFields(ctx, acc.ID, AccountFields{Email: &email})
		if err != nil {
			t.Fatalf("set: %v", err)
		}
		if res.ModifiedCount != 1 {
			t.Fatalf("set result = %+v", res)
		}
		got, err := store.FindByID(ctx, acc.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Email != email || got.Username != acc.Username {
			t.Fatalf("unexpected account after update: %+v", got)
		}

		other, err := store.Insert(ctx, testAccount())
		if err != nil {
			t.Fatalf("insert other: %v", err)
		}
		_, err = store.SetAccountFields(ctx, other.ID, AccountFields{Email: &email})
		if !apperrors.HasCode(err, apperrors.CodeValidationFailure) {
			t.Fatalf("expected validation failure, got %v", err)
		}
	})
}
