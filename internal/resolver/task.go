package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chetan-code/concentraction/internal/auth"
	"github.com/chetan-code/concentraction/internal/models"
	"github.com/chetan-code/concentraction/internal/repository"
)

// addTask pushes a task onto the caller's task sequence. The push and the
// read-back are separate store calls; a failure between them leaves the task
// stored but unreported.
func (r *resolver) addTask(ctx context.Context, id *auth.Identity, args AddTaskArgs) (models.Response, error) {
	if err := args.Content.Validate(); err != nil {
		logRejected("addTask", err)
		return failure(401, "Failed to add task: "+err.Error()), nil
	}

	res, err := r.store.PushTask(ctx, id.ID(), args.Content.Task())
	if isValidation(err) {
		logRejected("addTask", err)
		return failure(401, "Failed to add task"), nil
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("push task: %w", err)
	}
	if !res.Acknowledged || res.ModifiedCount != 1 {
		slog.Error("task_push_not_applied", "user_id", id.ID(), "acknowledged", res.Acknowledged, "modified", res.ModifiedCount)
		return failure(500, "Task was not added"), nil
	}

	acc, ok, err := r.freshAccount(ctx, id)
	if err != nil {
		return models.Response{}, fmt.Errorf("find account: %w", err)
	}
	if !ok {
		return failure(401, msgDeniedAddTask), nil
	}

	// Locate by the id assigned at push time. The tail position is only
	// the new task when no other push raced this one.
	var (
		task  models.Task
		found bool
	)
	if res.InsertedID != "" {
		task, found = acc.TaskByID(res.InsertedID)
	} else {
		task, found = acc.LatestTask()
	}
	if !found {
		return failure(500, "Task was added but could not be read back"), nil
	}

	resp := success("Task successfully added")
	resp.Task = &task
	return resp, nil
}

// updateTask sets only name, category and status; every other task field
// is left as stored.
func (r *resolver) updateTask(ctx context.Context, id *auth.Identity, args UpdateTaskArgs) (models.Response, error) {
	if err := args.Content.Validate(); err != nil {
		logRejected("updateTask", err)
		return failure(401, "Failed to update task: "+err.Error()), nil
	}
	if args.ID == "" {
		return failure(404, "Task not found"), nil
	}

	res, err := r.store.SetTaskFields(ctx, id.ID(), args.ID, repository.TaskFields{
		Name:     args.Content.Name,
		Category: args.Content.Category,
		Status:   args.Content.Status,
	})
	if isValidation(err) {
		logRejected("updateTask", err)
		return failure(401, "Failed to update task"), nil
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("update task: %w", err)
	}
	switch {
	case !res.Acknowledged:
		return failure(500, "Task update was not acknowledged"), nil
	case res.MatchedCount == 0:
		return failure(404, "Task not found"), nil
	case res.ModifiedCount != 1:
		slog.Warn("task_update_not_applied", "user_id", id.ID(), "task_id", args.ID, "modified", res.ModifiedCount)
		return failure(500, "Task update acknowledged but no task was modified"), nil
	}

	acc, ok, err := r.freshAccount(ctx, id)
	if err != nil {
		return models.Response{}, fmt.Errorf("find account: %w", err)
	}
	if !ok {
		return failure(401, msgDeniedUpdateTask), nil
	}
	task, found := acc.TaskByID(args.ID)
	if !found {
		return failure(404, "Task not found"), nil
	}

	resp := success("Task successfully updated")
	resp.Task = &task
	return resp, nil
}

// deleteTask is routed but task removal is not supported yet.
func (r *resolver) deleteTask(_ context.Context, id *auth.Identity, args DeleteTaskArgs) (models.Response, error) {
	slog.Info("task_delete_rejected", "user_id", id.ID(), "task_id", args.ID)
	return failure(501, "Deleting tasks is not implemented"), nil
}
