// Package jobs defines background tasks processed by the asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/attendance"
	"github.com/khandaa/adminbase/internal/features"
	jobmetrics "github.com/khandaa/adminbase/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskActivitySweep prunes activity-log entries past retention.
	TaskActivitySweep = "maintenance:activity_sweep"
	// TaskAttendanceSweep deletes expired attendance codes.
	TaskAttendanceSweep = "maintenance:attendance_sweep"
	// TaskToggleRefresh reloads the feature toggle cache snapshot.
	TaskToggleRefresh = "features:refresh"
)

// ActivitySweepPayload carries the retention window for the sweep.
type ActivitySweepPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewActivitySweepTask constructs an Asynq task.
func NewActivitySweepTask(payload ActivitySweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivitySweep, data), nil
}

// NewAttendanceSweepTask constructs an Asynq task with no payload.
func NewAttendanceSweepTask() *asynq.Task {
	return asynq.NewTask(TaskAttendanceSweep, nil)
}

// NewToggleRefreshTask constructs an Asynq task with no payload.
func NewToggleRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskToggleRefresh, nil)
}

// Handlers bundles the services the maintenance tasks operate on.
type Handlers struct {
	Activity   *activity.Service
	Attendance *attendance.Service
	Toggles    *features.Cache
	Metrics    *jobmetrics.Metrics
	Logger     *slog.Logger
}

// HandleActivitySweep processes TaskActivitySweep tasks.
func (h Handlers) HandleActivitySweep(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("activity_sweep")
	var payload ActivitySweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if payload.RetentionHours <= 0 {
		return tracker.End(asynq.SkipRetry)
	}
	deleted, err := h.Activity.Sweep(ctx, time.Duration(payload.RetentionHours)*time.Hour)
	if err != nil {
		h.log().Error("activity sweep", slog.Any("error", err))
		return tracker.End(err)
	}
	h.Metrics.AddSwept("activity_sweep", deleted)
	h.log().Info("activity sweep complete", slog.Int64("deleted", deleted))
	return tracker.End(nil)
}

// HandleAttendanceSweep processes TaskAttendanceSweep tasks.
func (h Handlers) HandleAttendanceSweep(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("attendance_sweep")
	deleted, err := h.Attendance.Sweep(ctx)
	if err != nil {
		h.log().Error("attendance sweep", slog.Any("error", err))
		return tracker.End(err)
	}
	h.Metrics.AddSwept("attendance_sweep", deleted)
	h.log().Info("attendance sweep complete", slog.Int64("deleted", deleted))
	return tracker.End(nil)
}

// HandleToggleRefresh processes TaskToggleRefresh tasks. A failed refresh
// keeps the previous snapshot so a retry is safe.
func (h Handlers) HandleToggleRefresh(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("toggle_refresh")
	if err := h.Toggles.Refresh(ctx); err != nil {
		h.log().Warn("toggle refresh", slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}

func (h Handlers) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
