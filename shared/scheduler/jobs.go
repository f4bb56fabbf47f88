package scheduler

import (
	"context"
	"time"
)

// ConnectionChecker reports whether the language model backend answers.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) bool
}

type ConnectionRecorder interface {
	RecordModelCheck(connected bool)
}

// ModelProbeJob refreshes the cached model connectivity state.
type ModelProbeJob struct {
	Checker  ConnectionChecker
	Recorder ConnectionRecorder
	Timeout  time.Duration
}

func (j *ModelProbeJob) Name() string {
	return "model-probe"
}

func (j *ModelProbeJob) RunOnce(ctx context.Context) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	j.Recorder.RecordModelCheck(j.Checker.CheckConnection(ctx))
	return nil
}

// Pruner removes expired stored results.
type Pruner interface {
	Prune() (int, error)
}

// RetentionJob enforces the output retention window.
type RetentionJob struct {
	Store Pruner
}

func (j *RetentionJob) Name() string {
	return "output-retention"
}

func (j *RetentionJob) RunOnce(ctx context.Context) error {
	_, err := j.Store.Prune()
	return err
}
