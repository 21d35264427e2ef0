package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/coinagedev/coinage/common/logging"
)

var (
	errTaskTimeout = fmt.Errorf("task timed out")
	errTaskPanic   = fmt.Errorf("task panicked")
)

type TaskMiddleware func(context.Context, *Env, *BaseTaskSpec) error //nolint:revive

// LogMiddleware opens a span for the run, scopes the context logger to it,
// and logs start, outcome, and duration.
func LogMiddleware() TaskMiddleware {
	return func(ctx context.Context, env *Env, task *BaseTaskSpec) error {
		ctx, span := otel.Tracer("gocron").Start(ctx, task.Name)
		defer span.End()

		ctx, logger := logging.WithAttrs(ctx,
			slog.String("task.name", task.Name),
			slog.String("task.run_id", uuid.New().String()),
			slog.String("task.trace_id", span.SpanContext().TraceID().String()),
		)

		logger.Info("Executing task")
		start := time.Now()

		if err := task.Task(ctx, env); err != nil {
			span.SetStatus(codes.Error, err.Error())
			logger.Error("Task execution failed", "error", err, "duration", time.Since(start))
			return err
		}

		logger.Info("Task executed successfully", "duration", time.Since(start))
		return nil
	}
}

// TimeoutMiddleware bounds the run with the task's timeout. The task funcs
// are expected to honor ctx; a run that overstays is abandoned, not killed.
func TimeoutMiddleware() TaskMiddleware {
	return func(ctx context.Context, env *Env, task *BaseTaskSpec) error {
		timeout := task.getTimeout()
		ctx, cancel := context.WithTimeoutCause(ctx, timeout, errTaskTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- task.Task(ctx, env)
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			err := context.Cause(ctx)
			logger := logging.GetLoggerFromContext(ctx)
			if errors.Is(err, errTaskTimeout) {
				logger.Warn("Task timed out", "timeout", timeout)
			} else {
				logger.Warn("Context done before task completion", "error", err)
			}
			return err
		}
	}
}

// PanicRecoveryMiddleware turns a panicking task into an error so one bad
// run cannot take the scheduler down.
func PanicRecoveryMiddleware() TaskMiddleware {
	return func(ctx context.Context, env *Env, task *BaseTaskSpec) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.GetLoggerFromContext(ctx).Error("Panic in task execution",
					"task", task.Name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				err = fmt.Errorf("%w: %v", errTaskPanic, r)
			}
		}()

		return task.Task(ctx, env)
	}
}
