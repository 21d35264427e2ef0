package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/coinagedev/coinage/common/logging"
	"github.com/coinagedev/coinage/issuer/knobs"
	"github.com/coinagedev/coinage/ledger"
)

var (
	defaultTaskTimeout = 1 * time.Minute
	bootstrapTimeout   = 2 * time.Minute
)

// Env bundles the dependencies tasks operate on.
type Env struct {
	Ledger *ledger.Ledger
	Knobs  knobs.Knobs
	// AuditInterval is the conservation audit cadence. The
	// issuer.audit.interval_seconds knob overrides it when the task list
	// is built.
	AuditInterval time.Duration
	// OnAuditReport, when set, receives every conservation report so the
	// caller can export drift metrics.
	OnAuditReport func(ledger.Report)
	// Bootstrap, when set, runs once at startup with retries. The daemon
	// uses it to create its statically configured assets.
	Bootstrap func(context.Context) error
}

type Task func(context.Context, *Env) error

// BaseTaskSpec is a task that is scheduled to run.
type BaseTaskSpec struct { //nolint:revive
	// Name is the human-readable name of the task.
	Name string
	// Timeout is the maximum time the task is allowed to run before it will be cancelled.
	Timeout *time.Duration
	// If true, the task will not run
	Disabled bool
	// Task is the function that is run when the task is scheduled.
	Task Task
}

// ScheduledTaskSpec is a task that runs on a schedule.
type ScheduledTaskSpec struct {
	BaseTaskSpec
	// ExecutionInterval is the interval between each run of the task.
	ExecutionInterval time.Duration
}

// StartupTaskSpec is a task that runs once at startup.
type StartupTaskSpec struct {
	BaseTaskSpec
	// RetryInterval is the interval between retries for startup tasks. If nil, no retries are
	// performed. Retries matter when a startup task depends on other asynchronous setup, such
	// as a knobs file or static asset definitions only becoming consistent after boot.
	RetryInterval *time.Duration
}

// AllScheduledTasks returns all the tasks that are scheduled to run. The
// audit cadence is resolved from env's knobs when the list is built.
func AllScheduledTasks(env *Env) []ScheduledTaskSpec {
	auditInterval := env.AuditInterval
	if auditInterval <= 0 {
		auditInterval = time.Minute
	}
	if env.Knobs != nil {
		auditInterval = knobs.GetAuditInterval(env.Knobs, auditInterval)
	}

	return []ScheduledTaskSpec{
		{
			ExecutionInterval: auditInterval,
			BaseTaskSpec: BaseTaskSpec{
				Name: "conservation_audit",
				Task: func(ctx context.Context, env *Env) error {
					logger := logging.GetLoggerFromContext(ctx)

					report := env.Ledger.CheckConservation()
					if env.OnAuditReport != nil {
						env.OnAuditReport(report)
					}
					if report.Conserved {
						logger.Info("Conservation audit passed", "assets", len(report.Assets))
						return nil
					}

					violations := 0
					for _, audit := range report.Assets {
						if audit.Conserved {
							continue
						}
						violations++
						logger.Error("Asset failed conservation audit",
							"symbol", audit.Symbol,
							"total_supply", audit.TotalSupply,
							"custodied", audit.Custodied,
							"preissued", audit.Preissued,
							"drift", audit.Drift)
					}
					return fmt.Errorf("conservation audit failed for %d of %d assets, total drift %d", violations, len(report.Assets), report.TotalDrift())
				},
			},
		},
		{
			ExecutionInterval: 5 * time.Minute,
			BaseTaskSpec: BaseTaskSpec{
				Name: "ledger_stats",
				Task: func(ctx context.Context, env *Env) error {
					logger := logging.GetLoggerFromContext(ctx)

					infos := env.Ledger.Assets()
					for _, info := range infos {
						logger.Debug("Asset stats",
							"symbol", info.Symbol,
							"total_supply", info.TotalSupply,
							"custodied", info.Custodied)
					}
					logger.Info("Ledger stats", "assets", len(infos), "active_freezes", env.Ledger.ActiveFreezes())
					return nil
				},
			},
		},
	}
}

// AllStartupTasks returns the tasks that run once at startup.
func AllStartupTasks() []StartupTaskSpec {
	bootstrapRetryInterval := 10 * time.Second

	return []StartupTaskSpec{
		{
			RetryInterval: &bootstrapRetryInterval,
			BaseTaskSpec: BaseTaskSpec{
				Name:    "create_static_assets",
				Timeout: &bootstrapTimeout,
				Task: func(ctx context.Context, env *Env) error {
					if env.Bootstrap == nil {
						return nil
					}
					return env.Bootstrap(ctx)
				},
			},
		},
	}
}

func (t *BaseTaskSpec) getTimeout() time.Duration {
	if t.Timeout != nil {
		return *t.Timeout
	}
	return defaultTaskTimeout
}

// RunOnce runs the task immediately with the full middleware chain.
func (t *BaseTaskSpec) RunOnce(ctx context.Context, env *Env) error {
	wrappedTask := t.chainMiddleware(
		LogMiddleware(),
		TimeoutMiddleware(),
		PanicRecoveryMiddleware(),
	)

	return wrappedTask.Task(ctx, env)
}

// Schedule registers the task with the scheduler.
func (t *ScheduledTaskSpec) Schedule(scheduler gocron.Scheduler, env *Env) error {
	wrappedTask := t.chainMiddleware(
		LogMiddleware(),
		TimeoutMiddleware(),
		PanicRecoveryMiddleware(),
	)

	_, err := scheduler.NewJob(
		gocron.DurationJob(t.ExecutionInterval),
		gocron.NewTask(wrappedTask.Task, env),
		gocron.WithName(t.Name),
	)
	if err != nil {
		return err
	}

	return nil
}

// ScheduleAll registers every enabled scheduled task with the scheduler.
func ScheduleAll(scheduler gocron.Scheduler, env *Env) error {
	for _, spec := range AllScheduledTasks(env) {
		if spec.Disabled {
			continue
		}
		if err := spec.Schedule(scheduler, env); err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", spec.Name, err)
		}
	}
	return nil
}

// Wrap the task with the given middleware. This returns a new BaseTaskSpec whose Task function
// is wrapped with the provided middleware. The original task's fields are preserved.
func (t *BaseTaskSpec) wrapMiddleware(middleware TaskMiddleware) *BaseTaskSpec {
	return &BaseTaskSpec{
		Name:     t.Name,
		Timeout:  t.Timeout,
		Disabled: t.Disabled,
		Task: func(ctx context.Context, env *Env) error {
			return middleware(ctx, env, t)
		},
	}
}

// Wrap the task with the given middlewares chained together. The middlewares have their ordering
// preserved, so the first middleware in the slice will be the outermost, and the last middleware
// will be the innermost.
//
// +------- Middleware 1 -------+
// | +----- Middleware 2 -----+ |
// | | +--- Middleware 3 ---+ | |
// | | |                    | | |
// | | |   Task (t.Task)    | | |
// | | |                    | | |
// | | +--------------------+ | |
// | +------------------------+ |
// +----------------------------+
//
// Once the task has completed, the middlewares will be unwound in reverse order, so the last
// middleware will be the first to complete.
func (t *BaseTaskSpec) chainMiddleware(
	middlewares ...TaskMiddleware,
) *BaseTaskSpec {
	// Apply the middleware to the task so that the last middleware is the inner most.
	currTask := t

	for i := len(middlewares) - 1; i >= 0; i-- {
		innerTask, i := currTask, i
		currTask = innerTask.wrapMiddleware(middlewares[i])
	}

	return currTask
}

// RunStartupTasks runs startup tasks with optional retry logic.
// Any task with a non-nil RetryInterval will be retried in the background on failure.
func RunStartupTasks(ctx context.Context, env *Env) error {
	slog.Info("Running startup tasks...")

	for _, task := range AllStartupTasks() {
		if task.Disabled {
			continue
		}
		if task.RetryInterval != nil {
			go func(task StartupTaskSpec) {
				retryInterval := *task.RetryInterval

				for {
					err := task.RunOnce(ctx, env)
					if err == nil {
						break
					}

					if errors.Is(err, errTaskTimeout) {
						break
					}

					slog.Warn(fmt.Sprintf("Startup task failed, retrying in %s", retryInterval), "task.name", task.Name, "error", err)
					select {
					case <-ctx.Done():
						return
					case <-time.After(retryInterval):
					}
				}
			}(task)
		} else {
			task.RunOnce(ctx, env) // nolint: errcheck
		}
	}
	slog.Info("All startup tasks completed")
	return nil
}
