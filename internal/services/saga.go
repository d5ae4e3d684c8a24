package services

import (
	"context"

	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/metrics"
)

// Step names, also used as metric labels.
const (
	stepUploadAsset   = "upload-asset"
	stepDeleteAsset   = "delete-asset"
	stepCommitRecords = "commit-records"
)

// sagaStep is one forward action with an optional compensation.
// A bestEffort step that fails is reported and the saga continues.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
	bestEffort bool
}

// runSaga runs steps in order. When a step fails, the compensations of the
// completed steps run in reverse order and the step's error is returned.
// Compensation failures are logged and counted, never returned.
//
// The saga is detached from caller cancellation: once started it runs to
// completion.
func runSaga(ctx context.Context, operation string, steps []sagaStep) error {
	ctx = context.WithoutCancel(ctx)

	done := make([]sagaStep, 0, len(steps))
	for _, step := range steps {
		err := step.run(ctx)
		if err == nil {
			done = append(done, step)
			continue
		}

		if step.bestEffort {
			logger.CtxWithError(ctx, "Best-effort saga step failed, continuing", err,
				"operation", operation,
				"step", step.name,
			)
			metrics.RecordCompensationFailure(operation, step.name)
			continue
		}

		logger.CtxWithError(ctx, "Saga step failed", err,
			"operation", operation,
			"step", step.name,
		)
		compensate(ctx, operation, done)

		if len(done) > 0 {
			metrics.RecordSaga(operation, metrics.OutcomeCompensated)
		} else {
			metrics.RecordSaga(operation, metrics.OutcomeFailed)
		}
		return err
	}

	metrics.RecordSaga(operation, metrics.OutcomeCommitted)
	return nil
}

func compensate(ctx context.Context, operation string, done []sagaStep) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			logger.CtxWithError(ctx, "CRITICAL: saga compensation failed", err,
				"operation", operation,
				"step", step.name,
			)
			metrics.RecordCompensationFailure(operation, step.name)
		}
	}
}
