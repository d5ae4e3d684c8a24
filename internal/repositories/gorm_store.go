package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"shareplace_backend/internal/logger"
)

// PostgreSQL error codes a transaction is retried on.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// GormStore is the PostgreSQL RecordStore.
type GormStore struct {
	db         *gorm.DB
	maxRetries int
	inTx       bool
}

func NewGormStore(db *gorm.DB, maxRetries int) *GormStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GormStore{db: db, maxRetries: maxRetries}
}

func (s *GormStore) Places() PlaceRepository {
	return &placeRepository{db: s.db}
}

func (s *GormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *GormStore) OrphanedAssets() OrphanedAssetRepository {
	return &orphanedAssetRepository{db: s.db}
}

// Transaction runs fn in a database transaction. The outermost call retries
// the whole closure on serialization failures and deadlocks; nested calls
// become savepoints.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx RecordStore) error) error {
	run := func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, maxRetries: s.maxRetries, inTx: true})
	}

	if s.inTx {
		return s.db.WithContext(ctx).Transaction(run)
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(run)
		if err == nil || !isRetryable(err) || attempt >= s.maxRetries {
			return err
		}

		logger.CtxWarn(ctx, "Retrying transaction", "attempt", attempt+1, "error", err.Error())

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}
