package service

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/infrastructure/lock"
	"github.com/Josephquito/back-streaming/pkg/apperr"
)

// Identity is the caller extracted from the session token. Every mutating
// operation scopes its reads and writes to the caller's business.
type Identity struct {
	UserID     int64
	BusinessID int64
	Role       string
}

func (i Identity) RequireBusiness() error {
	if i.BusinessID == 0 {
		return apperr.Unauthorizedf("tu usuario no está asociado a un negocio")
	}
	return nil
}

// withLedgerLock serializes a ledger mutation for one (platform, business)
// key and runs fn inside a single database transaction. Partial application
// of a multi-step operation must never be observable, and two writers must
// never recompute the moving average from the same stale read.
func withLedgerLock(ctx context.Context, db *gorm.DB, rdb *redis.Client, platformID, businessID int64, fn func(tx *gorm.DB) error) error {
	l := lock.NewInventoryLock(rdb, platformID, businessID, uuid.NewString())
	if err := l.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return err
	}
	defer l.Unlock(ctx)

	return db.Transaction(fn)
}
