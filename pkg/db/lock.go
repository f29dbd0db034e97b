package db

import (
	"fmt"

	"gorm.io/gorm"
)

// AdvisoryXactLock takes a Postgres transaction-scoped advisory lock keyed by
// the hash of key. The lock is released on commit or rollback. Other dialects
// serialize writers on their own, so the call is a no-op there.
func AdvisoryXactLock(tx *gorm.DB, key string) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if tx.Dialector == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error
}
