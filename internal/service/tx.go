package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// errSavepointLost means a failed step could not be rolled back to its
// savepoint, leaving the enclosing transaction unusable.
var errSavepointLost = errors.New("savepoint rollback failed")

// withSavepoint runs fn inside a named savepoint of tx. When fn fails its
// writes are rolled back to the savepoint and the error is returned; the
// enclosing transaction stays usable unless the error wraps errSavepointLost.
func withSavepoint(tx *gorm.DB, name string, fn func(tx *gorm.DB) error) error {
	if tx == nil {
		return fn(nil)
	}
	if err := tx.SavePoint(name).Error; err != nil {
		return fmt.Errorf("%w: %v", errSavepointLost, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			return fmt.Errorf("%w: %v (after %v)", errSavepointLost, rbErr, err)
		}
		return err
	}
	return nil
}
