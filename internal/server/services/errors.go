// Package services implements the business logic of the block tree: the
// block store, field store, breadcrumb resolver, search engine, accounts
// and bulk transfer. Services receive the tenant id as an explicit
// parameter on every call; nothing is ambient.
package services

import (
	"errors"
	"fmt"

	"blockvault/internal/common"
)

// storageErr funnels backend failures into the opaque ErrorStorage category
// with the cause attached for logging. Sentinel errors coming from lower
// layers pass through untouched so callers can still match them.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorValidation) ||
		errors.Is(err, common.ErrorConflict) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrorStorage, err)
}
