package repository

import (
	"errors"

	"gorm.io/gorm"

	ers "github.com/customeros/dmarcstore/internal/errors"
)

// translate maps a gorm/driver error into the store's fault taxonomy.
// Errors already belonging to the taxonomy pass through unchanged so that
// transaction wrappers do not double-wrap. Duplicate-key errors are handled
// at the call sites that expect them; any reaching this point is a fault.
func translate(op, entity, key string, err error) error {
	if err == nil {
		return nil
	}

	var softErr *ers.SoftError
	var validationErr *ers.ValidationError
	var storageFault *ers.StorageFault
	switch {
	case errors.As(err, &softErr),
		errors.As(err, &validationErr),
		errors.As(err, &storageFault),
		ers.IsNotFound(err),
		ers.IsConflict(err):
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ers.ErrNotFound
	}

	return ers.NewStorageFault(op, entity, key, err)
}
