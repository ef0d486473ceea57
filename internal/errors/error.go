package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// common errors
	ErrNotFound = errors.New("not found")

	// conflict errors, expected on re-delivery of the same report
	ErrReportAlreadyLoaded = errors.New("report is already loaded")

	// business-rule rejections
	ErrDomainInactive   = errors.New("domain is inactive")
	ErrUnknownDomain    = errors.New("unknown domain")
	ErrDomainHasReports = errors.New("domain still has reports")
)

// ValidationError marks malformed caller input, such as a bad filter value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// SoftError is a recoverable business-rule rejection wrapping one of the
// sentinel causes above.
type SoftError struct {
	Cause error
}

func (e *SoftError) Error() string {
	return e.Cause.Error()
}

func (e *SoftError) Unwrap() error {
	return e.Cause
}

func NewSoftError(cause error) error {
	return &SoftError{Cause: cause}
}

// StorageFault is a connectivity or constraint failure not attributable to
// caller input. It keeps the driver error for diagnostics but is what
// callers see instead of it.
type StorageFault struct {
	Op     string
	Entity string
	Key    string
	Err    error
}

func (e *StorageFault) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage fault: %s %s %q: %v", e.Op, e.Entity, e.Key, e.Err)
	}
	return fmt.Sprintf("storage fault: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageFault) Unwrap() error {
	return e.Err
}

func NewStorageFault(op, entity, key string, err error) error {
	return &StorageFault{Op: op, Entity: entity, Key: key, Err: err}
}

// ConfigurationFault means the store cannot be brought to the requested
// state, e.g. the migrator has no upgrade path.
type ConfigurationFault struct {
	Reason string
}

func (e *ConfigurationFault) Error() string {
	return e.Reason
}

func NewConfigurationFault(format string, args ...interface{}) error {
	return &ConfigurationFault{Reason: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrReportAlreadyLoaded)
}

func IsSoft(err error) bool {
	var soft *SoftError
	return errors.As(err, &soft)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
