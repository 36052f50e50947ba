package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no subscription exists for the requested id.
var ErrNotFound = errors.New("subscription not found")

// ValidationError reports missing or malformed subscribe input. It is
// user-fixable and maps to a 400 at the HTTP boundary.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s is required or invalid", e.Field)
}

// ProvisioningError means the external panel rejected or failed account
// creation. Nothing was persisted; the request is aborted.
type ProvisioningError struct {
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed: %v", e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// PersistenceError means the store write failed after provisioning already
// succeeded. The provisioned panel account is not rolled back and becomes an
// orphan; the idempotency key logged alongside allows manual reconciliation.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
