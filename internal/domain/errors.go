package domain

import "errors"

// Error taxonomy shared across gateways and services. Callers test with
// errors.Is; wrapping adds the operation context.
var (
	// ErrTransport marks a gateway call that failed at the HTTP level:
	// network error, timeout, or a non-2xx response. The operation is
	// retried on the next scheduled tick or webhook delivery.
	ErrTransport = errors.New("transport failure")

	// ErrNotFound marks a referenced Order, Product or Variation that is
	// absent when required.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate marks an insert that collided with an existing row on
	// a unique key. Callers holding the same fact treat it as losing a
	// race, not as a failure.
	ErrDuplicate = errors.New("already exists")

	// ErrCredential marks a login or refresh failure. Callers must not
	// proceed with a gateway call requiring the affected scope.
	ErrCredential = errors.New("credential failure")
)
