package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Handlers map them to HTTP status codes through HTTPError.
var (
	ErrValidation         = errors.New("validation error")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientCredit = errors.New("insufficient credit limit")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrSecurityIncident   = errors.New("security incident")
	ErrStorage            = errors.New("storage error")
)

// HTTPError carries the status and the client-facing message.
// Cause is logged by the handler and never sent to the client.
type HTTPError struct {
	Status  int
	Message string
	Kind    error
	Cause   error
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *HTTPError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func NewValidationError(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message, Kind: ErrValidation}
}

func NewEmptyCartError() error {
	return &HTTPError{Status: http.StatusBadRequest, Message: "cart is empty", Kind: ErrEmptyCart}
}

func NewInsufficientCreditError() error {
	return &HTTPError{Status: http.StatusBadRequest, Message: "insufficient credit limit", Kind: ErrInsufficientCredit}
}

func NewUnauthorizedError(message string) error {
	return &HTTPError{Status: http.StatusUnauthorized, Message: message, Kind: ErrUnauthorized}
}

func NewForbiddenError(message string) error {
	return &HTTPError{Status: http.StatusForbidden, Message: message, Kind: ErrForbidden}
}

func NewNotFoundError(message string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: message, Kind: ErrNotFound}
}

func NewConflictError(message string) error {
	return &HTTPError{Status: http.StatusConflict, Message: message, Kind: ErrConflict}
}

// refresh token の再利用・UA不一致
func NewSecurityIncidentError() error {
	return &HTTPError{Status: http.StatusUnauthorized, Message: "security incident", Kind: ErrSecurityIncident}
}

// NewStorageError hides cause behind a generic 500.
func NewStorageError(cause error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: "internal error", Kind: ErrStorage, Cause: cause}
}
