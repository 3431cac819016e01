// internal/pkg/apperror/errors.go
package apperror

import (
	"errors"
	"net/http"
)

// Error kinds shared by the domain services. Services wrap these with
// fmt.Errorf("%w: ...") so callers can match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidDiscount   = errors.New("invalid or expired discount code")
	ErrDiscountRejected  = errors.New("discount usage limit reached")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrDuplicateCode     = errors.New("discount code already exists")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// HTTPStatus maps an error to the status code the API answers with
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrDuplicateCode):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidDiscount),
		errors.Is(err, ErrDiscountRejected),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
