package wire

import (
	"errors"
	"net/http"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Wire error codes. The HTTP client on the agent side maps these back to the
// domain sentinels, so typed failures survive the round trip.
const (
	CodeUnauthorized      = "unauthorized"
	CodeShopSuspended     = "shop_suspended"
	CodeShopInactive      = "shop_inactive"
	CodeShopAlreadyOwned  = "shop_already_owned"
	CodeInsufficientStock = "insufficient_stock"
	CodeSuperAdminExists  = "super_admin_exists"
	CodeNotFound          = "not_found"
	CodeInvalidInput      = "invalid_input"
	CodeInternal          = "internal"
)

// CodeOf maps a domain error to its wire code.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, domain.ErrShopSuspended):
		return CodeShopSuspended
	case errors.Is(err, domain.ErrShopInactive):
		return CodeShopInactive
	case errors.Is(err, domain.ErrShopAlreadyOwned):
		return CodeShopAlreadyOwned
	case errors.Is(err, domain.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, domain.ErrSuperAdminExists):
		return CodeSuperAdminExists
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

// ErrorForCode is the inverse of CodeOf.
func ErrorForCode(code string) error {
	switch code {
	case CodeUnauthorized:
		return domain.ErrUnauthorized
	case CodeShopSuspended:
		return domain.ErrShopSuspended
	case CodeShopInactive:
		return domain.ErrShopInactive
	case CodeShopAlreadyOwned:
		return domain.ErrShopAlreadyOwned
	case CodeInsufficientStock:
		return domain.ErrInsufficientStock
	case CodeSuperAdminExists:
		return domain.ErrSuperAdminExists
	case CodeNotFound:
		return domain.ErrNotFound
	case CodeInvalidInput:
		return domain.ErrInvalidInput
	default:
		return errors.New("internal server error")
	}
}

// StatusOf maps a domain error to an HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrShopAlreadyOwned),
		errors.Is(err, domain.ErrSuperAdminExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrShopSuspended),
		errors.Is(err, domain.ErrShopInactive):
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
