package domain

import "errors"

// Typed failures surfaced by every core operation. Authorization and
// invariant violations are never swallowed; they propagate to the caller
// (or, inside the sync queue, become a failed item with a retained message).
var (
	// ErrUnauthorized is returned when the caller lacks the role or tenant
	// scope for an operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrShopSuspended is returned for any operation against a suspended shop.
	ErrShopSuspended = errors.New("shop is suspended")

	// ErrShopInactive is returned for any operation against a deactivated shop.
	ErrShopInactive = errors.New("shop is inactive")

	// ErrShopAlreadyOwned is returned when a caller with a bound shop tries to
	// create another one.
	ErrShopAlreadyOwned = errors.New("caller already owns a shop")

	// ErrInsufficientStock is returned when a movement would drive a product's
	// quantity negative. The movement is rejected outright and not recorded.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrSuperAdminExists is returned by the bootstrap path once a super-admin
	// has been claimed.
	ErrSuperAdminExists = errors.New("super admin already exists")

	// ErrNotFound is returned when a shop, product, profile, or movement id is
	// unknown. Empty result sets are valid successes, not ErrNotFound.
	ErrNotFound = errors.New("not found")

	// ErrSuperseded is returned when a queued product edit is older than the
	// server's current edit and is discarded rather than applied.
	ErrSuperseded = errors.New("edit superseded by a newer server-side change")

	// ErrInvalidInput is returned for malformed arguments, e.g. a zero
	// quantity change or a negative threshold.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRemoteUnavailable is returned by the remote client when the server
	// cannot be reached. The sync queue treats it as transient: in-flight
	// items revert to pending and the drain stops.
	ErrRemoteUnavailable = errors.New("remote service unavailable")
)
