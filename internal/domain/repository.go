package domain

import "context"

// ShopRepository stores tenant identity and lifecycle state.
type ShopRepository interface {
	// CreateShop persists a new shop and assigns its id.
	CreateShop(ctx context.Context, shop *Shop) error

	// GetShop returns a shop by id, or ErrNotFound.
	GetShop(ctx context.Context, id int64) (*Shop, error)

	// ListShops returns every shop, ordered by id.
	ListShops(ctx context.Context) ([]Shop, error)

	// SetSuspended toggles the suspension flag and bumps LastUpdated.
	SetSuspended(ctx context.Context, id int64, suspended bool) error
}

// ProfileRepository stores caller profiles, the one-owner-per-shop binding,
// and the single super-admin flag.
type ProfileRepository interface {
	// GetProfile returns the profile for a principal, or ErrNotFound.
	GetProfile(ctx context.Context, principal Principal) (*UserProfile, error)

	// SaveProfile upserts name and email for a principal. It never changes the
	// shop binding or the super-admin flag.
	SaveProfile(ctx context.Context, profile *UserProfile) error

	// BindShop sets a principal's shop binding. The binding is set exactly
	// once; implementations reject rebinding an already-bound profile and
	// enforce one owner per shop. Passing nil clears the binding
	// (super-admin-driven unassignment).
	BindShop(ctx context.Context, principal Principal, shopID *int64) error

	// SetSuperAdmin sets or clears the super-admin flag for a principal.
	SetSuperAdmin(ctx context.Context, principal Principal, isAdmin bool) error

	// ClaimSuperAdmin atomically grants the super-admin flag to the principal
	// if and only if no profile currently carries it. The check-and-set is a
	// single indivisible operation: two concurrent claims must not both
	// succeed. Returns ErrSuperAdminExists once a super-admin exists.
	ClaimSuperAdmin(ctx context.Context, principal Principal) error

	// FindSuperAdmin returns the current super-admin profile, or ErrNotFound.
	FindSuperAdmin(ctx context.Context) (*UserProfile, error)
}

// ProductRepository stores products and their cached quantities.
type ProductRepository interface {
	// CreateProduct persists a new product and assigns its id. Products are
	// created with a zero quantity; any initial stock arrives as a movement
	// appended by the caller, so the ledger invariant holds from the start.
	CreateProduct(ctx context.Context, product *Product) error

	// GetProduct returns a product by id, or ErrNotFound.
	GetProduct(ctx context.Context, id int64) (*Product, error)

	// ListProducts returns a shop's products ordered by id. An empty shop
	// yields an empty slice, not an error.
	ListProducts(ctx context.Context, shopID int64) ([]Product, error)

	// UpdateDetails edits the descriptive fields (name, description,
	// threshold) and stamps UpdatedAt. It never touches quantity.
	UpdateDetails(ctx context.Context, id int64, name, description string, lowStockThreshold int64) (*Product, error)

	// DeleteProduct removes the product. Its movement history is retained.
	DeleteProduct(ctx context.Context, id int64) error
}

// MovementRepository owns the append-only stock ledger.
type MovementRepository interface {
	// Append records a movement and updates the owning product's cached
	// quantity in one indivisible operation. If applying the change would
	// drive the quantity negative it returns ErrInsufficientStock and leaves
	// both the quantity and the ledger untouched. The check is performed
	// inside the store, never as a client-side read-then-write.
	Append(ctx context.Context, productID int64, quantityChange int64) (*StockMovement, error)

	// ListByProduct returns a product's movements in the order they were
	// recorded.
	ListByProduct(ctx context.Context, productID int64) ([]StockMovement, error)

	// ListByShop returns all movements recorded for a shop, chronological.
	ListByShop(ctx context.Context, shopID int64) ([]StockMovement, error)
}

// QueueJournal is the durable local store behind the offline sync queue.
// Queued operations survive an agent restart through Replay.
type QueueJournal interface {
	// Write appends an operation snapshot to the journal.
	Write(ctx context.Context, op QueuedOperation) error

	// Replay reads all journaled operations in write order and passes each to
	// the handler.
	Replay(ctx context.Context, handler func(op QueuedOperation) error) error

	// Truncate removes all journaled operations.
	Truncate(ctx context.Context) error

	// Close releases the journal's resources.
	Close() error
}

// Notifier publishes stock alerts to an external channel.
type Notifier interface {
	Publish(ctx context.Context, alert StockAlert) error
}

// Remote is the collaborator contract the offline sync queue drains against.
// Every call carries the authenticated caller explicitly; the server performs
// its own authorization and atomicity checks per call. Implementations return
// ErrRemoteUnavailable for transport failures so the queue can distinguish
// them from domain rejections.
type Remote interface {
	CreateProduct(ctx context.Context, caller Principal, shopID int64, name, description string, initialQuantity, lowStockThreshold int64) (int64, error)
	UpdateProduct(ctx context.Context, caller Principal, productID int64, name, description string, lowStockThreshold int64) error
	DeleteProduct(ctx context.Context, caller Principal, productID int64) error
	RecordMovement(ctx context.Context, caller Principal, productID int64, quantityChange int64) error
	GetProduct(ctx context.Context, caller Principal, productID int64) (*Product, error)
	SaveProfile(ctx context.Context, caller Principal, profile *UserProfile) error
	Ping(ctx context.Context) error
}
