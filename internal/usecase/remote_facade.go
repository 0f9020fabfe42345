package usecase

import (
	"context"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// RemoteFacade adapts the in-process ledger and guard to the domain.Remote
// contract. It lets the sync queue drain against a local service instance,
// which is also how the replay semantics are exercised in tests.
type RemoteFacade struct {
	ledger *Ledger
	guard  *Guard
}

// NewRemoteFacade creates a Remote backed by local usecases.
func NewRemoteFacade(ledger *Ledger, guard *Guard) *RemoteFacade {
	return &RemoteFacade{ledger: ledger, guard: guard}
}

func (f *RemoteFacade) CreateProduct(ctx context.Context, caller domain.Principal, shopID int64, name, description string, initialQuantity, lowStockThreshold int64) (int64, error) {
	product, err := f.ledger.CreateProduct(ctx, caller, shopID, name, description, initialQuantity, lowStockThreshold)
	if err != nil {
		return 0, err
	}
	return product.ID, nil
}

func (f *RemoteFacade) UpdateProduct(ctx context.Context, caller domain.Principal, productID int64, name, description string, lowStockThreshold int64) error {
	_, err := f.ledger.UpdateProduct(ctx, caller, productID, name, description, lowStockThreshold)
	return err
}

func (f *RemoteFacade) DeleteProduct(ctx context.Context, caller domain.Principal, productID int64) error {
	return f.ledger.DeleteProduct(ctx, caller, productID)
}

func (f *RemoteFacade) RecordMovement(ctx context.Context, caller domain.Principal, productID int64, quantityChange int64) error {
	_, err := f.ledger.RecordMovement(ctx, caller, productID, quantityChange)
	return err
}

func (f *RemoteFacade) GetProduct(ctx context.Context, caller domain.Principal, productID int64) (*domain.Product, error) {
	return f.ledger.GetProduct(ctx, caller, productID)
}

func (f *RemoteFacade) SaveProfile(ctx context.Context, caller domain.Principal, profile *domain.UserProfile) error {
	return f.guard.SaveCallerProfile(ctx, caller, profile)
}

func (f *RemoteFacade) Ping(ctx context.Context) error { return nil }
