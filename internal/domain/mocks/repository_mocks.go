package mocks

import (
	"context"
	"sync"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// MockRemote is a mock implementation of domain.Remote for testing the
// offline sync queue. Per-call errors are injected through the exported
// fields; every successful call is recorded.
type MockRemote struct {
	mu sync.Mutex

	CreatedProducts  []domain.Product
	UpdatedProducts  []domain.Product
	DeletedProducts  []int64
	Movements        []domain.StockMovement
	SavedProfiles    []domain.UserProfile
	GetProductResult *domain.Product

	CreateErr   error
	UpdateErr   error
	DeleteErr   error
	MovementErr error
	GetErr      error
	SaveErr     error
	PingErr     error

	// MovementFn, when set, runs in the middle of RecordMovement before the
	// call is recorded; returning an error aborts the call.
	MovementFn func(ctx context.Context, productID, quantityChange int64) error

	nextProductID int64
}

func (m *MockRemote) CreateProduct(ctx context.Context, caller domain.Principal, shopID int64, name, description string, initialQuantity, lowStockThreshold int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextProductID++
	m.CreatedProducts = append(m.CreatedProducts, domain.Product{
		ID:                m.nextProductID,
		ShopID:            shopID,
		Name:              name,
		Description:       description,
		Quantity:          initialQuantity,
		LowStockThreshold: lowStockThreshold,
	})
	return m.nextProductID, nil
}

func (m *MockRemote) UpdateProduct(ctx context.Context, caller domain.Principal, productID int64, name, description string, lowStockThreshold int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.UpdatedProducts = append(m.UpdatedProducts, domain.Product{
		ID:                productID,
		Name:              name,
		Description:       description,
		LowStockThreshold: lowStockThreshold,
	})
	return nil
}

func (m *MockRemote) DeleteProduct(ctx context.Context, caller domain.Principal, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedProducts = append(m.DeletedProducts, productID)
	return nil
}

func (m *MockRemote) RecordMovement(ctx context.Context, caller domain.Principal, productID int64, quantityChange int64) error {
	m.mu.Lock()
	fn := m.MovementFn
	m.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, productID, quantityChange); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MovementErr != nil {
		return m.MovementErr
	}
	m.Movements = append(m.Movements, domain.StockMovement{ProductID: productID, QuantityChange: quantityChange})
	return nil
}

func (m *MockRemote) GetProduct(ctx context.Context, caller domain.Principal, productID int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.GetProductResult == nil {
		return nil, domain.ErrNotFound
	}
	p := *m.GetProductResult
	return &p, nil
}

func (m *MockRemote) SaveProfile(ctx context.Context, caller domain.Principal, profile *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SavedProfiles = append(m.SavedProfiles, *profile)
	return nil
}

func (m *MockRemote) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

// SetPingErr swaps the ping error while a health check goroutine may be
// calling Ping concurrently.
func (m *MockRemote) SetPingErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PingErr = err
}

// MockJournal is an in-memory domain.QueueJournal for testing.
type MockJournal struct {
	mu      sync.Mutex
	Entries []domain.QueuedOperation

	WriteErr    error
	ReplayErr   error
	TruncateErr error
}

func (m *MockJournal) Write(ctx context.Context, op domain.QueuedOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Entries = append(m.Entries, op)
	return nil
}

func (m *MockJournal) Replay(ctx context.Context, handler func(op domain.QueuedOperation) error) error {
	m.mu.Lock()
	entries := append([]domain.QueuedOperation(nil), m.Entries...)
	err := m.ReplayErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	for _, op := range entries {
		if err := handler(op); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockJournal) Truncate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TruncateErr != nil {
		return m.TruncateErr
	}
	m.Entries = nil
	return nil
}

func (m *MockJournal) Close() error { return nil }

// MockNotifier records published stock alerts.
type MockNotifier struct {
	mu         sync.Mutex
	Alerts     []domain.StockAlert
	PublishErr error
}

func (m *MockNotifier) Publish(ctx context.Context, alert domain.StockAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Alerts = append(m.Alerts, alert)
	return nil
}
