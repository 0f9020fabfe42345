package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Store is a mutex-guarded in-memory implementation of the shop, profile,
// product, and movement repositories. A single lock covers all four so that
// Append and ClaimSuperAdmin are indivisible, matching the atomicity the
// SQL implementations get from single statements.
type Store struct {
	mu sync.Mutex

	shops     map[int64]*domain.Shop
	profiles  map[domain.Principal]*domain.UserProfile
	products  map[int64]*domain.Product
	movements []domain.StockMovement

	nextShopID     int64
	nextProductID  int64
	nextMovementID int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		shops:    make(map[int64]*domain.Shop),
		profiles: make(map[domain.Principal]*domain.UserProfile),
		products: make(map[int64]*domain.Product),
	}
}

// --- domain.ShopRepository ---

func (s *Store) CreateShop(ctx context.Context, shop *domain.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextShopID++
	shop.ID = s.nextShopID
	shop.LastUpdated = time.Now().UTC()
	cp := *shop
	s.shops[shop.ID] = &cp
	return nil
}

func (s *Store) GetShop(ctx context.Context, id int64) (*domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *shop
	return &cp, nil
}

func (s *Store) ListShops(ctx context.Context) ([]domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shops := make([]domain.Shop, 0, len(s.shops))
	for _, shop := range s.shops {
		shops = append(shops, *shop)
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].ID < shops[j].ID })
	return shops, nil
}

func (s *Store) SetSuspended(ctx context.Context, id int64, suspended bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[id]
	if !ok {
		return domain.ErrNotFound
	}
	shop.IsSuspended = suspended
	shop.LastUpdated = time.Now().UTC()
	return nil
}

// --- domain.ProfileRepository ---

func (s *Store) GetProfile(ctx context.Context, principal domain.Principal) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[principal]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *profile
	return &cp, nil
}

func (s *Store) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[profile.Principal]
	if !ok {
		s.profiles[profile.Principal] = &domain.UserProfile{
			Principal: profile.Principal,
			Name:      profile.Name,
			Email:     profile.Email,
		}
		return nil
	}
	existing.Name = profile.Name
	existing.Email = profile.Email
	return nil
}

func (s *Store) BindShop(ctx context.Context, principal domain.Principal, shopID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[principal]
	if !ok {
		profile = &domain.UserProfile{Principal: principal}
		s.profiles[principal] = profile
	}
	if shopID == nil {
		profile.ShopID = nil
		return nil
	}
	if profile.ShopID != nil {
		return domain.ErrShopAlreadyOwned
	}
	for _, other := range s.profiles {
		if other.ShopID != nil && *other.ShopID == *shopID {
			return domain.ErrShopAlreadyOwned
		}
	}
	id := *shopID
	profile.ShopID = &id
	return nil
}

func (s *Store) SetSuperAdmin(ctx context.Context, principal domain.Principal, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[principal]
	if !ok {
		return domain.ErrNotFound
	}
	profile.IsSuperAdmin = isAdmin
	return nil
}

func (s *Store) ClaimSuperAdmin(ctx context.Context, principal domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range s.profiles {
		if profile.IsSuperAdmin {
			return domain.ErrSuperAdminExists
		}
	}
	profile, ok := s.profiles[principal]
	if !ok {
		profile = &domain.UserProfile{Principal: principal}
		s.profiles[principal] = profile
	}
	profile.IsSuperAdmin = true
	return nil
}

func (s *Store) FindSuperAdmin(ctx context.Context) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range s.profiles {
		if profile.IsSuperAdmin {
			cp := *profile
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// --- domain.ProductRepository ---

func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProductID++
	product.ID = s.nextProductID
	product.UpdatedAt = time.Now().UTC()
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *product
	return &cp, nil
}

func (s *Store) ListProducts(ctx context.Context, shopID int64) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]domain.Product, 0)
	for _, product := range s.products {
		if product.ShopID == shopID {
			products = append(products, *product)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *Store) UpdateDetails(ctx context.Context, id int64, name, description string, lowStockThreshold int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	product.Name = name
	product.Description = description
	product.LowStockThreshold = lowStockThreshold
	product.UpdatedAt = time.Now().UTC()
	cp := *product
	return &cp, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	// Movements are retained for audit; only the product row goes away.
	delete(s.products, id)
	return nil
}

// --- domain.MovementRepository ---

func (s *Store) Append(ctx context.Context, productID int64, quantityChange int64) (*domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if product.Quantity+quantityChange < 0 {
		return nil, domain.ErrInsufficientStock
	}
	product.Quantity += quantityChange
	s.nextMovementID++
	movement := domain.StockMovement{
		ID:             s.nextMovementID,
		ProductID:      productID,
		ShopID:         product.ShopID,
		QuantityChange: quantityChange,
		Timestamp:      time.Now().UTC(),
	}
	s.movements = append(s.movements, movement)
	return &movement, nil
}

func (s *Store) ListByProduct(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	movements := make([]domain.StockMovement, 0)
	for _, m := range s.movements {
		if m.ProductID == productID {
			movements = append(movements, m)
		}
	}
	return movements, nil
}

func (s *Store) ListByShop(ctx context.Context, shopID int64) ([]domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	movements := make([]domain.StockMovement, 0)
	for _, m := range s.movements {
		if m.ShopID == shopID {
			movements = append(movements, m)
		}
	}
	return movements, nil
}
