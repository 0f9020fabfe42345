package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

const uniqueViolation = pq.ErrorCode("23505")

// ProfileRepository implements domain.ProfileRepository on PostgreSQL. The
// one-owner-per-shop and single-super-admin invariants are enforced by
// partial unique indexes, so concurrent writers are serialized by the
// database rather than by client-side checks.
type ProfileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProfileRepository creates a new PostgreSQL profile repository.
func NewProfileRepository(db *sql.DB, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: logger.With("component", "profile_repository")}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, principal domain.Principal) (*domain.UserProfile, error) {
	query := `SELECT principal, name, email, shop_id, is_super_admin FROM user_profiles WHERE principal = $1`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, string(principal)))
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *ProfileRepository) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	// Only the display fields are writable here; shop binding and the
	// super-admin flag have dedicated, guarded paths.
	query := `
		INSERT INTO user_profiles (principal, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`
	if _, err := r.db.ExecContext(ctx, query, string(profile.Principal), profile.Name, profile.Email); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) BindShop(ctx context.Context, principal domain.Principal, shopID *int64) error {
	if shopID == nil {
		query := `UPDATE user_profiles SET shop_id = NULL WHERE principal = $1`
		res, err := r.db.ExecContext(ctx, query, string(principal))
		if err != nil {
			return fmt.Errorf("failed to clear shop binding: %w", err)
		}
		return requireAffected(res)
	}

	// The binding is set exactly once. A profile row may not exist yet for a
	// caller that signs up and creates a shop in one step.
	query := `
		INSERT INTO user_profiles (principal, shop_id)
		VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET shop_id = EXCLUDED.shop_id
		WHERE user_profiles.shop_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, string(principal), *shopID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrShopAlreadyOwned
		}
		return fmt.Errorf("failed to bind shop: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// The profile exists and is already bound; the binding is immutable.
		return domain.ErrShopAlreadyOwned
	}
	return nil
}

func (r *ProfileRepository) SetSuperAdmin(ctx context.Context, principal domain.Principal, isAdmin bool) error {
	query := `UPDATE user_profiles SET is_super_admin = $2 WHERE principal = $1`
	res, err := r.db.ExecContext(ctx, query, string(principal), isAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSuperAdminExists
		}
		return fmt.Errorf("failed to set super admin flag: %w", err)
	}
	return requireAffected(res)
}

func (r *ProfileRepository) ClaimSuperAdmin(ctx context.Context, principal domain.Principal) error {
	ensure := `INSERT INTO user_profiles (principal) VALUES ($1) ON CONFLICT (principal) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, ensure, string(principal)); err != nil {
		return fmt.Errorf("failed to ensure profile row: %w", err)
	}

	// Check-and-set in one statement. Two near-simultaneous claims can both
	// pass the NOT EXISTS under read committed; the uq_one_super_admin index
	// then rejects the loser with a unique violation.
	claim := `
		UPDATE user_profiles SET is_super_admin = TRUE
		WHERE principal = $1
		  AND NOT EXISTS (SELECT 1 FROM user_profiles WHERE is_super_admin)`
	res, err := r.db.ExecContext(ctx, claim, string(principal))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSuperAdminExists
		}
		return fmt.Errorf("failed to claim super admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSuperAdminExists
	}
	return nil
}

func (r *ProfileRepository) FindSuperAdmin(ctx context.Context) (*domain.UserProfile, error) {
	query := `SELECT principal, name, email, shop_id, is_super_admin FROM user_profiles WHERE is_super_admin LIMIT 1`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query))
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func scanProfile(row *sql.Row) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	var principal string
	var shopID sql.NullInt64
	err := row.Scan(&principal, &profile.Name, &profile.Email, &shopID, &profile.IsSuperAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	profile.Principal = domain.Principal(principal)
	if shopID.Valid {
		profile.ShopID = &shopID.Int64
	}
	return &profile, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
