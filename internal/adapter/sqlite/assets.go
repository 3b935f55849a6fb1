package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/assetiq/internal/domain"
)

const assetColumns = `id, tenant_id, code, name, category, brand, model, status, active,
	purchase_price, notes, created_at, updated_at`

type assetRow struct {
	ID            string          `db:"id"`
	TenantID      string          `db:"tenant_id"`
	Code          string          `db:"code"`
	Name          string          `db:"name"`
	Category      string          `db:"category"`
	Brand         string          `db:"brand"`
	Model         string          `db:"model"`
	Status        string          `db:"status"`
	Active        bool            `db:"active"`
	PurchasePrice decimal.Decimal `db:"purchase_price"`
	Notes         string          `db:"notes"`
	CreatedAt     string          `db:"created_at"`
	UpdatedAt     string          `db:"updated_at"`
}

func (r assetRow) toDomain() domain.Asset {
	return domain.Asset{
		ID:            r.ID,
		TenantID:      r.TenantID,
		Code:          r.Code,
		Name:          r.Name,
		Category:      r.Category,
		Brand:         r.Brand,
		Model:         r.Model,
		Status:        domain.AssetStatus(r.Status),
		Active:        r.Active,
		PurchasePrice: r.PurchasePrice,
		Notes:         r.Notes,
		CreatedAt:     parseTime(r.CreatedAt),
		UpdatedAt:     parseTime(r.UpdatedAt),
	}
}

// AssetRepository implements domain.AssetRepository.
type AssetRepository struct {
	q sqlx.ExtContext
}

func (r *AssetRepository) Create(ctx context.Context, a domain.Asset) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO assets (`+assetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TenantID, a.Code, a.Name, a.Category, a.Brand, a.Model,
		string(a.Status), a.Active, a.PurchasePrice.StringFixed(domain.CurrencyPrecision), a.Notes,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "code", Message: fmt.Sprintf("asset code %q is already in use", a.Code)}
		}
		return fmt.Errorf("inserting asset: %w", err)
	}
	return nil
}

func (r *AssetRepository) GetByID(ctx context.Context, id string) (domain.Asset, error) {
	var row assetRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	if err != nil {
		return domain.Asset{}, fmt.Errorf("getting asset: %w", err)
	}
	return row.toDomain(), nil
}

// ListCompatible returns the other active, in-service assets of the tenant.
func (r *AssetRepository) ListCompatible(ctx context.Context, tenantID, excludeID string) ([]domain.Asset, error) {
	var rows []assetRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+assetColumns+` FROM assets
		 WHERE tenant_id = ? AND id <> ? AND active = 1 AND status IN (?, ?, ?)
		 ORDER BY created_at, rowid`,
		tenantID, excludeID,
		string(domain.AssetAvailable), string(domain.AssetInUse), string(domain.AssetMaintenance),
	)
	if err != nil {
		return nil, fmt.Errorf("listing compatible assets: %w", err)
	}

	assets := make([]domain.Asset, len(rows))
	for i, row := range rows {
		assets[i] = row.toDomain()
	}
	return assets, nil
}

func (r *AssetRepository) Retire(ctx context.Context, id string, status domain.AssetStatus, note string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE assets SET status = ?, active = 0, `+appendNote+`, updated_at = ?
		 WHERE id = ? AND active = 1 AND status NOT IN (?, ?)`,
		string(status), note, note, formatTime(at), id,
		string(domain.AssetRetired), string(domain.AssetDisposed),
	)
	if err != nil {
		return fmt.Errorf("retiring asset: %w", err)
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	asset, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := asset.CheckDecomposable(); err != nil {
		return err
	}
	return &domain.InvalidAssetStateError{AssetID: id, Status: asset.Status, Reason: "asset changed concurrently"}
}
