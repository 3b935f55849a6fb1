package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/neomorfeo/assetiq/internal/domain"
)

const componentColumns = `id, tenant_id, asset_id, spare_part_id, request_id, name, description, code,
	brand, model, status, replaceable, transferable, created_at`

type componentRow struct {
	ID           string `db:"id"`
	TenantID     string `db:"tenant_id"`
	AssetID      string `db:"asset_id"`
	SparePartID  string `db:"spare_part_id"`
	RequestID    string `db:"request_id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	Code         string `db:"code"`
	Brand        string `db:"brand"`
	Model        string `db:"model"`
	Status       string `db:"status"`
	Replaceable  bool   `db:"replaceable"`
	Transferable bool   `db:"transferable"`
	CreatedAt    string `db:"created_at"`
}

func (r componentRow) toDomain() domain.AssetComponent {
	return domain.AssetComponent{
		ID:           r.ID,
		TenantID:     r.TenantID,
		AssetID:      r.AssetID,
		SparePartID:  r.SparePartID,
		RequestID:    r.RequestID,
		Name:         r.Name,
		Description:  r.Description,
		Code:         r.Code,
		Brand:        r.Brand,
		Model:        r.Model,
		Status:       domain.ComponentStatus(r.Status),
		Replaceable:  r.Replaceable,
		Transferable: r.Transferable,
		CreatedAt:    parseTime(r.CreatedAt),
	}
}

// ComponentRepository implements domain.ComponentRepository.
type ComponentRepository struct {
	q sqlx.ExtContext
}

func (r *ComponentRepository) Create(ctx context.Context, c domain.AssetComponent) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO asset_components (`+componentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.AssetID, c.SparePartID, c.RequestID, c.Name, c.Description, c.Code,
		c.Brand, c.Model, string(c.Status), c.Replaceable, c.Transferable, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting asset component: %w", err)
	}
	return nil
}

func (r *ComponentRepository) ListByAsset(ctx context.Context, assetID string) ([]domain.AssetComponent, error) {
	return r.list(ctx, `asset_id = ?`, assetID)
}

func (r *ComponentRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.AssetComponent, error) {
	return r.list(ctx, `request_id = ?`, requestID)
}

func (r *ComponentRepository) list(ctx context.Context, where string, arg any) ([]domain.AssetComponent, error) {
	var rows []componentRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+componentColumns+` FROM asset_components WHERE `+where+` ORDER BY created_at, rowid`, arg)
	if err != nil {
		return nil, fmt.Errorf("listing asset components: %w", err)
	}

	components := make([]domain.AssetComponent, len(rows))
	for i, row := range rows {
		components[i] = row.toDomain()
	}
	return components, nil
}
