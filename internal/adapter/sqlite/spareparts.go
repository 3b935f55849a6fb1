package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/assetiq/internal/domain"
)

const sparePartColumns = `id, tenant_id, code, part_number, name, description, category, kind, status,
	unit_price, stock, planned_quantity, min_stock, max_stock, reorder_point, notes,
	COALESCE(origin_request_id, '') AS origin_request_id,
	COALESCE(origin_asset_id, '') AS origin_asset_id,
	COALESCE(merged_into_id, '') AS merged_into_id,
	created_at, updated_at`

type sparePartRow struct {
	ID              string          `db:"id"`
	TenantID        string          `db:"tenant_id"`
	Code            string          `db:"code"`
	PartNumber      string          `db:"part_number"`
	Name            string          `db:"name"`
	Description     string          `db:"description"`
	Category        string          `db:"category"`
	Kind            string          `db:"kind"`
	Status          string          `db:"status"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	Stock           int             `db:"stock"`
	PlannedQuantity int             `db:"planned_quantity"`
	MinStock        int             `db:"min_stock"`
	MaxStock        int             `db:"max_stock"`
	ReorderPoint    int             `db:"reorder_point"`
	Notes           string          `db:"notes"`
	OriginRequestID string          `db:"origin_request_id"`
	OriginAssetID   string          `db:"origin_asset_id"`
	MergedIntoID    string          `db:"merged_into_id"`
	CreatedAt       string          `db:"created_at"`
	UpdatedAt       string          `db:"updated_at"`
}

func (r sparePartRow) toDomain() domain.SparePart {
	return domain.SparePart{
		ID:              r.ID,
		TenantID:        r.TenantID,
		Code:            r.Code,
		PartNumber:      r.PartNumber,
		Name:            r.Name,
		Description:     r.Description,
		Category:        r.Category,
		Kind:            domain.PartKind(r.Kind),
		Status:          domain.PartStatus(r.Status),
		UnitPrice:       r.UnitPrice,
		Stock:           r.Stock,
		PlannedQuantity: r.PlannedQuantity,
		MinStock:        r.MinStock,
		MaxStock:        r.MaxStock,
		ReorderPoint:    r.ReorderPoint,
		Notes:           r.Notes,
		OriginRequestID: r.OriginRequestID,
		OriginAssetID:   r.OriginAssetID,
		MergedIntoID:    r.MergedIntoID,
		CreatedAt:       parseTime(r.CreatedAt),
		UpdatedAt:       parseTime(r.UpdatedAt),
	}
}

func toSpareParts(rows []sparePartRow) []domain.SparePart {
	parts := make([]domain.SparePart, len(rows))
	for i, row := range rows {
		parts[i] = row.toDomain()
	}
	return parts
}

func price(d decimal.Decimal) string {
	return d.StringFixed(domain.CurrencyPrecision)
}

// SparePartRepository implements domain.SparePartRepository. Stock is only
// ever changed by relative increments.
type SparePartRepository struct {
	q sqlx.ExtContext
}

func (r *SparePartRepository) Create(ctx context.Context, p domain.SparePart) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO spare_parts (id, tenant_id, code, part_number, name, name_key, description, category, kind,
		   status, unit_price, stock, planned_quantity, min_stock, max_stock, reorder_point, notes,
		   origin_request_id, origin_asset_id, merged_into_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, p.Code, p.PartNumber, p.Name, domain.NormalizeName(p.Name), p.Description, p.Category, string(p.Kind),
		string(p.Status), price(p.UnitPrice), p.Stock, p.PlannedQuantity, p.MinStock, p.MaxStock, p.ReorderPoint, p.Notes,
		nullable(p.OriginRequestID), nullable(p.OriginAssetID), nullable(p.MergedIntoID),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting spare part %q: %w", p.Code, err)
	}
	return nil
}

func (r *SparePartRepository) GetByID(ctx context.Context, id string) (domain.SparePart, error) {
	var row sparePartRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+sparePartColumns+` FROM spare_parts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SparePart{}, domain.ErrSparePartNotFound
	}
	if err != nil {
		return domain.SparePart{}, fmt.Errorf("getting spare part: %w", err)
	}
	return row.toDomain(), nil
}

// List returns catalog entries oldest first. Without explicit statuses only
// available entries are listed.
func (r *SparePartRepository) List(ctx context.Context, filter domain.SparePartFilter) ([]domain.SparePart, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = []domain.PartStatus{domain.PartAvailable}
	}

	query := `SELECT ` + sparePartColumns + ` FROM spare_parts WHERE status IN (` + placeholders(len(statuses)) + `)`
	args := make([]any, 0, len(statuses)+4)
	for _, s := range statuses {
		args = append(args, string(s))
	}

	if filter.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, filter.TenantID)
	}
	if name := domain.NormalizeName(filter.Name); name != "" {
		query += ` AND instr(name_key, ?) > 0`
		args = append(args, name)
	}
	if filter.OriginRequestID != "" {
		query += ` AND origin_request_id = ?`
		args = append(args, filter.OriginRequestID)
	}

	query += ` ORDER BY created_at, rowid`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	var rows []sparePartRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing spare parts: %w", err)
	}
	return toSpareParts(rows), nil
}

// ListByOriginRequest returns every entry pre-registered by a request, in
// plan order, whatever its status.
func (r *SparePartRepository) ListByOriginRequest(ctx context.Context, requestID string) ([]domain.SparePart, error) {
	var rows []sparePartRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+sparePartColumns+` FROM spare_parts WHERE origin_request_id = ? ORDER BY created_at, rowid`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing spare parts by request: %w", err)
	}
	return toSpareParts(rows), nil
}

// FindCandidates returns available entries of the tenant whose code or part
// number equals the item code, or whose name contains the item name. Names
// are compared on name_key, written from domain.NormalizeName, because
// SQLite's lower() only folds ASCII.
func (r *SparePartRepository) FindCandidates(ctx context.Context, query domain.CandidateQuery) ([]domain.SparePart, error) {
	code := strings.TrimSpace(query.PartCode)
	name := domain.NormalizeName(query.Name)

	var rows []sparePartRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+sparePartColumns+` FROM spare_parts
		 WHERE tenant_id = ? AND status = ?
		   AND ((? <> '' AND (part_number = ? OR code = ?)) OR (? <> '' AND instr(name_key, ?) > 0))
		 ORDER BY created_at, rowid`,
		query.TenantID, string(domain.PartAvailable),
		code, code, code, name, name,
	)
	if err != nil {
		return nil, fmt.Errorf("finding candidate spare parts: %w", err)
	}
	return toSpareParts(rows), nil
}

func (r *SparePartRepository) Activate(ctx context.Context, c domain.StockChange) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE spare_parts SET status = ?, stock = stock + ?, unit_price = ?, `+appendNote+`, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.PartAvailable), c.Quantity, price(c.UnitPrice), c.Note, c.Note, formatTime(c.At),
		c.PartID, string(domain.PartPending),
	)
	if err != nil {
		return fmt.Errorf("activating spare part: %w", err)
	}
	return r.checkUpdated(ctx, result, c.PartID, domain.ErrPartNotPending)
}

// Restock adds stock to an available entry. The unit price is only set when
// the entry has none.
func (r *SparePartRepository) Restock(ctx context.Context, c domain.StockChange) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE spare_parts
		 SET stock = stock + ?,
		     unit_price = CASE WHEN CAST(unit_price AS REAL) = 0 THEN ? ELSE unit_price END,
		     `+appendNote+`, updated_at = ?
		 WHERE id = ? AND status = ?`,
		c.Quantity, price(c.UnitPrice), c.Note, c.Note, formatTime(c.At),
		c.PartID, string(domain.PartAvailable),
	)
	if err != nil {
		return fmt.Errorf("restocking spare part: %w", err)
	}
	return r.checkUpdated(ctx, result, c.PartID, domain.ErrPartNotAvailable)
}

func (r *SparePartRepository) MarkMerged(ctx context.Context, id, intoID, note string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE spare_parts SET status = ?, merged_into_id = ?, `+appendNote+`, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.PartMerged), intoID, note, note, formatTime(at),
		id, string(domain.PartPending),
	)
	if err != nil {
		return fmt.Errorf("merging spare part: %w", err)
	}
	return r.checkUpdated(ctx, result, id, domain.ErrPartNotPending)
}

// checkUpdated distinguishes a missing entry from one in the wrong state
// when a conditional update touched no row.
func (r *SparePartRepository) checkUpdated(ctx context.Context, result sql.Result, id string, stateErr error) error {
	n, err := affected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return stateErr
}
