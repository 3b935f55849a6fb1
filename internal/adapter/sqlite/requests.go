package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/assetiq/internal/domain"
)

const requestColumns = `id, tenant_id, number, status, asset_id, description, legacy_items,
	created_at, updated_at, completed_at`

type requestRow struct {
	ID          string         `db:"id"`
	TenantID    string         `db:"tenant_id"`
	Number      string         `db:"number"`
	Status      string         `db:"status"`
	AssetID     string         `db:"asset_id"`
	Description string         `db:"description"`
	LegacyItems string         `db:"legacy_items"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
	CompletedAt sql.NullString `db:"completed_at"`
}

// legacyItem is the JSON shape of an embedded planned item.
type legacyItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PartCode    string          `json:"part_code,omitempty"`
	Category    string          `json:"category,omitempty"`
	Kind        string          `json:"kind,omitempty"`
}

func encodeLegacyItems(items []domain.PlannedItem) (string, error) {
	out := make([]legacyItem, len(items))
	for i, item := range items {
		out[i] = legacyItem{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			PartCode:    item.PartCode,
			Category:    item.Category,
			Kind:        string(item.Kind),
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding legacy items: %w", err)
	}
	return string(b), nil
}

func decodeLegacyItems(raw string) ([]domain.PlannedItem, error) {
	if raw == "" {
		return nil, nil
	}
	var in []legacyItem
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("decoding legacy items: %w", err)
	}
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.PlannedItem, len(in))
	for i, item := range in {
		out[i] = domain.PlannedItem{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			PartCode:    item.PartCode,
			Category:    item.Category,
			Kind:        domain.PartKind(item.Kind),
		}
	}
	return out, nil
}

func (r requestRow) toDomain() (domain.DecompositionRequest, error) {
	items, err := decodeLegacyItems(r.LegacyItems)
	if err != nil {
		return domain.DecompositionRequest{}, err
	}
	req := domain.DecompositionRequest{
		ID:          r.ID,
		Number:      r.Number,
		Status:      domain.RequestStatus(r.Status),
		AssetID:     r.AssetID,
		TenantID:    r.TenantID,
		Description: r.Description,
		LegacyItems: items,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
	if r.CompletedAt.Valid {
		at := parseTime(r.CompletedAt.String)
		req.CompletedAt = &at
	}
	return req, nil
}

// RequestRepository implements domain.RequestRepository.
type RequestRepository struct {
	q sqlx.ExtContext
}

func (r *RequestRepository) Create(ctx context.Context, req domain.DecompositionRequest) error {
	items, err := encodeLegacyItems(req.LegacyItems)
	if err != nil {
		return err
	}

	var completedAt sql.NullString
	if req.CompletedAt != nil {
		completedAt = nullable(formatTime(*req.CompletedAt))
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO decomposition_requests (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.TenantID, req.Number, string(req.Status), req.AssetID, req.Description, items,
		formatTime(req.CreatedAt), formatTime(req.UpdatedAt), completedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting decomposition request: %w", err)
	}
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (domain.DecompositionRequest, error) {
	var row requestRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+requestColumns+` FROM decomposition_requests WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DecompositionRequest{}, domain.ErrRequestNotFound
	}
	if err != nil {
		return domain.DecompositionRequest{}, fmt.Errorf("getting decomposition request: %w", err)
	}
	return row.toDomain()
}

// List returns requests newest first. An empty TenantID lists every tenant.
func (r *RequestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.DecompositionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM decomposition_requests WHERE 1 = 1`
	var args []any

	if filter.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, filter.TenantID)
	}
	if filter.AssetID != "" {
		query += ` AND asset_id = ?`
		args = append(args, filter.AssetID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC, rowid DESC`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	var rows []requestRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing decomposition requests: %w", err)
	}

	requests := make([]domain.DecompositionRequest, 0, len(rows))
	for _, row := range rows {
		req, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// Complete is the compare-and-swap that serializes concurrent executions.
func (r *RequestRepository) Complete(ctx context.Context, id string, at time.Time) error {
	ts := formatTime(at)
	result, err := r.q.ExecContext(ctx,
		`UPDATE decomposition_requests SET status = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.RequestCompleted), ts, ts, id, string(domain.RequestPending),
	)
	if err != nil {
		return fmt.Errorf("completing decomposition request: %w", err)
	}

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
	return domain.ErrAlreadyExecuted
}
