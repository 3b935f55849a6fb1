package http

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/assetiq/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(domain.CurrencyPrecision)
}

// Money is a non-negative amount accepted as a decimal string or a JSON
// number. Both forms are parsed from their literal text, never through
// float64.
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

func (Money) Schema(huma.Registry) *huma.Schema {
	zero := 0.0
	return &huma.Schema{
		Description: "Non-negative amount; send a string to keep every digit",
		OneOf: []*huma.Schema{
			{Type: huma.TypeString, Pattern: `^[0-9]+(\.[0-9]+)?$`, Examples: []any{"1000000.10"}},
			{Type: huma.TypeNumber, Minimum: &zero},
		},
	}
}

// AssetResponse is the API representation of an asset.
type AssetResponse struct {
	ID            string `json:"id" doc:"Unique identifier"`
	TenantID      string `json:"tenant_id" doc:"Owning tenant"`
	Code          string `json:"code" doc:"Asset tag"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	Status        string `json:"status" doc:"Lifecycle state"`
	Active        bool   `json:"active"`
	PurchasePrice string `json:"purchase_price" doc:"Decimal string with two places"`
	Notes         string `json:"notes"`
	CreatedAt     string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt     string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toAssetResponse(a domain.Asset) AssetResponse {
	return AssetResponse{
		ID:            a.ID,
		TenantID:      a.TenantID,
		Code:          a.Code,
		Name:          a.Name,
		Category:      a.Category,
		Brand:         a.Brand,
		Model:         a.Model,
		Status:        string(a.Status),
		Active:        a.Active,
		PurchasePrice: formatMoney(a.PurchasePrice),
		Notes:         a.Notes,
		CreatedAt:     formatTimestamp(a.CreatedAt),
		UpdatedAt:     formatTimestamp(a.UpdatedAt),
	}
}

func toAssetResponses(assets []domain.Asset) []AssetResponse {
	out := make([]AssetResponse, len(assets))
	for i, a := range assets {
		out[i] = toAssetResponse(a)
	}
	return out
}

// SparePartResponse is the API representation of a catalog entry.
type SparePartResponse struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenant_id"`
	Code            string `json:"code" doc:"System generated code"`
	PartNumber      string `json:"part_number,omitempty" doc:"External part code"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category"`
	Kind            string `json:"kind"`
	Status          string `json:"status" doc:"pending, available or merged"`
	UnitPrice       string `json:"unit_price"`
	Stock           int    `json:"stock"`
	PlannedQuantity int    `json:"planned_quantity"`
	MinStock        int    `json:"min_stock"`
	MaxStock        int    `json:"max_stock"`
	ReorderPoint    int    `json:"reorder_point"`
	Notes           string `json:"notes"`
	OriginRequestID string `json:"origin_request_id,omitempty"`
	OriginAssetID   string `json:"origin_asset_id,omitempty"`
	MergedIntoID    string `json:"merged_into_id,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toSparePartResponse(p domain.SparePart) SparePartResponse {
	return SparePartResponse{
		ID:              p.ID,
		TenantID:        p.TenantID,
		Code:            p.Code,
		PartNumber:      p.PartNumber,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Kind:            string(p.Kind),
		Status:          string(p.Status),
		UnitPrice:       formatMoney(p.UnitPrice),
		Stock:           p.Stock,
		PlannedQuantity: p.PlannedQuantity,
		MinStock:        p.MinStock,
		MaxStock:        p.MaxStock,
		ReorderPoint:    p.ReorderPoint,
		Notes:           p.Notes,
		OriginRequestID: p.OriginRequestID,
		OriginAssetID:   p.OriginAssetID,
		MergedIntoID:    p.MergedIntoID,
		CreatedAt:       formatTimestamp(p.CreatedAt),
		UpdatedAt:       formatTimestamp(p.UpdatedAt),
	}
}

func toSparePartResponses(parts []domain.SparePart) []SparePartResponse {
	out := make([]SparePartResponse, len(parts))
	for i, p := range parts {
		out[i] = toSparePartResponse(p)
	}
	return out
}

// ComponentResponse is the API representation of an asset component.
type ComponentResponse struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	SparePartID  string `json:"spare_part_id"`
	RequestID    string `json:"request_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Code         string `json:"code"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Status       string `json:"status"`
	Replaceable  bool   `json:"replaceable"`
	Transferable bool   `json:"transferable"`
	CreatedAt    string `json:"created_at"`
}

func toComponentResponse(c domain.AssetComponent) ComponentResponse {
	return ComponentResponse{
		ID:           c.ID,
		AssetID:      c.AssetID,
		SparePartID:  c.SparePartID,
		RequestID:    c.RequestID,
		Name:         c.Name,
		Description:  c.Description,
		Code:         c.Code,
		Brand:        c.Brand,
		Model:        c.Model,
		Status:       string(c.Status),
		Replaceable:  c.Replaceable,
		Transferable: c.Transferable,
		CreatedAt:    formatTimestamp(c.CreatedAt),
	}
}

// PlanResponse is the API representation of a decomposition request.
type PlanResponse struct {
	ID          string              `json:"id"`
	Number      string              `json:"number" doc:"Human readable request number"`
	Status      string              `json:"status" doc:"PENDING or COMPLETED"`
	TenantID    string              `json:"tenant_id"`
	AssetID     string              `json:"asset_id"`
	Description string              `json:"description,omitempty"`
	ItemCount   int                 `json:"item_count"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
	CompletedAt *string             `json:"completed_at,omitempty"`
	Parts       []SparePartResponse `json:"parts,omitempty" doc:"Catalog entries registered by the plan"`
}

func toPlanResponse(req domain.DecompositionRequest, parts []domain.SparePart) PlanResponse {
	resp := PlanResponse{
		ID:          req.ID,
		Number:      req.Number,
		Status:      string(req.Status),
		TenantID:    req.TenantID,
		AssetID:     req.AssetID,
		Description: req.Description,
		ItemCount:   domain.Plan{Request: req, Parts: parts}.ItemCount(),
		CreatedAt:   formatTimestamp(req.CreatedAt),
		UpdatedAt:   formatTimestamp(req.UpdatedAt),
	}
	if req.CompletedAt != nil {
		at := formatTimestamp(*req.CompletedAt)
		resp.CompletedAt = &at
	}
	if len(parts) > 0 {
		resp.Parts = toSparePartResponses(parts)
	}
	return resp
}

// ItemResultResponse reports where one planned item landed.
type ItemResultResponse struct {
	Match     string            `json:"match" doc:"exact_code, exact_name, substring, self_origin or none"`
	SparePart SparePartResponse `json:"spare_part"`
	Component ComponentResponse `json:"component"`
}

// ExecutionResponse is returned by a successful execution.
type ExecutionResponse struct {
	Request PlanResponse         `json:"request"`
	Asset   AssetResponse        `json:"asset"`
	Items   []ItemResultResponse `json:"items"`
}

func toExecutionResponse(r domain.ExecutionResult) ExecutionResponse {
	items := make([]ItemResultResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = ItemResultResponse{
			Match:     string(item.Match),
			SparePart: toSparePartResponse(item.Part),
			Component: toComponentResponse(item.Component),
		}
	}
	req := toPlanResponse(r.Request, nil)
	req.ItemCount = len(items)
	return ExecutionResponse{Request: req, Asset: toAssetResponse(r.Asset), Items: items}
}

// PlannedItemBody is one item of a plan request.
type PlannedItemBody struct {
	Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Part name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity" minimum:"1" doc:"Units extracted"`
	UnitPrice   *Money `json:"unit_price,omitempty" doc:"Unit value; derived from the asset purchase price when omitted"`
	PartCode    string `json:"part_code,omitempty" doc:"External part number"`
	Category    string `json:"category,omitempty"`
	Kind        string `json:"kind,omitempty" enum:"SPARE_PART,COMPONENT,CONSUMABLE,ACCESSORY"`
}

func (b PlannedItemBody) toDomain() domain.PlannedItem {
	item := domain.PlannedItem{
		Name:        b.Name,
		Description: b.Description,
		Quantity:    b.Quantity,
		PartCode:    b.PartCode,
		Category:    b.Category,
		Kind:        domain.PartKind(b.Kind),
	}
	if b.UnitPrice != nil {
		item.UnitPrice = b.UnitPrice.Decimal
	}
	return item
}
