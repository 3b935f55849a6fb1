package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPrecision is the number of decimal places kept for prices.
const CurrencyPrecision = 2

const noteTimeFormat = "2006-01-02 15:04 UTC"

// PartKind classifies a catalog entry.
type PartKind string

const (
	PartKindSpare      PartKind = "SPARE_PART"
	PartKindComponent  PartKind = "COMPONENT"
	PartKindConsumable PartKind = "CONSUMABLE"
	PartKindAccessory  PartKind = "ACCESSORY"
)

// Valid reports whether k is a known part kind.
func (k PartKind) Valid() bool {
	switch k {
	case PartKindSpare, PartKindComponent, PartKindConsumable, PartKindAccessory:
		return true
	}
	return false
}

// PartStatus is the catalog state of a spare part.
//
// Parts pre-registered by a plan stay pending, with zero stock, until the
// plan is executed. Execution either activates them or merges them into an
// established entry.
type PartStatus string

const (
	PartPending   PartStatus = "pending"
	PartAvailable PartStatus = "available"
	PartMerged    PartStatus = "merged"
)

// SparePart is a stock-tracked catalog entry.
type SparePart struct {
	ID              string
	TenantID        string
	Code            string
	PartNumber      string
	Name            string
	Description     string
	Category        string
	Kind            PartKind
	Status          PartStatus
	UnitPrice       decimal.Decimal
	Stock           int
	PlannedQuantity int
	MinStock        int
	MaxStock        int
	ReorderPoint    int
	Notes           string
	OriginRequestID string
	OriginAssetID   string
	MergedIntoID    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Thresholds are the stock levels used for replenishment.
type Thresholds struct {
	Min     int
	Max     int
	Reorder int
}

// DeriveThresholds returns the default thresholds for a part first seen
// with the given quantity.
func DeriveThresholds(quantity int) Thresholds {
	return Thresholds{Min: 1, Max: max(10, quantity), Reorder: 1}
}

// NewPendingSparePart pre-registers the catalog entry for a planned item.
// It holds no stock until the plan is executed.
func NewPendingSparePart(id, code string, req DecompositionRequest, item PlannedItem, now time.Time) SparePart {
	part := newSparePart(id, code, req, item, now)
	part.Status = PartPending
	part.Notes = fmt.Sprintf("[%s] Registered by decomposition plan %s.", now.UTC().Format(noteTimeFormat), req.Number)
	return part
}

// NewExtractedSparePart creates an available catalog entry holding the
// extracted quantity.
func NewExtractedSparePart(id, code string, req DecompositionRequest, item PlannedItem, now time.Time) SparePart {
	part := newSparePart(id, code, req, item, now)
	part.Status = PartAvailable
	part.Stock = item.Quantity
	part.Notes = fmt.Sprintf("[%s] Created with %d unit(s) from decomposition %s.", now.UTC().Format(noteTimeFormat), item.Quantity, req.Number)
	return part
}

func newSparePart(id, code string, req DecompositionRequest, item PlannedItem, now time.Time) SparePart {
	th := DeriveThresholds(item.Quantity)
	return SparePart{
		ID:              id,
		TenantID:        req.TenantID,
		Code:            code,
		PartNumber:      item.PartCode,
		Name:            item.Name,
		Description:     item.Description,
		Category:        item.Category,
		Kind:            item.Kind,
		UnitPrice:       item.UnitPrice,
		PlannedQuantity: item.Quantity,
		MinStock:        th.Min,
		MaxStock:        th.Max,
		ReorderPoint:    th.Reorder,
		OriginRequestID: req.ID,
		OriginAssetID:   req.AssetID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// StockChange describes a relative stock increment on a catalog entry.
// UnitPrice is applied only where the entry has no price yet, except on
// activation where the planned price is authoritative.
type StockChange struct {
	PartID    string
	Quantity  int
	UnitPrice decimal.Decimal
	Note      string
	At        time.Time
}

// CandidateQuery narrows the catalog entries considered for an item.
type CandidateQuery struct {
	TenantID string
	Name     string
	PartCode string
}

// SparePartFilter holds optional criteria for listing catalog entries.
// An empty Statuses list means available entries only.
type SparePartFilter struct {
	TenantID        string
	Name            string
	OriginRequestID string
	Statuses        []PartStatus
	Limit           int
	Offset          int
}

// ActivationNote is appended when a pre-registered entry receives its stock.
func ActivationNote(at time.Time, requestNumber string, quantity int) string {
	return fmt.Sprintf("[%s] +%d unit(s) on execution of decomposition %s.", at.UTC().Format(noteTimeFormat), quantity, requestNumber)
}

// RestockNote is appended when extracted parts are consolidated onto an
// existing entry.
func RestockNote(at time.Time, requestNumber, assetCode string, quantity int) string {
	return fmt.Sprintf("[%s] +%d unit(s) consolidated from decomposition %s (asset %s).", at.UTC().Format(noteTimeFormat), quantity, requestNumber, assetCode)
}

// MergeNote is appended to a pre-registered entry absorbed by another.
func MergeNote(at time.Time, requestNumber, intoCode string) string {
	return fmt.Sprintf("[%s] Merged into %s on execution of decomposition %s.", at.UTC().Format(noteTimeFormat), intoCode, requestNumber)
}

// ComponentStatus is the state of a traceability record.
type ComponentStatus string

const ComponentExtracted ComponentStatus = "EXTRACTED"

// AssetComponent records that a catalog entry originated from an asset.
type AssetComponent struct {
	ID           string
	TenantID     string
	AssetID      string
	SparePartID  string
	RequestID    string
	Name         string
	Description  string
	Code         string
	Brand        string
	Model        string
	Status       ComponentStatus
	Replaceable  bool
	Transferable bool
	CreatedAt    time.Time
}

// NewAssetComponent links part to the asset it was extracted from.
func NewAssetComponent(id string, asset Asset, req DecompositionRequest, part SparePart, item PlannedItem, now time.Time) AssetComponent {
	return AssetComponent{
		ID:           id,
		TenantID:     asset.TenantID,
		AssetID:      asset.ID,
		SparePartID:  part.ID,
		RequestID:    req.ID,
		Name:         item.Name,
		Description:  item.Description,
		Code:         part.Code,
		Brand:        asset.Brand,
		Model:        asset.Model,
		Status:       ComponentExtracted,
		Replaceable:  true,
		Transferable: true,
		CreatedAt:    now,
	}
}
