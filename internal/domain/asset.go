package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetStatus represents the lifecycle state of a physical asset.
type AssetStatus string

const (
	AssetAvailable   AssetStatus = "AVAILABLE"
	AssetInUse       AssetStatus = "IN_USE"
	AssetMaintenance AssetStatus = "MAINTENANCE"
	AssetRetired     AssetStatus = "RETIRED"
	AssetDisposed    AssetStatus = "DISPOSED"
)

// Valid reports whether s is a known asset status.
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetAvailable, AssetInUse, AssetMaintenance, AssetRetired, AssetDisposed:
		return true
	}
	return false
}

// Asset is a tracked physical item owned by a tenant.
type Asset struct {
	ID            string
	TenantID      string
	Code          string
	Name          string
	Category      string
	Brand         string
	Model         string
	Status        AssetStatus
	Active        bool
	PurchasePrice decimal.Decimal
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAssetInput carries the fields needed to register an asset.
type NewAssetInput struct {
	TenantID      string
	Code          string
	Name          string
	Category      string
	Brand         string
	Model         string
	Status        AssetStatus
	PurchasePrice decimal.Decimal
	Notes         string
}

// Validate normalizes the input in place and reports the first problem found.
func (in *NewAssetInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if in.Status == "" {
		in.Status = AssetAvailable
	}
	if !in.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown asset status %q", in.Status)}
	}
	if in.PurchasePrice.IsNegative() {
		return &ValidationError{Field: "purchase_price", Message: "must not be negative"}
	}
	return nil
}

// NewAsset creates an active asset from validated input.
func NewAsset(id, code string, in NewAssetInput, now time.Time) Asset {
	return Asset{
		ID:            id,
		TenantID:      in.TenantID,
		Code:          code,
		Name:          in.Name,
		Category:      in.Category,
		Brand:         in.Brand,
		Model:         in.Model,
		Status:        in.Status,
		Active:        true,
		PurchasePrice: in.PurchasePrice.Round(CurrencyPrecision),
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CheckDecomposable returns an *InvalidAssetStateError when the asset may not
// be broken down into parts.
func (a Asset) CheckDecomposable() error {
	switch {
	case !a.Active:
		return &InvalidAssetStateError{AssetID: a.ID, Status: a.Status, Reason: "asset is inactive"}
	case a.Status == AssetRetired, a.Status == AssetDisposed:
		return &InvalidAssetStateError{AssetID: a.ID, Status: a.Status, Reason: fmt.Sprintf("asset is %s", a.Status)}
	}
	return nil
}

// RetirementNote is appended to the asset notes when a decomposition completes.
func RetirementNote(at time.Time, requestNumber string, parts int) string {
	return fmt.Sprintf("[%s] Decomposed by request %s into %d part(s); asset retired.",
		at.UTC().Format(noteTimeFormat), requestNumber, parts)
}
