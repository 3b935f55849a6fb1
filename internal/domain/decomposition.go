package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus represents the lifecycle state of a decomposition request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestCompleted RequestStatus = "COMPLETED"
)

// ParseRequestStatus converts s into a known request status.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch status := RequestStatus(strings.ToUpper(strings.TrimSpace(s))); status {
	case RequestPending, RequestCompleted:
		return status, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown request status %q", s)}
}

// DecompositionRequest is a plan to disassemble one asset into parts.
type DecompositionRequest struct {
	ID          string
	Number      string
	Status      RequestStatus
	AssetID     string
	TenantID    string
	Description string
	// LegacyItems is the embedded item list carried by requests created before
	// catalog pre-registration existed. Empty for new plans.
	LegacyItems []PlannedItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewDecompositionRequest creates a request in the initial PENDING state.
func NewDecompositionRequest(id, number, tenantID, assetID, description string, now time.Time) DecompositionRequest {
	return DecompositionRequest{
		ID:          id,
		Number:      number,
		Status:      RequestPending,
		AssetID:     assetID,
		TenantID:    tenantID,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// PlannedItem is one part the plan intends to extract.
type PlannedItem struct {
	Name        string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	PartCode    string
	Category    string
	Kind        PartKind
}

const (
	defaultCategory = "uncategorized"
	maxNameLength   = 255
)

// NormalizeItems trims and defaults every item and validates the list.
// The returned slice is a copy; items is left untouched.
func NormalizeItems(items []PlannedItem) ([]PlannedItem, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "at least one item is required"}
	}

	out := make([]PlannedItem, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		item.Description = strings.TrimSpace(item.Description)
		item.PartCode = strings.TrimSpace(item.PartCode)
		item.Category = strings.TrimSpace(item.Category)
		if item.Category == "" {
			item.Category = defaultCategory
		}
		if item.Kind == "" {
			item.Kind = PartKindSpare
		}

		field := fmt.Sprintf("items[%d]", i)
		switch {
		case item.Name == "":
			return nil, &ValidationError{Field: field + ".name", Message: "is required"}
		case len(item.Name) > maxNameLength:
			return nil, &ValidationError{Field: field + ".name", Message: fmt.Sprintf("must be at most %d characters", maxNameLength)}
		case item.Quantity < 1:
			return nil, &ValidationError{Field: field + ".quantity", Message: "must be at least 1"}
		case item.UnitPrice.IsNegative():
			return nil, &ValidationError{Field: field + ".unit_price", Message: "must not be negative"}
		case !item.Kind.Valid():
			return nil, &ValidationError{Field: field + ".kind", Message: fmt.Sprintf("unknown part kind %q", item.Kind)}
		}

		item.UnitPrice = item.UnitPrice.Round(CurrencyPrecision)
		out[i] = item
	}
	return out, nil
}

// CreatePlanInput carries a request to plan the decomposition of an asset.
type CreatePlanInput struct {
	AssetID     string
	Description string
	Items       []PlannedItem
}

// Plan is a decomposition request together with its pre-registered parts.
type Plan struct {
	Request DecompositionRequest
	Parts   []SparePart
}

// ItemCount returns the number of planned items.
func (p Plan) ItemCount() int {
	if len(p.Parts) > 0 {
		return len(p.Parts)
	}
	return len(p.Request.LegacyItems)
}

// ItemResult records how one planned item landed in the catalog.
type ItemResult struct {
	Part      SparePart
	Component AssetComponent
	Match     MatchKind
}

// ExecutionResult is returned by a successful execution.
type ExecutionResult struct {
	Request DecompositionRequest
	Asset   Asset
	Items   []ItemResult
}

// RequestFilter holds optional criteria for listing decomposition requests.
type RequestFilter struct {
	TenantID string
	AssetID  string
	Status   *RequestStatus
	Limit    int
	Offset   int
}
