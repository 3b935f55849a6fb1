package domain

import (
	"context"
	"time"
)

// AssetRepository defines the persistence contract for assets.
type AssetRepository interface {
	Create(ctx context.Context, asset Asset) error
	GetByID(ctx context.Context, id string) (Asset, error)
	ListCompatible(ctx context.Context, tenantID, excludeID string) ([]Asset, error)
	// Retire moves a decomposable asset to status, deactivates it and
	// appends note. It fails with *InvalidAssetStateError when the asset is
	// no longer decomposable.
	Retire(ctx context.Context, id string, status AssetStatus, note string, at time.Time) error
}

// RequestRepository defines the persistence contract for decomposition requests.
type RequestRepository interface {
	Create(ctx context.Context, req DecompositionRequest) error
	GetByID(ctx context.Context, id string) (DecompositionRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]DecompositionRequest, error)
	// Complete switches a PENDING request to COMPLETED. It returns
	// ErrAlreadyExecuted when the request is no longer pending.
	Complete(ctx context.Context, id string, at time.Time) error
}

// SparePartRepository defines the persistence contract for the catalog.
type SparePartRepository interface {
	Create(ctx context.Context, part SparePart) error
	GetByID(ctx context.Context, id string) (SparePart, error)
	List(ctx context.Context, filter SparePartFilter) ([]SparePart, error)
	ListByOriginRequest(ctx context.Context, requestID string) ([]SparePart, error)
	FindCandidates(ctx context.Context, query CandidateQuery) ([]SparePart, error)
	// Activate makes a pending entry available with its extracted stock.
	Activate(ctx context.Context, change StockChange) error
	// Restock adds to the stock of an available entry.
	Restock(ctx context.Context, change StockChange) error
	// MarkMerged records that a pending entry was absorbed by intoID.
	MarkMerged(ctx context.Context, id, intoID, note string, at time.Time) error
}

// ComponentRepository defines the persistence contract for asset components.
type ComponentRepository interface {
	Create(ctx context.Context, component AssetComponent) error
	ListByAsset(ctx context.Context, assetID string) ([]AssetComponent, error)
	ListByRequest(ctx context.Context, requestID string) ([]AssetComponent, error)
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// EventSink receives domain events after they leave the outbox.
type EventSink interface {
	Deliver(ctx context.Context, event DomainEvent) error
}

// Repositories groups the repositories available to one unit of work.
type Repositories interface {
	Assets() AssetRepository
	Requests() RequestRepository
	SpareParts() SparePartRepository
	Components() ComponentRepository
	Events() EventPublisher
}

// Store provides repositories and atomic units of work. Every write made
// through the Repositories passed to fn commits together or not at all.
type Store interface {
	Repositories
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// DecompositionService is the inbound port used by transports.
type DecompositionService interface {
	RegisterAsset(ctx context.Context, p Principal, in NewAssetInput) (Asset, error)
	GetAsset(ctx context.Context, p Principal, id string) (Asset, error)
	ListCompatibleAssets(ctx context.Context, p Principal, sourceAssetID string) ([]Asset, error)
	ListComponents(ctx context.Context, p Principal, assetID string) ([]AssetComponent, error)

	CreatePlan(ctx context.Context, p Principal, in CreatePlanInput) (Plan, error)
	ExecutePlan(ctx context.Context, p Principal, requestID string) (ExecutionResult, error)
	GetPlan(ctx context.Context, p Principal, requestID string) (Plan, error)
	ListPlans(ctx context.Context, p Principal, filter RequestFilter) ([]DecompositionRequest, error)

	GetSparePart(ctx context.Context, p Principal, id string) (SparePart, error)
	ListSpareParts(ctx context.Context, p Principal, filter SparePartFilter) ([]SparePart, error)
}
