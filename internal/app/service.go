package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/assetiq/internal/domain"
)

var _ domain.DecompositionService = (*Service)(nil)

// Service orchestrates asset decomposition: planning, execution and the
// read operations around them.
type Service struct {
	store    domain.Store
	requests domain.TransitionValidator[domain.RequestStatus]
	assets   domain.TransitionValidator[domain.AssetStatus]
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger overrides the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a service with the given adapters.
func NewService(
	store domain.Store,
	requests domain.TransitionValidator[domain.RequestStatus],
	assets domain.TransitionValidator[domain.AssetStatus],
	opts ...Option,
) *Service {
	s := &Service{
		store:    store,
		requests: requests,
		assets:   assets,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// authorize checks that p may act on data owned by tenantID.
func authorize(p domain.Principal, tenantID string) error {
	if err := authenticated(p); err != nil {
		return err
	}
	if !p.CanAccess(tenantID) {
		return domain.ErrPermissionDenied
	}
	return nil
}

func authenticated(p domain.Principal) error {
	if p.TenantID == "" && !p.Has(domain.CapabilityCrossTenant) {
		return domain.ErrUnauthenticated
	}
	return nil
}

// RegisterAsset persists a new active asset. The tenant defaults to the
// principal's own.
func (s *Service) RegisterAsset(ctx context.Context, p domain.Principal, in domain.NewAssetInput) (domain.Asset, error) {
	if in.TenantID == "" {
		in.TenantID = p.TenantID
	}
	if in.TenantID == "" {
		return domain.Asset{}, &domain.ValidationError{Field: "tenant_id", Message: "is required"}
	}
	if err := authorize(p, in.TenantID); err != nil {
		return domain.Asset{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.Asset{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Asset{}, fmt.Errorf("generating asset id: %w", err)
	}
	code := in.Code
	if code == "" {
		code = assetCode(id)
	}

	asset := domain.NewAsset(id, code, in, s.now())
	if err := s.store.Assets().Create(ctx, asset); err != nil {
		return domain.Asset{}, fmt.Errorf("creating asset: %w", err)
	}

	s.logger.InfoContext(ctx, "asset registered", "asset_id", asset.ID, "code", asset.Code, "tenant_id", asset.TenantID)
	return asset, nil
}

// GetAsset returns an asset by its unique identifier.
func (s *Service) GetAsset(ctx context.Context, p domain.Principal, id string) (domain.Asset, error) {
	asset, err := s.store.Assets().GetByID(ctx, id)
	if err != nil {
		return domain.Asset{}, err
	}
	if err := authorize(p, asset.TenantID); err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

// ListCompatibleAssets returns the other in-service assets of the source
// asset's tenant, which may receive its parts.
func (s *Service) ListCompatibleAssets(ctx context.Context, p domain.Principal, sourceAssetID string) ([]domain.Asset, error) {
	source, err := s.GetAsset(ctx, p, sourceAssetID)
	if err != nil {
		return nil, err
	}
	return s.store.Assets().ListCompatible(ctx, source.TenantID, source.ID)
}

// ListComponents returns the traceability records of parts extracted from an asset.
func (s *Service) ListComponents(ctx context.Context, p domain.Principal, assetID string) ([]domain.AssetComponent, error) {
	asset, err := s.GetAsset(ctx, p, assetID)
	if err != nil {
		return nil, err
	}
	return s.store.Components().ListByAsset(ctx, asset.ID)
}

// GetPlan returns a request with the catalog entries it pre-registered.
func (s *Service) GetPlan(ctx context.Context, p domain.Principal, requestID string) (domain.Plan, error) {
	req, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return domain.Plan{}, err
	}
	if err := authorize(p, req.TenantID); err != nil {
		return domain.Plan{}, err
	}

	parts, err := s.store.SpareParts().ListByOriginRequest(ctx, req.ID)
	if err != nil {
		return domain.Plan{}, err
	}
	return domain.Plan{Request: req, Parts: parts}, nil
}

// ListPlans returns requests matching the filter, restricted to the
// principal's tenant unless it may cross tenants.
func (s *Service) ListPlans(ctx context.Context, p domain.Principal, filter domain.RequestFilter) ([]domain.DecompositionRequest, error) {
	if err := authenticated(p); err != nil {
		return nil, err
	}
	filter.TenantID = p.ScopeTenant(filter.TenantID)
	return s.store.Requests().List(ctx, filter)
}

// GetSparePart returns a catalog entry by its unique identifier.
func (s *Service) GetSparePart(ctx context.Context, p domain.Principal, id string) (domain.SparePart, error) {
	part, err := s.store.SpareParts().GetByID(ctx, id)
	if err != nil {
		return domain.SparePart{}, err
	}
	if err := authorize(p, part.TenantID); err != nil {
		return domain.SparePart{}, err
	}
	return part, nil
}

// ListSpareParts returns catalog entries matching the filter.
func (s *Service) ListSpareParts(ctx context.Context, p domain.Principal, filter domain.SparePartFilter) ([]domain.SparePart, error) {
	if err := authenticated(p); err != nil {
		return nil, err
	}
	filter.TenantID = p.ScopeTenant(filter.TenantID)
	return s.store.SpareParts().List(ctx, filter)
}
