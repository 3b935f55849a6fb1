package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// ExecutePlan converts a pending plan into catalog stock and component
// records and retires the source asset. Everything happens in one
// transaction whose first write completes the request; a failure at any
// point leaves the request pending and the catalog untouched.
func (s *Service) ExecutePlan(ctx context.Context, p domain.Principal, requestID string) (domain.ExecutionResult, error) {
	req, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	if err := authorize(p, req.TenantID); err != nil {
		return domain.ExecutionResult{}, err
	}

	if _, err := s.requests.Apply(ctx, req.Status, domain.EventExecute); err != nil {
		var trErr *domain.TransitionError
		if errors.As(err, &trErr) {
			return domain.ExecutionResult{}, domain.ErrAlreadyExecuted
		}
		return domain.ExecutionResult{}, err
	}

	var result domain.ExecutionResult
	err = s.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		result, err = s.execute(ctx, tx, req)
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "decomposition execution failed",
			"request_id", req.ID,
			"kind", domain.KindOf(err),
			"error", err,
		)
		return domain.ExecutionResult{}, err
	}

	s.logger.InfoContext(ctx, "decomposition executed",
		"request_id", req.ID,
		"number", req.Number,
		"asset_id", req.AssetID,
		"items", len(result.Items),
	)
	return result, nil
}

func (s *Service) execute(ctx context.Context, tx domain.Repositories, req domain.DecompositionRequest) (domain.ExecutionResult, error) {
	at := s.now()
	fail := func(step string, err error) error {
		return &domain.ExecutionError{RequestID: req.ID, Step: step, Err: err}
	}

	if err := tx.Requests().Complete(ctx, req.ID, at); err != nil {
		return domain.ExecutionResult{}, fail("completing request", err)
	}
	req.Status = domain.RequestCompleted
	req.UpdatedAt = at
	req.CompletedAt = &at

	asset, err := tx.Assets().GetByID(ctx, req.AssetID)
	if errors.Is(err, domain.ErrAssetNotFound) {
		return domain.ExecutionResult{}, &domain.InvalidAssetStateError{AssetID: req.AssetID, Reason: "asset no longer exists"}
	}
	if err != nil {
		return domain.ExecutionResult{}, fail("loading asset", err)
	}
	if err := asset.CheckDecomposable(); err != nil {
		return domain.ExecutionResult{}, err
	}
	retired, err := s.assets.Apply(ctx, asset.Status, domain.EventDecompose)
	if err != nil {
		return domain.ExecutionResult{}, &domain.InvalidAssetStateError{AssetID: asset.ID, Status: asset.Status, Reason: err.Error()}
	}

	linked, err := tx.SpareParts().ListByOriginRequest(ctx, req.ID)
	if err != nil {
		return domain.ExecutionResult{}, fail("loading plan items", err)
	}
	source, err := domain.ResolveItemSource(linked, req.LegacyItems)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	items := domain.ApplyFallbackPricing(asset.PurchasePrice, source.Items())

	results := make([]domain.ItemResult, 0, len(items))
	for i, item := range items {
		res, err := s.consolidate(ctx, tx, req, asset, item, at)
		if err != nil {
			return domain.ExecutionResult{}, &domain.ExecutionError{RequestID: req.ID, Item: i, Err: err}
		}
		results = append(results, res)
	}

	note := domain.RetirementNote(at, req.Number, len(results))
	if err := tx.Assets().Retire(ctx, asset.ID, retired, note, at); err != nil {
		return domain.ExecutionResult{}, fail("retiring asset", err)
	}
	asset, err = tx.Assets().GetByID(ctx, asset.ID)
	if err != nil {
		return domain.ExecutionResult{}, fail("reloading asset", err)
	}

	err = tx.Events().Publish(ctx, domain.DomainEvent{
		Type:          domain.EventTypeExecuted,
		TenantID:      req.TenantID,
		RequestID:     req.ID,
		RequestNumber: req.Number,
		AssetID:       asset.ID,
		ItemCount:     len(results),
		OccurredAt:    at,
	})
	if err != nil {
		return domain.ExecutionResult{}, fail("publishing execution event", err)
	}

	return domain.ExecutionResult{Request: req, Asset: asset, Items: results}, nil
}

// consolidate lands one item in the catalog and records the component
// extracted from the asset.
func (s *Service) consolidate(
	ctx context.Context,
	tx domain.Repositories,
	req domain.DecompositionRequest,
	asset domain.Asset,
	item domain.SourceItem,
	at time.Time,
) (domain.ItemResult, error) {
	candidates, err := tx.SpareParts().FindCandidates(ctx, domain.CandidateQuery{
		TenantID: req.TenantID,
		Name:     item.Name,
		PartCode: item.PartCode,
	})
	if err != nil {
		return domain.ItemResult{}, err
	}

	match := domain.MatchItem(item, candidates)
	var part domain.SparePart

	switch match.Kind {
	case domain.MatchSelfOrigin:
		err := tx.SpareParts().Activate(ctx, domain.StockChange{
			PartID:    match.Part.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Note:      domain.ActivationNote(at, req.Number, item.Quantity),
			At:        at,
		})
		if err != nil {
			return domain.ItemResult{}, err
		}
		if part, err = tx.SpareParts().GetByID(ctx, match.Part.ID); err != nil {
			return domain.ItemResult{}, err
		}

	case domain.MatchNone:
		id, err := generateID()
		if err != nil {
			return domain.ItemResult{}, fmt.Errorf("generating spare part id: %w", err)
		}
		part = domain.NewExtractedSparePart(id, sparePartCode(id), req, item.PlannedItem, at)
		if err := tx.SpareParts().Create(ctx, part); err != nil {
			return domain.ItemResult{}, err
		}

	default:
		err := tx.SpareParts().Restock(ctx, domain.StockChange{
			PartID:    match.Part.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Note:      domain.RestockNote(at, req.Number, asset.Code, item.Quantity),
			At:        at,
		})
		if err != nil {
			return domain.ItemResult{}, err
		}
		if item.Linked != nil {
			note := domain.MergeNote(at, req.Number, match.Part.Code)
			if err := tx.SpareParts().MarkMerged(ctx, item.Linked.ID, match.Part.ID, note, at); err != nil {
				return domain.ItemResult{}, err
			}
		}
		if part, err = tx.SpareParts().GetByID(ctx, match.Part.ID); err != nil {
			return domain.ItemResult{}, err
		}
	}

	componentID, err := generateID()
	if err != nil {
		return domain.ItemResult{}, fmt.Errorf("generating component id: %w", err)
	}
	component := domain.NewAssetComponent(componentID, asset, req, part, item.PlannedItem, at)
	if err := tx.Components().Create(ctx, component); err != nil {
		return domain.ItemResult{}, err
	}

	return domain.ItemResult{Part: part, Component: component, Match: match.Kind}, nil
}
