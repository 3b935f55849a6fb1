package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// CreatePlan records a decomposition request for an asset and pre-registers
// one pending catalog entry per planned item, in one transaction.
func (s *Service) CreatePlan(ctx context.Context, p domain.Principal, in domain.CreatePlanInput) (domain.Plan, error) {
	if err := authenticated(p); err != nil {
		return domain.Plan{}, err
	}

	items, err := domain.NormalizeItems(in.Items)
	if err != nil {
		return domain.Plan{}, err
	}

	asset, err := s.GetAsset(ctx, p, in.AssetID)
	if err != nil {
		return domain.Plan{}, err
	}
	if err := asset.CheckDecomposable(); err != nil {
		return domain.Plan{}, err
	}

	now := s.now()
	id, err := generateID()
	if err != nil {
		return domain.Plan{}, fmt.Errorf("generating request id: %w", err)
	}
	req := domain.NewDecompositionRequest(id, requestNumber(id, now.Format("20060102")), asset.TenantID, asset.ID, in.Description, now)

	parts := make([]domain.SparePart, len(items))
	for i, item := range items {
		partID, err := generateID()
		if err != nil {
			return domain.Plan{}, fmt.Errorf("generating spare part id: %w", err)
		}
		parts[i] = domain.NewPendingSparePart(partID, sparePartCode(partID), req, item, now)
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Requests().Create(ctx, req); err != nil {
			return err
		}
		for _, part := range parts {
			if err := tx.SpareParts().Create(ctx, part); err != nil {
				return err
			}
		}
		return tx.Events().Publish(ctx, domain.DomainEvent{
			Type:          domain.EventTypePlanned,
			TenantID:      req.TenantID,
			RequestID:     req.ID,
			RequestNumber: req.Number,
			AssetID:       req.AssetID,
			ItemCount:     len(parts),
			OccurredAt:    now,
		})
	})
	if err != nil {
		return domain.Plan{}, fmt.Errorf("creating decomposition plan: %w", err)
	}

	s.logger.InfoContext(ctx, "decomposition planned",
		"request_id", req.ID,
		"number", req.Number,
		"asset_id", asset.ID,
		"items", len(parts),
	)
	return domain.Plan{Request: req, Parts: parts}, nil
}
