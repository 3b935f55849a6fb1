package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/assetiq/internal/domain"
)

func TestCreatePlan_PreRegistersPendingParts(t *testing.T) {
	f := newFixture(t)
	asset := f.asset(t, 1000)

	plan := f.plan(t, asset.ID,
		domain.PlannedItem{Name: "Power Supply", Quantity: 2, UnitPrice: decimal.NewFromInt(80), PartCode: "PSU-1"},
		item("Fan", 4),
	)

	req := plan.Request
	if req.Status != domain.RequestPending {
		t.Errorf("Status = %q, want %q", req.Status, domain.RequestPending)
	}
	if !strings.HasPrefix(req.Number, "DEC-20260314-") || len(req.Number) != len("DEC-20260314-")+6 {
		t.Errorf("Number = %q, want DEC-20260314-XXXXXX", req.Number)
	}
	if plan.ItemCount() != 2 {
		t.Fatalf("ItemCount = %d, want 2", plan.ItemCount())
	}

	psu := f.part(t, plan.Parts[0].ID)
	if psu.Status != domain.PartPending || psu.Stock != 0 || psu.PlannedQuantity != 2 {
		t.Errorf("psu: status = %q stock = %d planned = %d", psu.Status, psu.Stock, psu.PlannedQuantity)
	}
	if psu.PartNumber != "PSU-1" || !strings.HasPrefix(psu.Code, "SP-") {
		t.Errorf("psu: part number = %q code = %q", psu.PartNumber, psu.Code)
	}
	if psu.OriginRequestID != req.ID || psu.OriginAssetID != asset.ID {
		t.Errorf("psu: origin = %q/%q, want %q/%q", psu.OriginRequestID, psu.OriginAssetID, req.ID, asset.ID)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].Type != domain.EventTypePlanned {
		t.Fatalf("events = %+v, want one planned event", f.outbox.events)
	}
	if f.outbox.events[0].ItemCount != 2 {
		t.Errorf("event ItemCount = %d, want 2", f.outbox.events[0].ItemCount)
	}
}

func TestCreatePlan_RejectsMalformedItems(t *testing.T) {
	f := newFixture(t)
	asset := f.asset(t, 1000)
	ctx := context.Background()

	cases := [][]domain.PlannedItem{
		nil,
		{item("", 1)},
		{item("Fan", 0)},
		{{Name: "Fan", Quantity: 1, UnitPrice: decimal.NewFromInt(-5)}},
	}
	for _, items := range cases {
		_, err := f.svc.CreatePlan(ctx, acme, domain.CreatePlanInput{AssetID: asset.ID, Items: items})
		if domain.KindOf(err) != domain.KindValidation {
			t.Errorf("items %+v: kind = %q, want validation (err %v)", items, domain.KindOf(err), err)
		}
	}

	plans, _ := f.svc.ListPlans(ctx, acme, domain.RequestFilter{})
	if len(plans) != 0 {
		t.Errorf("got %d plans, want none after rejected input", len(plans))
	}
}

func TestCreatePlan_AssetNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePlan(context.Background(), acme, domain.CreatePlanInput{AssetID: "missing", Items: []domain.PlannedItem{item("Fan", 1)}})
	if !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestCreatePlan_OtherTenantDenied(t *testing.T) {
	f := newFixture(t)
	asset := f.asset(t, 1000)

	_, err := f.svc.CreatePlan(context.Background(), other, domain.CreatePlanInput{AssetID: asset.ID, Items: []domain.PlannedItem{item("Fan", 1)}})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreatePlan_RetiredAssetRejected(t *testing.T) {
	f := newFixture(t)
	asset := f.asset(t, 1000)
	if err := f.store.Assets().Retire(context.Background(), asset.ID, domain.AssetRetired, "", now); err != nil {
		t.Fatalf("retiring asset: %v", err)
	}

	_, err := f.svc.CreatePlan(context.Background(), acme, domain.CreatePlanInput{AssetID: asset.ID, Items: []domain.PlannedItem{item("Fan", 1)}})
	var stateErr *domain.InvalidAssetStateError
	if !errors.As(err, &stateErr) {
		t.Errorf("expected InvalidAssetStateError, got %v", err)
	}
}

func TestGetPlan(t *testing.T) {
	f := newFixture(t)
	asset := f.asset(t, 1000)
	plan := f.plan(t, asset.ID, item("Fan", 1), item("Disk", 2))
	ctx := context.Background()

	got, err := f.svc.GetPlan(ctx, acme, plan.Request.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ItemCount() != 2 || got.Parts[1].Name != "Disk" {
		t.Errorf("unexpected plan: %+v", got)
	}

	if _, err := f.svc.GetPlan(ctx, other, plan.Request.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := f.svc.GetPlan(ctx, acme, "missing"); !errors.Is(err, domain.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}
