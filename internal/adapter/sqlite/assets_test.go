package sqlite_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/neomorfeo/assetiq/internal/domain"
)

func TestAssets_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	want := mustCreateAsset(t, store, "a-1", "acme")

	got, err := store.Assets().GetByID(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("asset mismatch (-want +got):\n%s", diff)
	}
}

func TestAssets_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Assets().GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestAssets_DuplicateCode(t *testing.T) {
	store := newTestStore(t)
	asset := mustCreateAsset(t, store, "a-1", "acme")

	asset.ID = "a-2"
	err := store.Assets().Create(context.Background(), asset)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "code" {
		t.Errorf("expected code ValidationError, got %v", err)
	}
}

func TestAssets_ListCompatible(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateAsset(t, store, "src", "acme")
	mustCreateAsset(t, store, "ok", "acme")
	mustCreateAsset(t, store, "other-tenant", "globex")
	retired := mustCreateAsset(t, store, "retired", "acme")
	if err := store.Assets().Retire(ctx, retired.ID, domain.AssetRetired, "gone", now); err != nil {
		t.Fatalf("Retire failed: %v", err)
	}

	got, err := store.Assets().ListCompatible(ctx, "acme", "src")
	if err != nil {
		t.Fatalf("ListCompatible failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" {
		t.Errorf("got %+v, want only asset ok", got)
	}
}

func TestAssets_Retire(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreateAsset(t, store, "a-1", "acme")

	if err := store.Assets().Retire(ctx, "a-1", domain.AssetRetired, "first", now); err != nil {
		t.Fatalf("Retire failed: %v", err)
	}

	got, _ := store.Assets().GetByID(ctx, "a-1")
	if got.Status != domain.AssetRetired || got.Active {
		t.Errorf("status = %q active = %v, want RETIRED inactive", got.Status, got.Active)
	}
	if got.Notes != "first" {
		t.Errorf("Notes = %q, want %q", got.Notes, "first")
	}

	err := store.Assets().Retire(ctx, "a-1", domain.AssetRetired, "second", now)
	var stateErr *domain.InvalidAssetStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidAssetStateError, got %v", err)
	}
	if got, _ := store.Assets().GetByID(ctx, "a-1"); strings.Contains(got.Notes, "second") {
		t.Errorf("rejected retirement should not touch notes: %q", got.Notes)
	}
}

func TestAssets_RetireAppendsNote(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asset := mustCreateAsset(t, store, "a-1", "acme")
	asset.ID, asset.Code, asset.Notes = "a-2", "AST-a-2", "bought used"
	if err := store.Assets().Create(ctx, asset); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Assets().Retire(ctx, "a-2", domain.AssetRetired, "retired", now); err != nil {
		t.Fatalf("Retire failed: %v", err)
	}

	got, _ := store.Assets().GetByID(ctx, "a-2")
	if got.Notes != "bought used\nretired" {
		t.Errorf("Notes = %q", got.Notes)
	}
}

func TestAssets_RetireNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Assets().Retire(context.Background(), "missing", domain.AssetRetired, "x", now)
	if !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}
