package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/neomorfeo/assetiq/internal/adapter/fsm"
	"github.com/neomorfeo/assetiq/internal/domain"
)

func TestRequestValidator_AllTransitions(t *testing.T) {
	v := adapter.NewRequestValidator()
	ctx := context.Background()

	for _, tr := range domain.RequestTransitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestRequestValidator_CompletedIsFinal(t *testing.T) {
	v := adapter.NewRequestValidator()

	_, err := v.Apply(context.Background(), domain.RequestCompleted, domain.EventExecute)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventExecute {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventExecute)
	}
	if trErr.Current != string(domain.RequestCompleted) {
		t.Errorf("current = %q, want %q", trErr.Current, domain.RequestCompleted)
	}
}

func TestAssetValidator_AllTransitions(t *testing.T) {
	v := adapter.NewAssetValidator()
	ctx := context.Background()

	for _, tr := range domain.AssetTransitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestAssetValidator_DecomposeRejected(t *testing.T) {
	v := adapter.NewAssetValidator()
	ctx := context.Background()

	for _, status := range []domain.AssetStatus{domain.AssetRetired, domain.AssetDisposed} {
		_, err := v.Apply(ctx, status, domain.EventDecompose)
		var trErr *domain.TransitionError
		if !errors.As(err, &trErr) {
			t.Errorf("Apply(%q, decompose): expected TransitionError, got %v", status, err)
		}
	}
}

func TestAssetValidator_RetireThenDispose(t *testing.T) {
	v := adapter.NewAssetValidator()
	ctx := context.Background()

	got, err := v.Apply(ctx, domain.AssetInUse, domain.EventDecompose)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	got, err = v.Apply(ctx, got, domain.EventDispose)
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if got != domain.AssetDisposed {
		t.Errorf("got %q, want %q", got, domain.AssetDisposed)
	}
}
