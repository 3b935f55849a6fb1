package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/assetiq/internal/domain"
)

func TestNewAssetInput_Validate_Defaults(t *testing.T) {
	in := domain.NewAssetInput{Name: "  Server rack  ", PurchasePrice: decimal.NewFromInt(100)}
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Name != "Server rack" {
		t.Errorf("Name = %q, want %q", in.Name, "Server rack")
	}
	if in.Status != domain.AssetAvailable {
		t.Errorf("Status = %q, want %q", in.Status, domain.AssetAvailable)
	}
}

func TestNewAssetInput_Validate_Errors(t *testing.T) {
	cases := map[string]domain.NewAssetInput{
		"name":           {Name: " "},
		"status":         {Name: "x", Status: "BROKEN"},
		"purchase_price": {Name: "x", PurchasePrice: decimal.NewFromInt(-1)},
	}

	for field, in := range cases {
		err := in.Validate()
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("%s: expected ValidationError, got %v", field, err)
			continue
		}
		if vErr.Field != field {
			t.Errorf("Field = %q, want %q", vErr.Field, field)
		}
	}
}

func TestAsset_CheckDecomposable(t *testing.T) {
	cases := []struct {
		name   string
		status domain.AssetStatus
		active bool
		ok     bool
	}{
		{"available", domain.AssetAvailable, true, true},
		{"in use", domain.AssetInUse, true, true},
		{"maintenance", domain.AssetMaintenance, true, true},
		{"inactive", domain.AssetAvailable, false, false},
		{"retired", domain.AssetRetired, true, false},
		{"disposed", domain.AssetDisposed, true, false},
	}

	for _, tc := range cases {
		asset := domain.Asset{ID: "a-1", Status: tc.status, Active: tc.active}
		err := asset.CheckDecomposable()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok {
			var stateErr *domain.InvalidAssetStateError
			if !errors.As(err, &stateErr) {
				t.Errorf("%s: expected InvalidAssetStateError, got %v", tc.name, err)
			}
		}
	}
}

func TestRetirementNote(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	note := domain.RetirementNote(at, "DEC-20260304-ABCDEF", 3)

	for _, want := range []string{"2026-03-04 10:30 UTC", "DEC-20260304-ABCDEF", "3 part(s)"} {
		if !strings.Contains(note, want) {
			t.Errorf("note %q missing %q", note, want)
		}
	}
}
