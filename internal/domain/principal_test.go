package domain_test

import (
	"testing"

	"github.com/neomorfeo/assetiq/internal/domain"
)

func TestParseCapability(t *testing.T) {
	c, err := domain.ParseCapability("tenant:cross")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != domain.CapabilityCrossTenant {
		t.Errorf("got %q, want %q", c, domain.CapabilityCrossTenant)
	}

	if _, err := domain.ParseCapability("admin"); err == nil {
		t.Error("expected error for unknown capability")
	}
}

func TestPrincipal_CanAccess(t *testing.T) {
	member := domain.Principal{TenantID: "acme"}
	operator := domain.Principal{TenantID: "ops", Capabilities: []domain.Capability{domain.CapabilityCrossTenant}}
	anonymous := domain.Principal{}

	if !member.CanAccess("acme") {
		t.Error("member should access own tenant")
	}
	if member.CanAccess("globex") {
		t.Error("member should not access other tenant")
	}
	if !operator.CanAccess("globex") {
		t.Error("cross-tenant principal should access any tenant")
	}
	if anonymous.CanAccess("") {
		t.Error("principal without tenant should not access empty tenant")
	}
}

func TestPrincipal_ScopeTenant(t *testing.T) {
	member := domain.Principal{TenantID: "acme"}
	operator := domain.Principal{Capabilities: []domain.Capability{domain.CapabilityCrossTenant}}

	if got := member.ScopeTenant("globex"); got != "acme" {
		t.Errorf("member scope = %q, want %q", got, "acme")
	}
	if got := operator.ScopeTenant(""); got != "" {
		t.Errorf("operator scope = %q, want all tenants", got)
	}
	if got := operator.ScopeTenant("globex"); got != "globex" {
		t.Errorf("operator scope = %q, want %q", got, "globex")
	}
}
