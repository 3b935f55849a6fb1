package domain

import "fmt"

// Capability is a permission a principal may hold. The set is closed.
type Capability string

// CapabilityCrossTenant lets a principal act on other tenants' data.
const CapabilityCrossTenant Capability = "tenant:cross"

// ParseCapability converts s into a known capability.
func ParseCapability(s string) (Capability, error) {
	switch c := Capability(s); c {
	case CapabilityCrossTenant:
		return c, nil
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// Principal is the caller on whose behalf an operation runs.
type Principal struct {
	Subject      string
	TenantID     string
	Capabilities []Capability
}

// Has reports whether the principal holds c.
func (p Principal) Has(c Capability) bool {
	for _, held := range p.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}

// CanAccess reports whether the principal may act on data owned by tenantID.
func (p Principal) CanAccess(tenantID string) bool {
	if p.Has(CapabilityCrossTenant) {
		return true
	}
	return p.TenantID != "" && p.TenantID == tenantID
}

// ScopeTenant returns the tenant a listing should be restricted to.
// Cross-tenant principals may ask for any tenant, or all of them with "".
func (p Principal) ScopeTenant(requested string) string {
	if p.Has(CapabilityCrossTenant) {
		return requested
	}
	return p.TenantID
}
