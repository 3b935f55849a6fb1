package domain

import (
	"cmp"
	"slices"
	"strings"
)

// MatchKind is the confidence tier at which an item resolved to an entry.
type MatchKind string

const (
	MatchExactCode  MatchKind = "exact_code"
	MatchExactName  MatchKind = "exact_name"
	MatchSubstring  MatchKind = "substring"
	MatchSelfOrigin MatchKind = "self_origin"
	MatchNone       MatchKind = "none"
)

// Match is the outcome of resolving an item against the catalog.
// Part is nil when Kind is MatchNone.
type Match struct {
	Kind MatchKind
	Part *SparePart
}

// MatchItem resolves item to at most one catalog entry.
//
// Tiers are tried in order: exact code, exact name, a unique substring hit,
// then the item's own pre-registered entry. Several hits on an exact tier
// resolve to the oldest entry; several substring hits are ambiguous and fall
// through to the own entry, or to MatchNone for items without one. Only
// available entries other than the item's own are treated as established.
func MatchItem(item SourceItem, candidates []SparePart) Match {
	established := make([]SparePart, 0, len(candidates))
	for _, c := range candidates {
		if c.Status != PartAvailable {
			continue
		}
		if item.Linked != nil && c.ID == item.Linked.ID {
			continue
		}
		established = append(established, c)
	}
	slices.SortStableFunc(established, oldestFirst)

	if code := strings.TrimSpace(item.PartCode); code != "" {
		if hit, ok := first(established, func(c SparePart) bool {
			return c.PartNumber == code || c.Code == code
		}); ok {
			return Match{Kind: MatchExactCode, Part: hit}
		}
	}

	name := NormalizeName(item.Name)
	if hit, ok := first(established, func(c SparePart) bool {
		return NormalizeName(c.Name) == name
	}); ok {
		return Match{Kind: MatchExactName, Part: hit}
	}

	var hits []SparePart
	for _, c := range established {
		if strings.Contains(NormalizeName(c.Name), name) {
			hits = append(hits, c)
		}
	}
	if len(hits) == 1 {
		return Match{Kind: MatchSubstring, Part: &hits[0]}
	}

	if item.Linked != nil {
		self := *item.Linked
		return Match{Kind: MatchSelfOrigin, Part: &self}
	}
	return Match{Kind: MatchNone}
}

// NormalizeName lowercases s and collapses runs of whitespace.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func first(parts []SparePart, pred func(SparePart) bool) (*SparePart, bool) {
	i := slices.IndexFunc(parts, pred)
	if i < 0 {
		return nil, false
	}
	p := parts[i]
	return &p, true
}

// oldestFirst orders entries by creation time, keeping input order for ties.
func oldestFirst(a, b SparePart) int {
	return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
}
