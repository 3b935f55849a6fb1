package domain

// ItemOrigin names where a request's items come from.
type ItemOrigin string

const (
	OriginLinkedCatalog ItemOrigin = "linked_catalog"
	OriginEmbedded      ItemOrigin = "embedded_legacy"
)

// SourceItem is a planned item as seen by execution. Linked is the entry
// pre-registered for it by the same plan, or nil for legacy items.
type SourceItem struct {
	PlannedItem
	Linked *SparePart
}

// ItemSource is the resolved item list of a request. It is either
// LinkedCatalogItems or EmbeddedLegacyItems.
type ItemSource interface {
	Origin() ItemOrigin
	Items() []SourceItem
	itemSource()
}

// LinkedCatalogItems are the pending entries pre-registered by the plan.
type LinkedCatalogItems struct {
	Parts []SparePart
}

func (LinkedCatalogItems) Origin() ItemOrigin { return OriginLinkedCatalog }
func (LinkedCatalogItems) itemSource()        {}

// Items converts each pending entry back into the item it was planned from.
func (s LinkedCatalogItems) Items() []SourceItem {
	out := make([]SourceItem, len(s.Parts))
	for i := range s.Parts {
		part := s.Parts[i]
		out[i] = SourceItem{
			PlannedItem: PlannedItem{
				Name:        part.Name,
				Description: part.Description,
				Quantity:    part.PlannedQuantity,
				UnitPrice:   part.UnitPrice,
				PartCode:    part.PartNumber,
				Category:    part.Category,
				Kind:        part.Kind,
			},
			Linked: &part,
		}
	}
	return out
}

// EmbeddedLegacyItems is the item list stored on the request itself.
type EmbeddedLegacyItems struct {
	Planned []PlannedItem
}

func (EmbeddedLegacyItems) Origin() ItemOrigin { return OriginEmbedded }
func (EmbeddedLegacyItems) itemSource()        {}

func (s EmbeddedLegacyItems) Items() []SourceItem {
	out := make([]SourceItem, len(s.Planned))
	for i, item := range s.Planned {
		out[i] = SourceItem{PlannedItem: item}
	}
	return out
}

// ResolveItemSource picks the item list for execution. Pending entries linked
// to the request win over the embedded list; ErrNoItemsToDecompose is
// returned when both are empty.
func ResolveItemSource(linked []SparePart, legacy []PlannedItem) (ItemSource, error) {
	pending := make([]SparePart, 0, len(linked))
	for _, part := range linked {
		if part.Status == PartPending {
			pending = append(pending, part)
		}
	}

	switch {
	case len(pending) > 0:
		return LinkedCatalogItems{Parts: pending}, nil
	case len(legacy) > 0:
		items, err := NormalizeItems(legacy)
		if err != nil {
			return nil, err
		}
		return EmbeddedLegacyItems{Planned: items}, nil
	}
	return nil, ErrNoItemsToDecompose
}
