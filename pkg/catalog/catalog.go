// Package catalog resolves rooms and products from the configured
// registries and prices offer line items. All pricing is deterministic:
// the same selections always produce the same rows and totals.
package catalog

import (
	"sort"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Currency is the venue currency used across offers and deposits.
const Currency = "CHF"

// Catalog answers room and product questions for offer composition.
type Catalog struct {
	rooms    *config.RoomRegistry
	products *config.ProductRegistry
}

// New creates a Catalog over the configured registries.
func New(rooms *config.RoomRegistry, products *config.ProductRegistry) *Catalog {
	if rooms == nil {
		panic("catalog: room registry is required")
	}
	if products == nil {
		panic("catalog: product registry is required")
	}
	return &Catalog{rooms: rooms, products: products}
}

// Room returns the room with the given name, case-insensitively.
func (c *Catalog) Room(name string) (*config.RoomConfig, error) {
	return c.rooms.Get(name)
}

// Rooms lists all configured rooms sorted by name.
func (c *Catalog) Rooms() []*config.RoomConfig {
	return c.rooms.GetAll()
}

// ResolveProduct maps a free-text mention to a configured product.
func (c *Catalog) ResolveProduct(mention string) (*config.ProductConfig, error) {
	return c.products.Resolve(mention)
}

// Products lists all configured products.
func (c *Catalog) Products() []*config.ProductConfig {
	return c.products.GetAll()
}

// RoomsFor returns the rooms that satisfy the requirements, cheapest
// first. A stated room preference is not applied here; the room step
// decides how hard a preference binds.
func (c *Catalog) RoomsFor(req models.Requirements) []*config.RoomConfig {
	participants := 0
	if req.NumberOfParticipants != nil {
		participants = *req.NumberOfParticipants
	}
	var fits []*config.RoomConfig
	for _, room := range c.rooms.GetAll() {
		if !room.FitsParticipants(participants) {
			continue
		}
		if !room.SupportsLayout(req.SeatingLayout) {
			continue
		}
		fits = append(fits, room)
	}
	sort.Slice(fits, func(i, j int) bool {
		if fits[i].DayPrice != fits[j].DayPrice {
			return fits[i].DayPrice < fits[j].DayPrice
		}
		return fits[i].Name < fits[j].Name
	})
	return fits
}

// RoomLineItem prices the room rental row.
func RoomLineItem(room *config.RoomConfig) models.LineItem {
	return models.LineItem{
		Description: "Room rental: " + room.Name,
		Quantity:    1,
		UnitPrice:   room.DayPrice,
		Unit:        models.UnitPerEvent,
		Total:       room.DayPrice,
	}
}

// ProductLineItem prices one product row. Per-person products scale by
// the participant count; a missing count prices a single unit.
func ProductLineItem(p *config.ProductConfig, participants int) models.LineItem {
	qty := 1
	if p.Unit == models.UnitPerPerson && participants > 0 {
		qty = participants
	}
	return models.LineItem{
		Description: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
		Unit:        p.Unit,
		Total:       p.Price * float64(qty),
	}
}

// ComposeLineItems builds offer rows: the room first, then resolved
// products in a stable order. Unresolvable mentions come back separately
// so the caller can ask the client about them instead of guessing.
func (c *Catalog) ComposeLineItems(room *config.RoomConfig, participants int, productMentions []string) ([]models.LineItem, []string) {
	items := []models.LineItem{RoomLineItem(room)}

	var resolved []*config.ProductConfig
	var unresolved []string
	seen := make(map[string]bool)
	for _, mention := range productMentions {
		p, err := c.ResolveProduct(mention)
		if err != nil {
			unresolved = append(unresolved, mention)
			continue
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		resolved = append(resolved, p)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return strings.ToLower(resolved[i].Name) < strings.ToLower(resolved[j].Name)
	})
	for _, p := range resolved {
		items = append(items, ProductLineItem(p, participants))
	}
	return items, unresolved
}

// Total sums line-item totals.
func Total(items []models.LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Total
	}
	return sum
}
