// Package catalog holds the read-only item catalog that missions draw
// rewards from and that feeds the narrative prompt. The catalog is loaded
// once at startup and passed explicitly to consumers; nothing in this
// package keeps global mutable state.
package catalog

import "sort"

// Item is a single catalog entry.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Rarity      Rarity `json:"rarity"`
	Description string `json:"description"`
	Price       int    `json:"price"`
}

// Catalog is an immutable collection of items with lookup indexes.
type Catalog struct {
	items      []Item
	byID       map[string]Item
	categories []string
}

// New builds a Catalog from a slice of items. Category order follows first
// appearance; item order within a category is preserved.
func New(items []Item) *Catalog {
	c := &Catalog{
		items: make([]Item, len(items)),
		byID:  make(map[string]Item, len(items)),
	}
	copy(c.items, items)

	seen := make(map[string]bool)
	for _, it := range c.items {
		c.byID[it.ID] = it
		if !seen[it.Category] {
			seen[it.Category] = true
			c.categories = append(c.categories, it.Category)
		}
	}
	return c
}

// Get returns the item with the given ID.
func (c *Catalog) Get(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of all items.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Categories returns the category names in catalog order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// ByCategory returns the items in the given category, in catalog order.
func (c *Catalog) ByCategory(category string) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Excerpt returns up to perCategory items from each category, used to keep
// the narrative prompt short.
func (c *Catalog) Excerpt(perCategory int) []Item {
	var out []Item
	for _, cat := range c.categories {
		items := c.ByCategory(cat)
		if len(items) > perCategory {
			items = items[:perCategory]
		}
		out = append(out, items...)
	}
	return out
}

// WithRarities returns the items whose rarity is in the allowed set,
// sorted by ID for deterministic ordering.
func (c *Catalog) WithRarities(allowed []Rarity) []Item {
	set := make(map[Rarity]bool, len(allowed))
	for _, r := range allowed {
		set[r] = true
	}
	var out []Item
	for _, it := range c.items {
		if set[it.Rarity] {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
