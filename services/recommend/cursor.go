package recommend

import "styleSphere/models"

// Cursor selects one combo of a recommendation set.
type Cursor struct {
	index int
}

func (c *Cursor) Index() int {
	return c.index
}

// Next moves forward, wrapping to the first of n combos.
func (c *Cursor) Next(n int) {
	if n <= 0 {
		c.index = 0
		return
	}
	c.index = (c.index + 1) % n
}

// Prev moves back, wrapping to the last of n combos.
func (c *Cursor) Prev(n int) {
	if n <= 0 {
		c.index = 0
		return
	}
	c.index = (c.index - 1 + n) % n
}

// Clamp returns to the first combo when the index is past the last of n.
func (c *Cursor) Clamp(n int) {
	if c.index >= n || c.index < 0 {
		c.index = 0
	}
}

// Outfit returns the selected combo by category. Every category is empty
// when there are no combos.
func (c *Cursor) Outfit(combos []models.Combo) map[models.Category]*models.ItemSnapshot {
	outfit := make(map[models.Category]*models.ItemSnapshot, len(models.RequiredCategories))
	for _, cat := range models.RequiredCategories {
		outfit[cat] = nil
	}
	if len(combos) == 0 {
		return outfit
	}
	cur := *c
	cur.Clamp(len(combos))
	combo := combos[cur.index]
	for _, cat := range models.RequiredCategories {
		if item, ok := combo.Item(cat); ok {
			outfit[cat] = &item
		}
	}
	return outfit
}
