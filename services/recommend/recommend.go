// Package recommend derives up to three Tops/Bottoms/Footwear combinations
// from a user's closet and persists them when the closet content changes.
package recommend

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/fatih/structs"

	"styleSphere/models"
	"styleSphere/set"
)

// MaxCombos is the most combinations kept per recommendation set.
const MaxCombos = 3

// Fingerprint identifies the recommendation relevant content of a closet:
// the sorted ids of every item in a required category.
func Fingerprint(items []models.ClosetItem) string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Category.Valid() {
			ids = append(ids, item.ID)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, fingerprintSep)
}

// fingerprintSep never appears in a document id.
const fingerprintSep = "\x00"

// comboKey holds one item id per required category, in category order.
type comboKey [3]string

type itemKey struct {
	category models.Category
	id       string
}

// groupByCategory buckets items by required category, keeping the first item
// for any repeated id.
func groupByCategory(items []models.ClosetItem) map[models.Category][]models.ClosetItem {
	groups := map[models.Category][]models.ClosetItem{}
	ids := set.New[itemKey]()
	for _, item := range items {
		if !item.Category.Valid() || !ids.Add(itemKey{item.Category, item.ID}) {
			continue
		}
		groups[item.Category] = append(groups[item.Category], item)
	}
	return groups
}

// Generate draws distinct combinations at random until it has MaxCombos or
// has seen every possible combination. It returns nil if any required
// category is empty.
func Generate(items []models.ClosetItem, rng *rand.Rand) []models.Combo {
	groups := groupByCategory(items)
	total := 1
	for _, c := range models.RequiredCategories {
		if len(groups[c]) == 0 {
			return nil
		}
		total *= len(groups[c])
	}

	seen := set.New[comboKey]()
	combos := make([]models.Combo, 0, MaxCombos)
	for len(combos) < MaxCombos && seen.Size() < total {
		combo := models.Combo{Items: make([]models.ItemSnapshot, 0, len(models.RequiredCategories))}
		var key comboKey
		for i, c := range models.RequiredCategories {
			pick := groups[c][rng.Intn(len(groups[c]))]
			combo.Items = append(combo.Items, pick.Snapshot())
			key[i] = pick.ID
		}
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		combos = append(combos, combo)
	}
	return combos
}

// combosField converts combos to plain maps so every backend stores the same
// field names.
func combosField(combos []models.Combo) []any {
	out := make([]any, 0, len(combos))
	for _, c := range combos {
		out = append(out, structs.Map(c))
	}
	return out
}
