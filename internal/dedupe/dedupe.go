// Package dedupe removes duplicate products from the store catalog.
//
// Products are grouped by normalized title. Within each group the most
// recently created product is kept and every other copy is deleted.
package dedupe

import (
	"sort"
	"strings"

	"shopkeeper/internal/models"
)

// Normalize returns the grouping key for a product title: surrounding
// whitespace removed, lower-cased. Interior whitespace is untouched.
func Normalize(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// DuplicateGroup is a set of products sharing a normalized title. Products
// are ordered ascending by creation time.
type DuplicateGroup struct {
	Key      string
	Products []models.Product
}

// Keeper returns the most recently created product of the group.
func (g *DuplicateGroup) Keeper() models.Product {
	return g.Products[len(g.Products)-1]
}

// Candidates returns every product of the group except the keeper, in
// deletion order.
func (g *DuplicateGroup) Candidates() []models.Product {
	return g.Products[:len(g.Products)-1]
}

// FindDuplicates partitions products by normalized title and returns the
// groups with more than one member, each sorted ascending by createdAt.
// The sort is stable, so products with identical timestamps keep their
// listing order and the later listing entry is kept. Titles that appear
// only once never produce a group. Group order follows the first
// appearance of each title in the listing.
func FindDuplicates(products []models.Product) []DuplicateGroup {
	byKey := make(map[string][]models.Product)

	var order []string

	for _, p := range products {
		key := Normalize(p.Title)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}

		byKey[key] = append(byKey[key], p)
	}

	var groups []DuplicateGroup

	for _, key := range order {
		members := byKey[key]
		if len(members) < 2 {
			continue
		}

		sort.SliceStable(members, func(i, j int) bool {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		})

		groups = append(groups, DuplicateGroup{Key: key, Products: members})
	}

	return groups
}
