// Package summary holds the read-only aggregation helpers behind the period
// summary views: sorting, grouping by group type or tag, per-person totals
// and the block-collapsed objective list.
package summary

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/resplan/internal/domain/plan"
)

// newCollator returns a locale-aware string comparator. Collators carry
// scratch buffers, so each call site gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.Loose)
}

// SortObjectives returns objs ordered by descending resources allocated,
// ties broken by name. The input is not modified.
func SortObjectives(objs []*plan.Objective) []*plan.Objective {
	c := newCollator()
	out := slices.Clone(objs)
	slices.SortStableFunc(out, func(a, b *plan.Objective) int {
		if n := cmp.Compare(b.ResourcesAllocated(), a.ResourcesAllocated()); n != 0 {
			return n
		}
		return c.CompareString(a.Name(), b.Name())
	})
	return out
}

// sortNames orders names in place with the same collation as SortObjectives.
func sortNames(names []string) {
	c := newCollator()
	slices.SortStableFunc(names, c.CompareString)
}
