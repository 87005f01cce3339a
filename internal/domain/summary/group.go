package summary

import (
	"cmp"
	"slices"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/internal/domain/plan"
)

// GroupOrder selects how GroupByGroupType orders its groups.
type GroupOrder int

const (
	// OrderFirstAppearance keeps groups in the order their first objective
	// appears. Used for the per-bucket view.
	OrderFirstAppearance GroupOrder = iota
	// OrderByAllocation sorts groups by descending total allocation, ties by
	// name. Used for the whole-period view.
	OrderByAllocation
)

// Group is a named set of objectives.
type Group struct {
	Name       string
	Objectives []*plan.Objective
}

// ResourcesAllocated sums the allocations of the group's objectives.
func (g Group) ResourcesAllocated() float64 {
	return plan.TotalResourcesAllocated(g.Objectives)
}

// UngroupedName is the display name of the objectives lacking a group of
// the given type.
func UngroupedName(groupType string) string {
	return "No " + groupType
}

// GroupByGroupType partitions objs by the first group of groupType each one
// carries. Objectives without such a group are returned separately under
// UngroupedName.
func GroupByGroupType(objs []*plan.Objective, groupType string, order GroupOrder) ([]Group, Group) {
	ungrouped := Group{Name: UngroupedName(groupType)}
	var groups []Group
	index := make(map[string]int)
	for _, o := range objs {
		name, ok := o.GroupName(groupType)
		if !ok {
			ungrouped.Objectives = append(ungrouped.Objectives, o)
			continue
		}
		i, seen := index[name]
		if !seen {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Objectives = append(groups[i].Objectives, o)
	}

	if order == OrderByAllocation {
		c := newCollator()
		slices.SortStableFunc(groups, func(a, b Group) int {
			if n := cmp.Compare(b.ResourcesAllocated(), a.ResourcesAllocated()); n != 0 {
				return n
			}
			return c.CompareString(a.Name, b.Name)
		})
	}
	return groups, ungrouped
}

// GroupByTag partitions objs by tag, ordered by tag name. An objective with
// several tags appears in each of their groups, once per group.
func GroupByTag(objs []*plan.Objective) []Group {
	byTag := make(map[string][]*plan.Objective)
	var names []string
	for _, o := range objs {
		seen := make(map[string]bool)
		for _, t := range o.Tags() {
			name := t.Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			if _, ok := byTag[name]; !ok {
				names = append(names, name)
			}
			byTag[name] = append(byTag[name], o)
		}
	}
	sortNames(names)
	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Objectives: byTag[name]})
	}
	return groups
}

// GroupSummaryObjective builds the synthetic row standing in for a whole
// group. It is committed only when every member is committed, and carries a
// single anonymous assignment holding the group's total allocation.
func GroupSummaryObjective(groupType, groupName string, objs []*plan.Objective) *plan.Objective {
	ct := model.CommitmentTypeAspirational
	if len(objs) > 0 && allCommitted(objs) {
		ct = model.CommitmentTypeCommitted
	}
	var estimate float64
	for _, o := range objs {
		estimate += o.ResourceEstimate()
	}
	return plan.NewObjective(groupName, estimate).
		WithCommitmentType(ct).
		WithNotes("Dummy objective representing " + groupType + " " + groupName).
		WithGroups([]plan.ObjectiveGroup{}).
		WithTags([]plan.ObjectiveTag{}).
		WithAssignments([]plan.Assignment{plan.NewAssignment("", plan.TotalResourcesAllocated(objs))})
}

func allCommitted(objs []*plan.Objective) bool {
	for _, o := range objs {
		if !o.IsCommitted() {
			return false
		}
	}
	return true
}

// AllObjectives flattens the period's buckets in priority order.
func AllObjectives(p *plan.Period) []*plan.Objective {
	var out []*plan.Objective
	for _, b := range p.Buckets() {
		out = append(out, b.Objectives()...)
	}
	return out
}

// AllGroupTypes lists every group type used in the period, sorted.
func AllGroupTypes(p *plan.Period) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range AllObjectives(p) {
		for _, g := range o.Groups() {
			if _, ok := seen[g.GroupType()]; ok {
				continue
			}
			seen[g.GroupType()] = struct{}{}
			out = append(out, g.GroupType())
		}
	}
	sortNames(out)
	return out
}

// AllTags lists every tag used in the period, sorted.
func AllTags(p *plan.Period) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range AllObjectives(p) {
		for _, t := range o.Tags() {
			if _, ok := seen[t.Name()]; ok {
				continue
			}
			seen[t.Name()] = struct{}{}
			out = append(out, t.Name())
		}
	}
	sortNames(out)
	return out
}
