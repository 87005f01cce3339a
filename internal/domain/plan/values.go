// Package plan is the immutable in-memory representation of a planning
// period. Every type here is read-only through its public surface: values are
// built with From*/New* factories, read through accessor methods, and changed
// only through With* methods that return a new instance. Unmodified subtrees
// are shared between the old and new instances.
//
// Buckets, objectives and people carry a Key minted when they are created,
// so two wrappers of the same wire value are never reflect.DeepEqual.
// Compare them through ToOriginal instead.
package plan

import (
	"slices"

	"github.com/okian/resplan/internal/domain/model"
)

// clampNonNegative coerces negative quantities to zero.
func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// mapSlice converts each element, preserving nil-ness so that
// ToOriginal(From(v)) reproduces v exactly.
func mapSlice[S, T any](in []S, f func(S) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

// Assignment is a commitment of one person's time to an objective.
type Assignment struct {
	personID   string
	commitment float64
}

// NewAssignment builds an assignment; negative commitments become zero.
func NewAssignment(personID string, commitment float64) Assignment {
	return Assignment{personID: personID, commitment: clampNonNegative(commitment)}
}

// FromAssignment wraps a wire assignment.
func FromAssignment(a model.Assignment) Assignment {
	return NewAssignment(a.PersonID, a.Commitment)
}

func (a Assignment) PersonID() string    { return a.personID }
func (a Assignment) Commitment() float64 { return a.commitment }

// ToOriginal returns the wire form.
func (a Assignment) ToOriginal() model.Assignment {
	return model.Assignment{PersonID: a.personID, Commitment: a.commitment}
}

// ObjectiveGroup is one classification of an objective, e.g. team=backend.
type ObjectiveGroup struct {
	groupType string
	groupName string
}

// NewObjectiveGroup builds a group.
func NewObjectiveGroup(groupType, groupName string) ObjectiveGroup {
	return ObjectiveGroup{groupType: groupType, groupName: groupName}
}

// FromObjectiveGroup wraps a wire group.
func FromObjectiveGroup(g model.ObjectiveGroup) ObjectiveGroup {
	return NewObjectiveGroup(g.GroupType, g.GroupName)
}

func (g ObjectiveGroup) GroupType() string { return g.groupType }
func (g ObjectiveGroup) GroupName() string { return g.groupName }

// ToOriginal returns the wire form.
func (g ObjectiveGroup) ToOriginal() model.ObjectiveGroup {
	return model.ObjectiveGroup{GroupType: g.groupType, GroupName: g.groupName}
}

// ObjectiveTag is a free-form label.
type ObjectiveTag struct {
	name string
}

// NewObjectiveTag builds a tag.
func NewObjectiveTag(name string) ObjectiveTag { return ObjectiveTag{name: name} }

// FromObjectiveTag wraps a wire tag.
func FromObjectiveTag(t model.ObjectiveTag) ObjectiveTag { return NewObjectiveTag(t.Name) }

func (t ObjectiveTag) Name() string { return t.name }

// ToOriginal returns the wire form.
func (t ObjectiveTag) ToOriginal() model.ObjectiveTag { return model.ObjectiveTag{Name: t.name} }

// SecondaryUnit is an alternate display unit.
type SecondaryUnit struct {
	name             string
	conversionFactor float64
}

// NewSecondaryUnit builds a secondary unit.
func NewSecondaryUnit(name string, conversionFactor float64) SecondaryUnit {
	return SecondaryUnit{name: name, conversionFactor: conversionFactor}
}

// FromSecondaryUnit wraps a wire secondary unit.
func FromSecondaryUnit(su model.SecondaryUnit) SecondaryUnit {
	return NewSecondaryUnit(su.Name, su.ConversionFactor)
}

func (su SecondaryUnit) Name() string              { return su.name }
func (su SecondaryUnit) ConversionFactor() float64 { return su.conversionFactor }

// Convert expresses a primary quantity in this unit.
func (su SecondaryUnit) Convert(quantity float64) float64 {
	return quantity * su.conversionFactor
}

// ToOriginal returns the wire form.
func (su SecondaryUnit) ToOriginal() model.SecondaryUnit {
	return model.SecondaryUnit{Name: su.name, ConversionFactor: su.conversionFactor}
}

// DisplayOptions holds per-objective rendering preferences.
type DisplayOptions struct {
	enableMarkdown bool
}

// NewDisplayOptions builds display options.
func NewDisplayOptions(enableMarkdown bool) DisplayOptions {
	return DisplayOptions{enableMarkdown: enableMarkdown}
}

func (d DisplayOptions) EnableMarkdown() bool { return d.enableMarkdown }

// ToOriginal returns the wire form.
func (d DisplayOptions) ToOriginal() model.DisplayOptions {
	return model.DisplayOptions{EnableMarkdown: d.enableMarkdown}
}

// SumAssignments merges assignment lists, summing commitments per person.
// People appear in the order they are first seen.
func SumAssignments(lists ...[]Assignment) []Assignment {
	var order []string
	totals := make(map[string]float64)
	for _, list := range lists {
		for _, a := range list {
			if _, ok := totals[a.personID]; !ok {
				order = append(order, a.personID)
			}
			totals[a.personID] += a.commitment
		}
	}
	out := make([]Assignment, 0, len(order))
	for _, id := range order {
		out = append(out, NewAssignment(id, totals[id]))
	}
	return out
}

func cloneOrNil[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return slices.Clone(in)
}
