package plan

import (
	"github.com/google/uuid"

	"github.com/okian/resplan/internal/domain/model"
)

// Class is the summary classification of an objective's allocation state.
type Class int

const (
	// ClassRejected objectives have no resources allocated.
	ClassRejected Class = iota
	// ClassPartiallyAllocated objectives have less than their estimate.
	ClassPartiallyAllocated
	// ClassFullyAllocated objectives have at least their estimate.
	ClassFullyAllocated
	// ClassCommitted objectives are committed and have some allocation.
	ClassCommitted
)

func (c Class) String() string {
	switch c {
	case ClassRejected:
		return "rejected"
	case ClassPartiallyAllocated:
		return "partially-allocated"
	case ClassFullyAllocated:
		return "fully-allocated"
	case ClassCommitted:
		return "committed"
	}
	return "unknown"
}

// Objective is an immutable unit of work.
type Objective struct {
	key              uuid.UUID
	name             string
	resourceEstimate float64
	commitmentType   model.CommitmentType
	notes            string
	groups           []ObjectiveGroup
	tags             []ObjectiveTag
	assignments      []Assignment
	blockID          string
	displayOptions   *DisplayOptions
}

// NewObjective builds an empty objective with a fresh key.
// Negative estimates become zero.
func NewObjective(name string, resourceEstimate float64) *Objective {
	return &Objective{
		key:              uuid.New(),
		name:             name,
		resourceEstimate: clampNonNegative(resourceEstimate),
	}
}

// FromObjective deep-converts a wire objective.
func FromObjective(o model.Objective) *Objective {
	obj := NewObjective(o.Name, o.ResourceEstimate)
	obj.commitmentType = o.CommitmentType
	obj.notes = o.Notes
	obj.groups = mapSlice(o.Groups, FromObjectiveGroup)
	obj.tags = mapSlice(o.Tags, FromObjectiveTag)
	obj.assignments = mapSlice(o.Assignments, FromAssignment)
	obj.blockID = o.BlockID
	if o.DisplayOptions != nil {
		d := NewDisplayOptions(o.DisplayOptions.EnableMarkdown)
		obj.displayOptions = &d
	}
	return obj
}

// ToOriginal deep-converts back to the wire form.
func (o *Objective) ToOriginal() model.Objective {
	out := model.Objective{
		Name:             o.name,
		ResourceEstimate: o.resourceEstimate,
		CommitmentType:   o.commitmentType,
		Notes:            o.notes,
		Groups:           mapSlice(o.groups, ObjectiveGroup.ToOriginal),
		Tags:             mapSlice(o.tags, ObjectiveTag.ToOriginal),
		Assignments:      mapSlice(o.assignments, Assignment.ToOriginal),
		BlockID:          o.blockID,
	}
	if o.displayOptions != nil {
		d := o.displayOptions.ToOriginal()
		out.DisplayOptions = &d
	}
	return out
}

func (o *Objective) Key() uuid.UUID                       { return o.key }
func (o *Objective) Name() string                         { return o.name }
func (o *Objective) ResourceEstimate() float64            { return o.resourceEstimate }
func (o *Objective) CommitmentType() model.CommitmentType { return o.commitmentType }
func (o *Objective) Notes() string                        { return o.notes }
func (o *Objective) BlockID() string                      { return o.blockID }
func (o *Objective) Groups() []ObjectiveGroup             { return cloneOrNil(o.groups) }
func (o *Objective) Tags() []ObjectiveTag                 { return cloneOrNil(o.tags) }
func (o *Objective) Assignments() []Assignment            { return cloneOrNil(o.assignments) }

// DisplayOptions returns the display options and whether any are set.
func (o *Objective) DisplayOptions() (DisplayOptions, bool) {
	if o.displayOptions == nil {
		return DisplayOptions{}, false
	}
	return *o.displayOptions, true
}

// IsCommitted reports whether the objective is firmly committed. An unset
// commitment type counts as aspirational.
func (o *Objective) IsCommitted() bool {
	return o.commitmentType == model.CommitmentTypeCommitted
}

// ResourcesAllocated is the sum of assignment commitments.
func (o *Objective) ResourcesAllocated() float64 {
	var sum float64
	for _, a := range o.assignments {
		sum += a.commitment
	}
	return sum
}

// Classify returns the summary classification. Committed objectives with any
// allocation are ClassCommitted regardless of how full they are.
func (o *Objective) Classify() Class {
	allocated := o.ResourcesAllocated()
	switch {
	case o.IsCommitted() && allocated > 0:
		return ClassCommitted
	case allocated <= 0:
		return ClassRejected
	case allocated < o.resourceEstimate:
		return ClassPartiallyAllocated
	default:
		return ClassFullyAllocated
	}
}

// GroupName returns the name of the first group of the given type.
func (o *Objective) GroupName(groupType string) (string, bool) {
	for _, g := range o.groups {
		if g.groupType == groupType {
			return g.groupName, true
		}
	}
	return "", false
}

// HasTag reports whether any tag has the given name.
func (o *Objective) HasTag(name string) bool {
	for _, t := range o.tags {
		if t.name == name {
			return true
		}
	}
	return false
}

// AssignmentFor returns the first assignment of the given person.
func (o *Objective) AssignmentFor(personID string) (Assignment, bool) {
	for _, a := range o.assignments {
		if a.personID == personID {
			return a, true
		}
	}
	return Assignment{}, false
}

func (o *Objective) clone() *Objective {
	c := *o
	return &c
}

func (o *Objective) WithName(name string) *Objective {
	c := o.clone()
	c.name = name
	return c
}

// WithResourceEstimate replaces the estimate; negative values become zero.
func (o *Objective) WithResourceEstimate(estimate float64) *Objective {
	c := o.clone()
	c.resourceEstimate = clampNonNegative(estimate)
	return c
}

func (o *Objective) WithCommitmentType(ct model.CommitmentType) *Objective {
	c := o.clone()
	c.commitmentType = ct
	return c
}

func (o *Objective) WithNotes(notes string) *Objective {
	c := o.clone()
	c.notes = notes
	return c
}

func (o *Objective) WithBlockID(blockID string) *Objective {
	c := o.clone()
	c.blockID = blockID
	return c
}

// WithDisplayOptions sets display options; nil clears them.
func (o *Objective) WithDisplayOptions(d *DisplayOptions) *Objective {
	c := o.clone()
	if d == nil {
		c.displayOptions = nil
	} else {
		v := *d
		c.displayOptions = &v
	}
	return c
}

// WithGroups replaces the whole group list.
func (o *Objective) WithGroups(groups []ObjectiveGroup) *Objective {
	c := o.clone()
	c.groups = cloneOrNil(groups)
	return c
}

// WithTags replaces the whole tag list.
func (o *Objective) WithTags(tags []ObjectiveTag) *Objective {
	c := o.clone()
	c.tags = cloneOrNil(tags)
	return c
}

// WithAssignments replaces the whole assignment list.
func (o *Objective) WithAssignments(assignments []Assignment) *Objective {
	c := o.clone()
	c.assignments = cloneOrNil(assignments)
	return c
}

// WithPersonDeleted drops every assignment of the given person.
// The receiver is returned when the person has no assignment here.
func (o *Objective) WithPersonDeleted(personID string) *Objective {
	kept := make([]Assignment, 0, len(o.assignments))
	for _, a := range o.assignments {
		if a.personID != personID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(o.assignments) {
		return o
	}
	c := o.clone()
	c.assignments = kept
	return c
}

// WithGroupRenamed renames every {groupType, oldName} group to newName.
// The receiver is returned when no group matches.
func (o *Objective) WithGroupRenamed(groupType, oldName, newName string) *Objective {
	var groups []ObjectiveGroup
	for i, g := range o.groups {
		if g.groupType != groupType || g.groupName != oldName {
			continue
		}
		if groups == nil {
			groups = cloneOrNil(o.groups)
		}
		groups[i] = NewObjectiveGroup(groupType, newName)
	}
	if groups == nil {
		return o
	}
	c := o.clone()
	c.groups = groups
	return c
}

// WithTagRenamed renames every tag called oldName to newName.
// The receiver is returned when no tag matches.
func (o *Objective) WithTagRenamed(oldName, newName string) *Objective {
	var tags []ObjectiveTag
	for i, t := range o.tags {
		if t.name != oldName {
			continue
		}
		if tags == nil {
			tags = cloneOrNil(o.tags)
		}
		tags[i] = NewObjectiveTag(newName)
	}
	if tags == nil {
		return o
	}
	c := o.clone()
	c.tags = tags
	return c
}

// TotalResourcesAllocated sums ResourcesAllocated over objectives.
func TotalResourcesAllocated(objectives []*Objective) float64 {
	var sum float64
	for _, o := range objectives {
		sum += o.ResourcesAllocated()
	}
	return sum
}
