package plan

import (
	"slices"

	"github.com/google/uuid"

	"github.com/okian/resplan/internal/domain/model"
)

// percentScale converts allocation percentages to fractions.
const percentScale = 100

// Bucket is an immutable allocation pool. Objective order is priority order,
// index 0 highest.
type Bucket struct {
	key                  uuid.UUID
	displayName          string
	allocationType       model.AllocationType
	allocationPercentage float64
	allocationAbsolute   float64
	objectives           []*Objective
}

// NewBucket builds an empty bucket with a fresh key.
func NewBucket(displayName string, allocationType model.AllocationType, percentage, absolute float64) *Bucket {
	return &Bucket{
		key:                  uuid.New(),
		displayName:          displayName,
		allocationType:       allocationType,
		allocationPercentage: percentage,
		allocationAbsolute:   absolute,
	}
}

// FromBucket deep-converts a wire bucket.
func FromBucket(b model.Bucket) *Bucket {
	bucket := NewBucket(b.DisplayName, b.AllocationType, b.AllocationPercentage, b.AllocationAbsolute)
	bucket.objectives = mapSlice(b.Objectives, FromObjective)
	return bucket
}

// ToOriginal deep-converts back to the wire form.
func (b *Bucket) ToOriginal() model.Bucket {
	return model.Bucket{
		DisplayName:          b.displayName,
		AllocationType:       b.allocationType,
		AllocationPercentage: b.allocationPercentage,
		AllocationAbsolute:   b.allocationAbsolute,
		Objectives:           mapSlice(b.objectives, (*Objective).ToOriginal),
	}
}

func (b *Bucket) Key() uuid.UUID                       { return b.key }
func (b *Bucket) DisplayName() string                  { return b.displayName }
func (b *Bucket) AllocationType() model.AllocationType { return b.allocationType }
func (b *Bucket) AllocationPercentage() float64        { return b.allocationPercentage }
func (b *Bucket) AllocationAbsolute() float64          { return b.allocationAbsolute }

// Objectives returns the objectives in priority order. The slice is a copy.
func (b *Bucket) Objectives() []*Objective { return cloneOrNil(b.objectives) }

// NumObjectives returns the number of objectives.
func (b *Bucket) NumObjectives() int { return len(b.objectives) }

// Allocation resolves the bucket's share of globalAvailable to an absolute
// quantity.
func (b *Bucket) Allocation(globalAvailable float64) float64 {
	if b.allocationType == model.AllocationTypeAbsolute {
		return b.allocationAbsolute
	}
	return globalAvailable * b.allocationPercentage / percentScale
}

// ResourcesAllocated is the sum of resources allocated to the bucket's objectives.
func (b *Bucket) ResourcesAllocated() float64 {
	return TotalResourcesAllocated(b.objectives)
}

// CommittedResourcesAllocated sums allocations of committed objectives only.
func (b *Bucket) CommittedResourcesAllocated() float64 {
	var sum float64
	for _, o := range b.objectives {
		if o.IsCommitted() {
			sum += o.ResourcesAllocated()
		}
	}
	return sum
}

// ResourcesEstimated is the sum of the objectives' estimates.
func (b *Bucket) ResourcesEstimated() float64 {
	var sum float64
	for _, o := range b.objectives {
		sum += o.resourceEstimate
	}
	return sum
}

// IndexOf returns the index of the objective with obj's key, or -1.
func (b *Bucket) IndexOf(obj *Objective) int {
	if obj == nil {
		return -1
	}
	return b.indexOfKey(obj.key)
}

func (b *Bucket) indexOfKey(key uuid.UUID) int {
	for i, o := range b.objectives {
		if o.key == key {
			return i
		}
	}
	return -1
}

// Objective returns the objective with the given key.
func (b *Bucket) Objective(key uuid.UUID) (*Objective, bool) {
	if i := b.indexOfKey(key); i >= 0 {
		return b.objectives[i], true
	}
	return nil, false
}

func (b *Bucket) clone() *Bucket {
	c := *b
	return &c
}

func (b *Bucket) WithDisplayName(displayName string) *Bucket {
	c := b.clone()
	c.displayName = displayName
	return c
}

func (b *Bucket) WithAllocationType(allocationType model.AllocationType) *Bucket {
	c := b.clone()
	c.allocationType = allocationType
	return c
}

func (b *Bucket) WithAllocationPercentage(percentage float64) *Bucket {
	c := b.clone()
	c.allocationPercentage = percentage
	return c
}

func (b *Bucket) WithAllocationAbsolute(absolute float64) *Bucket {
	c := b.clone()
	c.allocationAbsolute = absolute
	return c
}

// WithNewObjectives replaces the whole objective list.
func (b *Bucket) WithNewObjectives(objectives []*Objective) *Bucket {
	c := b.clone()
	c.objectives = cloneOrNil(objectives)
	return c
}

// WithNewObjectiveAtTop inserts obj at the highest priority.
func (b *Bucket) WithNewObjectiveAtTop(obj *Objective) *Bucket {
	objectives := make([]*Objective, 0, len(b.objectives)+1)
	objectives = append(objectives, obj)
	objectives = append(objectives, b.objectives...)
	c := b.clone()
	c.objectives = objectives
	return c
}

// WithNewObjectiveAtBottom appends obj at the lowest priority.
func (b *Bucket) WithNewObjectiveAtBottom(obj *Objective) *Bucket {
	objectives := make([]*Objective, 0, len(b.objectives)+1)
	objectives = append(objectives, b.objectives...)
	objectives = append(objectives, obj)
	c := b.clone()
	c.objectives = objectives
	return c
}

// WithObjectiveDeleted removes the first objective with obj's key.
// The receiver is returned when it is not present.
func (b *Bucket) WithObjectiveDeleted(obj *Objective) *Bucket {
	i := b.IndexOf(obj)
	if i < 0 {
		return b
	}
	objectives := make([]*Objective, 0, len(b.objectives)-1)
	objectives = append(objectives, b.objectives[:i]...)
	objectives = append(objectives, b.objectives[i+1:]...)
	c := b.clone()
	c.objectives = objectives
	return c
}

// WithObjectiveChanged replaces the first objective with old's key by
// replacement, at the same index. The receiver is returned when old is not
// present.
func (b *Bucket) WithObjectiveChanged(old, replacement *Objective) *Bucket {
	i := b.IndexOf(old)
	if i < 0 {
		return b
	}
	objectives := cloneOrNil(b.objectives)
	objectives[i] = replacement
	c := b.clone()
	c.objectives = objectives
	return c
}

// WithObjectiveMovedTo moves obj to index, shifting the others. Out of range
// indexes are clamped. The receiver is returned when obj is not present or
// already at index.
func (b *Bucket) WithObjectiveMovedTo(obj *Objective, index int) *Bucket {
	from := b.IndexOf(obj)
	if from < 0 {
		return b
	}
	last := len(b.objectives) - 1
	index = max(0, min(index, last))
	if index == from {
		return b
	}
	moving := b.objectives[from]
	objectives := make([]*Objective, 0, len(b.objectives))
	objectives = append(objectives, b.objectives[:from]...)
	objectives = append(objectives, b.objectives[from+1:]...)
	objectives = slices.Insert(objectives, index, moving)
	c := b.clone()
	c.objectives = objectives
	return c
}

// mapObjectives applies f to every objective and returns the receiver when
// f changed nothing.
func (b *Bucket) mapObjectives(f func(*Objective) *Objective) *Bucket {
	var objectives []*Objective
	for i, o := range b.objectives {
		n := f(o)
		if n == o {
			continue
		}
		if objectives == nil {
			objectives = cloneOrNil(b.objectives)
		}
		objectives[i] = n
	}
	if objectives == nil {
		return b
	}
	c := b.clone()
	c.objectives = objectives
	return c
}

// WithPersonDeleted removes the person's assignments from every objective.
func (b *Bucket) WithPersonDeleted(personID string) *Bucket {
	return b.mapObjectives(func(o *Objective) *Objective { return o.WithPersonDeleted(personID) })
}

// WithGroupRenamed renames a group in every objective.
func (b *Bucket) WithGroupRenamed(groupType, oldName, newName string) *Bucket {
	return b.mapObjectives(func(o *Objective) *Objective { return o.WithGroupRenamed(groupType, oldName, newName) })
}

// WithTagRenamed renames a tag in every objective.
func (b *Bucket) WithTagRenamed(oldName, newName string) *Bucket {
	return b.mapObjectives(func(o *Objective) *Objective { return o.WithTagRenamed(oldName, newName) })
}

// PercentageAllocationTotal sums the percentages of percentage-type buckets.
func PercentageAllocationTotal(buckets []*Bucket) float64 {
	var sum float64
	for _, b := range buckets {
		if b.allocationType == model.AllocationTypePercentage {
			sum += b.allocationPercentage
		}
	}
	return sum
}

// OverAllocated reports whether percentage allocations exceed 100%.
// This is advisory only; nothing enforces it.
func OverAllocated(buckets []*Bucket) bool {
	return PercentageAllocationTotal(buckets) > percentScale
}
