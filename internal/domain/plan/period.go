package plan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/resplan/internal/domain/model"
)

// Period is the immutable root aggregate. Bucket order is allocation
// priority; person ids are unique.
type Period struct {
	id                     string
	displayName            string
	unit                   string
	secondaryUnits         []SecondaryUnit
	notesURL               string
	maxCommittedPercentage float64
	buckets                []*Bucket
	people                 []*Person
	lastUpdateUUID         string
}

// NewPeriod builds an empty period.
func NewPeriod(id, displayName, unit string) *Period {
	return &Period{id: id, displayName: displayName, unit: unit}
}

// FromPeriod deep-converts a wire period.
func FromPeriod(p model.Period) *Period {
	return &Period{
		id:                     p.ID,
		displayName:            p.DisplayName,
		unit:                   p.Unit,
		secondaryUnits:         mapSlice(p.SecondaryUnits, FromSecondaryUnit),
		notesURL:               p.NotesURL,
		maxCommittedPercentage: p.MaxCommittedPercentage,
		buckets:                mapSlice(p.Buckets, FromBucket),
		people:                 mapSlice(p.People, FromPerson),
		lastUpdateUUID:         p.LastUpdateUUID,
	}
}

// ToOriginal deep-converts back to the wire form. The result shares no
// memory with the receiver.
func (p *Period) ToOriginal() model.Period {
	return model.Period{
		ID:                     p.id,
		DisplayName:            p.displayName,
		Unit:                   p.unit,
		SecondaryUnits:         mapSlice(p.secondaryUnits, SecondaryUnit.ToOriginal),
		NotesURL:               p.notesURL,
		MaxCommittedPercentage: p.maxCommittedPercentage,
		Buckets:                mapSlice(p.buckets, (*Bucket).ToOriginal),
		People:                 mapSlice(p.people, (*Person).ToOriginal),
		LastUpdateUUID:         p.lastUpdateUUID,
	}
}

func (p *Period) ID() string                      { return p.id }
func (p *Period) DisplayName() string             { return p.displayName }
func (p *Period) Unit() string                    { return p.unit }
func (p *Period) NotesURL() string                { return p.notesURL }
func (p *Period) MaxCommittedPercentage() float64 { return p.maxCommittedPercentage }
func (p *Period) LastUpdateUUID() string          { return p.lastUpdateUUID }
func (p *Period) SecondaryUnits() []SecondaryUnit { return cloneOrNil(p.secondaryUnits) }
func (p *Period) Buckets() []*Bucket              { return cloneOrNil(p.buckets) }
func (p *Period) People() []*Person               { return cloneOrNil(p.people) }

// Person looks a person up by id.
func (p *Period) Person(id string) (*Person, bool) {
	for _, person := range p.people {
		if person.id == id {
			return person, true
		}
	}
	return nil, false
}

// IndexOfBucket returns the index of the bucket with b's key, or -1.
func (p *Period) IndexOfBucket(b *Bucket) int {
	if b == nil {
		return -1
	}
	for i, bucket := range p.buckets {
		if bucket.key == b.key {
			return i
		}
	}
	return -1
}

func (p *Period) indexOfPerson(person *Person) int {
	if person == nil {
		return -1
	}
	for i, candidate := range p.people {
		if candidate.key == person.key {
			return i
		}
	}
	return -1
}

// FindObjective locates an objective by key across all buckets.
func (p *Period) FindObjective(key uuid.UUID) (*Bucket, *Objective, bool) {
	for _, b := range p.buckets {
		if o, ok := b.Objective(key); ok {
			return b, o, true
		}
	}
	return nil, nil, false
}

// ResourcesAllocated is the total allocated to objectives across all buckets.
func (p *Period) ResourcesAllocated() float64 {
	var sum float64
	for _, b := range p.buckets {
		sum += b.ResourcesAllocated()
	}
	return sum
}

// CommittedResourcesAllocated is the total allocated to committed objectives.
func (p *Period) CommittedResourcesAllocated() float64 {
	var sum float64
	for _, b := range p.buckets {
		sum += b.CommittedResourcesAllocated()
	}
	return sum
}

// ResourcesAvailable is the sum of everyone's availability.
func (p *Period) ResourcesAvailable() float64 {
	var sum float64
	for _, person := range p.people {
		sum += person.availability
	}
	return sum
}

// BucketAllocationFraction is b's share of the period's allocated resources.
func (p *Period) BucketAllocationFraction(b *Bucket) float64 {
	total := p.ResourcesAllocated()
	if total == 0 {
		return 0
	}
	return b.ResourcesAllocated() / total
}

func (p *Period) clone() *Period {
	c := *p
	return &c
}

func (p *Period) withBuckets(buckets []*Bucket) *Period {
	c := p.clone()
	c.buckets = buckets
	return c
}

func (p *Period) withPeople(people []*Person) *Period {
	c := p.clone()
	c.people = people
	return c
}

func (p *Period) WithDisplayName(displayName string) *Period {
	c := p.clone()
	c.displayName = displayName
	return c
}

func (p *Period) WithUnit(unit string) *Period {
	c := p.clone()
	c.unit = unit
	return c
}

func (p *Period) WithNotesURL(notesURL string) *Period {
	c := p.clone()
	c.notesURL = notesURL
	return c
}

func (p *Period) WithMaxCommittedPercentage(pct float64) *Period {
	c := p.clone()
	c.maxCommittedPercentage = pct
	return c
}

func (p *Period) WithSecondaryUnits(units []SecondaryUnit) *Period {
	c := p.clone()
	c.secondaryUnits = cloneOrNil(units)
	return c
}

// WithNewLastUpdateUUID replaces the concurrency token.
func (p *Period) WithNewLastUpdateUUID(lastUpdateUUID string) *Period {
	c := p.clone()
	c.lastUpdateUUID = lastUpdateUUID
	return c
}

// WithNewBucket appends a bucket.
func (p *Period) WithNewBucket(b *Bucket) *Period {
	buckets := make([]*Bucket, 0, len(p.buckets)+1)
	buckets = append(buckets, p.buckets...)
	return p.withBuckets(append(buckets, b))
}

// WithBucketMovedUpOne swaps b with its predecessor. No-op for the first
// bucket or when b is absent.
func (p *Period) WithBucketMovedUpOne(b *Bucket) *Period {
	i := p.IndexOfBucket(b)
	if i <= 0 {
		return p
	}
	buckets := cloneOrNil(p.buckets)
	buckets[i-1], buckets[i] = buckets[i], buckets[i-1]
	return p.withBuckets(buckets)
}

// WithBucketMovedDownOne swaps b with its successor. No-op for the last
// bucket or when b is absent.
func (p *Period) WithBucketMovedDownOne(b *Bucket) *Period {
	i := p.IndexOfBucket(b)
	if i < 0 || i >= len(p.buckets)-1 {
		return p
	}
	buckets := cloneOrNil(p.buckets)
	buckets[i], buckets[i+1] = buckets[i+1], buckets[i]
	return p.withBuckets(buckets)
}

// WithBucketChanged replaces old by replacement at the same index.
// No-op when old is absent.
func (p *Period) WithBucketChanged(old, replacement *Bucket) *Period {
	i := p.IndexOfBucket(old)
	if i < 0 {
		return p
	}
	buckets := cloneOrNil(p.buckets)
	buckets[i] = replacement
	return p.withBuckets(buckets)
}

// WithBucketDeleted removes b. No-op when b is absent.
func (p *Period) WithBucketDeleted(b *Bucket) *Period {
	i := p.IndexOfBucket(b)
	if i < 0 {
		return p
	}
	buckets := make([]*Bucket, 0, len(p.buckets)-1)
	buckets = append(buckets, p.buckets[:i]...)
	buckets = append(buckets, p.buckets[i+1:]...)
	return p.withBuckets(buckets)
}

// WithObjectiveMoved removes obj from the from bucket and places edited in
// the to bucket. When from and to are the same bucket, edited replaces obj
// in place. Otherwise edited replaces any objective with its key already in
// to, or is appended at the bottom. No-op when either bucket or obj is absent.
func (p *Period) WithObjectiveMoved(obj *Objective, from *Bucket, edited *Objective, to *Bucket) *Period {
	fromIdx, toIdx := p.IndexOfBucket(from), p.IndexOfBucket(to)
	if fromIdx < 0 || toIdx < 0 || edited == nil {
		return p
	}
	source := p.buckets[fromIdx]
	if source.IndexOf(obj) < 0 {
		return p
	}
	buckets := cloneOrNil(p.buckets)
	if fromIdx == toIdx {
		buckets[fromIdx] = source.WithObjectiveChanged(obj, edited)
		return p.withBuckets(buckets)
	}
	buckets[fromIdx] = source.WithObjectiveDeleted(obj)
	target := buckets[toIdx]
	if target.IndexOf(edited) >= 0 {
		buckets[toIdx] = target.WithObjectiveChanged(edited, edited)
	} else {
		buckets[toIdx] = target.WithNewObjectiveAtBottom(edited)
	}
	return p.withBuckets(buckets)
}

// WithPersonChanged replaces old by replacement. The id cannot change:
// that needs a delete and an add so assignments are handled. No-op when old
// is absent.
func (p *Period) WithPersonChanged(old, replacement *Person) (*Period, error) {
	if old.id != replacement.id {
		return nil, fmt.Errorf("%w: %q to %q", ErrPersonIDChanged, old.id, replacement.id)
	}
	i := p.indexOfPerson(old)
	if i < 0 {
		return p, nil
	}
	people := cloneOrNil(p.people)
	people[i] = replacement
	return p.withPeople(people), nil
}

// WithNewPerson appends person. Fails when the id is already taken.
func (p *Period) WithNewPerson(person *Person) (*Period, error) {
	if _, exists := p.Person(person.id); exists {
		return nil, fmt.Errorf("%w: a person with id %q already exists", ErrDuplicatePerson, person.id)
	}
	people := make([]*Person, 0, len(p.people)+1)
	people = append(people, p.people...)
	return p.withPeople(append(people, person)), nil
}

// WithPersonDeleted removes person and every assignment referencing its id.
// No-op when person is absent.
func (p *Period) WithPersonDeleted(person *Person) *Period {
	i := p.indexOfPerson(person)
	if i < 0 {
		return p
	}
	people := make([]*Person, 0, len(p.people)-1)
	people = append(people, p.people[:i]...)
	people = append(people, p.people[i+1:]...)

	return p.withPeople(people).withMappedBuckets(func(b *Bucket) *Bucket {
		return b.WithPersonDeleted(person.id)
	})
}

// WithGroupRenamed renames {groupType, oldName} to newName across the tree.
func (p *Period) WithGroupRenamed(groupType, oldName, newName string) *Period {
	return p.withMappedBuckets(func(b *Bucket) *Bucket {
		return b.WithGroupRenamed(groupType, oldName, newName)
	})
}

// WithTagRenamed renames the tag oldName to newName across the tree.
func (p *Period) WithTagRenamed(oldName, newName string) *Period {
	return p.withMappedBuckets(func(b *Bucket) *Bucket {
		return b.WithTagRenamed(oldName, newName)
	})
}

// withMappedBuckets applies f to every bucket and returns the receiver when
// f changed nothing.
func (p *Period) withMappedBuckets(f func(*Bucket) *Bucket) *Period {
	var buckets []*Bucket
	for i, b := range p.buckets {
		n := f(b)
		if n == b {
			continue
		}
		if buckets == nil {
			buckets = cloneOrNil(p.buckets)
		}
		buckets[i] = n
	}
	if buckets == nil {
		return p
	}
	return p.withBuckets(buckets)
}
