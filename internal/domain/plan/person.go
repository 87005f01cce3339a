package plan

import (
	"github.com/google/uuid"

	"github.com/okian/resplan/internal/domain/model"
)

// Person is an immutable roster entry. The id is fixed once the person exists;
// Key identifies this roster entry across edits.
type Person struct {
	key          uuid.UUID
	id           string
	displayName  string
	availability float64
}

// NewPerson builds a person with a fresh key.
func NewPerson(id, displayName string, availability float64) *Person {
	return &Person{key: uuid.New(), id: id, displayName: displayName, availability: availability}
}

// FromPerson wraps a wire person.
func FromPerson(p model.Person) *Person {
	return NewPerson(p.ID, p.DisplayName, p.Availability)
}

func (p *Person) Key() uuid.UUID        { return p.key }
func (p *Person) ID() string            { return p.id }
func (p *Person) DisplayName() string   { return p.displayName }
func (p *Person) Availability() float64 { return p.availability }

// DisplayNameWithUsername renders "Name (id)", or just the id when the name
// is empty or identical to it.
func (p *Person) DisplayNameWithUsername() string {
	if p.displayName == "" || p.displayName == p.id {
		return p.id
	}
	return p.displayName + " (" + p.id + ")"
}

// WithDisplayName returns a copy with the display name replaced.
func (p *Person) WithDisplayName(displayName string) *Person {
	c := *p
	c.displayName = displayName
	return &c
}

// WithAvailability returns a copy with the availability replaced.
func (p *Person) WithAvailability(availability float64) *Person {
	c := *p
	c.availability = availability
	return &c
}

// ToOriginal returns the wire form.
func (p *Person) ToOriginal() model.Person {
	return model.Person{ID: p.id, DisplayName: p.displayName, Availability: p.availability}
}
