package plan

import (
	"fmt"

	"github.com/okian/resplan/internal/domain/model"
)

// Validate reports every consistency problem in the period at once. A nil
// return means the period is well formed.
func (p *Period) Validate() error {
	var errs ValidationErrors

	if p.id == "" {
		errs = append(errs, ValidationError{Field: "id", Message: "is required"})
	}

	known := make(map[string]struct{}, len(p.people))
	for i, person := range p.people {
		field := fmt.Sprintf("people[%d]", i)
		if person.id == "" {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "is required"})
		}
		if _, dup := known[person.id]; dup {
			errs = append(errs, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate person id %q", person.id)})
		}
		known[person.id] = struct{}{}
		if person.availability < 0 {
			errs = append(errs, ValidationError{Field: field + ".availability", Message: "must not be negative"})
		}
	}

	for bi, b := range p.buckets {
		field := fmt.Sprintf("buckets[%d]", bi)
		if b.allocationType != "" && !b.allocationType.Valid() {
			errs = append(errs, ValidationError{Field: field + ".allocationType", Message: fmt.Sprintf("unknown value %q", b.allocationType)})
		}
		if b.allocationType == model.AllocationTypePercentage && b.allocationPercentage < 0 {
			errs = append(errs, ValidationError{Field: field + ".allocationPercentage", Message: "must not be negative"})
		}
		for oi, o := range b.objectives {
			ofield := fmt.Sprintf("%s.objectives[%d]", field, oi)
			if !o.commitmentType.Valid() {
				errs = append(errs, ValidationError{Field: ofield + ".commitmentType", Message: fmt.Sprintf("unknown value %q", o.commitmentType)})
			}
			for _, a := range o.assignments {
				if _, ok := known[a.personID]; !ok {
					errs = append(errs, ValidationError{Field: ofield + ".assignments", Message: fmt.Sprintf("unknown person %q", a.personID)})
				}
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
