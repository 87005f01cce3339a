package summary

import (
	"cmp"
	"slices"

	"github.com/okian/resplan/internal/domain/plan"
)

// PeopleCommitments sums each person's commitments across the period.
// People without assignments are absent from the map.
func PeopleCommitments(p *plan.Period) map[string]float64 {
	out := make(map[string]float64)
	for _, o := range AllObjectives(p) {
		for _, a := range o.Assignments() {
			out[a.PersonID()] += a.Commitment()
		}
	}
	return out
}

// PeopleAssignmentCounts counts each person's assignments across the period.
func PeopleAssignmentCounts(p *plan.Period) map[string]int {
	out := make(map[string]int)
	for _, o := range AllObjectives(p) {
		for _, a := range o.Assignments() {
			out[a.PersonID()]++
		}
	}
	return out
}

// UnallocatedTime is each person's availability minus their commitments.
// Assignments to unknown ids show up as negative entries.
func UnallocatedTime(p *plan.Period) map[string]float64 {
	out := make(map[string]float64, len(p.People()))
	for _, person := range p.People() {
		out[person.ID()] = person.Availability()
	}
	for id, committed := range PeopleCommitments(p) {
		out[id] -= committed
	}
	return out
}

// PersonStats is one row of the people table.
type PersonStats struct {
	Person          *plan.Person
	Committed       float64
	Uncommitted     float64
	AssignmentCount int
	Overcommitted   bool
}

// PeopleStats returns a row per person in roster order.
func PeopleStats(p *plan.Period) []PersonStats {
	commitments := PeopleCommitments(p)
	counts := PeopleAssignmentCounts(p)
	people := p.People()
	out := make([]PersonStats, 0, len(people))
	for _, person := range people {
		committed := commitments[person.ID()]
		out = append(out, PersonStats{
			Person:          person,
			Committed:       committed,
			Uncommitted:     person.Availability() - committed,
			AssignmentCount: counts[person.ID()],
			Overcommitted:   committed > person.Availability(),
		})
	}
	return out
}

// PeopleTotals aggregates PeopleStats over the whole team.
type PeopleTotals struct {
	Available       float64
	Committed       float64
	Uncommitted     float64
	AssignmentCount int
}

// Overcommitted reports whether the team as a whole is committed beyond its
// availability.
func (t PeopleTotals) Overcommitted() bool { return t.Uncommitted < 0 }

// Totals sums the given rows.
func Totals(rows []PersonStats) PeopleTotals {
	var t PeopleTotals
	for _, r := range rows {
		t.Available += r.Person.Availability()
		t.Committed += r.Committed
		t.Uncommitted += r.Uncommitted
		t.AssignmentCount += r.AssignmentCount
	}
	return t
}

// DefaultAvailability is the most common availability on the roster, used to
// prefill new people. Ties go to the value seen first; an empty roster gives 0.
func DefaultAvailability(p *plan.Period) float64 {
	counts := make(map[float64]int)
	var mode float64
	best := 0
	for _, person := range p.People() {
		a := person.Availability()
		counts[a]++
		if counts[a] > best {
			best = counts[a]
			mode = a
		}
	}
	return mode
}

// ObjectiveAssignment pairs an objective with one of its assignments.
type ObjectiveAssignment struct {
	Bucket     *plan.Bucket
	Objective  *plan.Objective
	Assignment plan.Assignment
}

// AssignmentsFor lists every assignment of personID, largest commitment first.
func AssignmentsFor(p *plan.Period, personID string) []ObjectiveAssignment {
	var out []ObjectiveAssignment
	for _, b := range p.Buckets() {
		for _, o := range b.Objectives() {
			for _, a := range o.Assignments() {
				if a.PersonID() == personID {
					out = append(out, ObjectiveAssignment{Bucket: b, Objective: o, Assignment: a})
				}
			}
		}
	}
	slices.SortStableFunc(out, func(x, y ObjectiveAssignment) int {
		return cmp.Compare(y.Assignment.Commitment(), x.Assignment.Commitment())
	})
	return out
}

// CommittedAllocationRatio is the fraction of allocated resources that went
// to committed objectives, or 0 when nothing is allocated.
func CommittedAllocationRatio(p *plan.Period) float64 {
	total := p.ResourcesAllocated()
	if total == 0 {
		return 0
	}
	return p.CommittedResourcesAllocated() / total
}

// CommittedAllocationsTooHigh reports whether the committed share exceeds the
// period's MaxCommittedPercentage.
func CommittedAllocationsTooHigh(p *plan.Period) bool {
	return CommittedAllocationRatio(p)*100 > p.MaxCommittedPercentage()
}
