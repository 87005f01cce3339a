package summary_test

import (
	"testing"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/internal/domain/plan"
	"github.com/okian/resplan/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

func objective(name string, estimate float64, groups []plan.ObjectiveGroup, tags []string, assignments ...plan.Assignment) *plan.Objective {
	var ts []plan.ObjectiveTag
	for _, t := range tags {
		ts = append(ts, plan.NewObjectiveTag(t))
	}
	return plan.NewObjective(name, estimate).WithGroups(groups).WithTags(ts).WithAssignments(assignments)
}

func names(objs []*plan.Objective) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Name())
	}
	return out
}

func TestSortObjectives(t *testing.T) {
	Convey("Given objectives with equal and distinct allocations", t, func() {
		objs := []*plan.Objective{
			objective("beta", 1, nil, nil, plan.NewAssignment("p", 1)),
			objective("Alpha", 1, nil, nil, plan.NewAssignment("p", 1)),
			objective("gamma", 1, nil, nil, plan.NewAssignment("p", 4)),
			objective("delta", 1, nil, nil),
		}

		Convey("Then they sort by allocation then by name", func() {
			So(names(summary.SortObjectives(objs)), ShouldResemble, []string{"gamma", "Alpha", "beta", "delta"})
			So(objs[0].Name(), ShouldEqual, "beta")
		})
	})
}

func TestGroupByGroupType(t *testing.T) {
	Convey("Given objectives in two projects and one without", t, func() {
		objs := []*plan.Objective{
			objective("o1", 1, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Project", "Zeta")}, nil, plan.NewAssignment("p", 1)),
			objective("o2", 1, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Project", "Alpha")}, nil, plan.NewAssignment("p", 3)),
			objective("o3", 1, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Team", "Core")}, nil),
			objective("o4", 1, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Project", "Zeta")}, nil),
		}

		Convey("When grouped by first appearance", func() {
			groups, ungrouped := summary.GroupByGroupType(objs, "Project", summary.OrderFirstAppearance)

			Convey("Then groups follow the objective order", func() {
				So(len(groups), ShouldEqual, 2)
				So(groups[0].Name, ShouldEqual, "Zeta")
				So(names(groups[0].Objectives), ShouldResemble, []string{"o1", "o4"})
				So(groups[1].Name, ShouldEqual, "Alpha")
				So(ungrouped.Name, ShouldEqual, "No Project")
				So(names(ungrouped.Objectives), ShouldResemble, []string{"o3"})
			})
		})

		Convey("When grouped by allocation", func() {
			groups, _ := summary.GroupByGroupType(objs, "Project", summary.OrderByAllocation)
			So(groups[0].Name, ShouldEqual, "Alpha")
			So(groups[0].ResourcesAllocated(), ShouldEqual, 3)
		})

		Convey("When the groups tie on allocation", func() {
			tied := []*plan.Objective{
				objective("x", 1, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Project", "b")}, nil),
				objective("y", 1, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Project", "A")}, nil),
			}
			groups, _ := summary.GroupByGroupType(tied, "Project", summary.OrderByAllocation)
			So(groups[0].Name, ShouldEqual, "A")
			So(groups[1].Name, ShouldEqual, "b")
		})

		Convey("When a group summary row is built", func() {
			groups, _ := summary.GroupByGroupType(objs, "Project", summary.OrderFirstAppearance)
			row := summary.GroupSummaryObjective("Project", groups[0].Name, groups[0].Objectives)

			So(row.Name(), ShouldEqual, "Zeta")
			So(row.ResourceEstimate(), ShouldEqual, 2)
			So(row.ResourcesAllocated(), ShouldEqual, 1)
			So(row.CommitmentType(), ShouldEqual, model.CommitmentTypeAspirational)
			So(row.Notes(), ShouldEqual, "Dummy objective representing Project Zeta")
		})
	})
}

func TestGroupByTag(t *testing.T) {
	Convey("Given objectives with overlapping tags", t, func() {
		objs := []*plan.Objective{
			objective("o1", 1, nil, []string{"web", "api"}),
			objective("o2", 1, nil, []string{"api", "api"}),
		}
		groups := summary.GroupByTag(objs)

		Convey("Then each tag is a group in name order", func() {
			So(len(groups), ShouldEqual, 2)
			So(groups[0].Name, ShouldEqual, "api")
			So(names(groups[0].Objectives), ShouldResemble, []string{"o1", "o2"})
			So(groups[1].Name, ShouldEqual, "web")
		})
	})
}

func TestPeopleSummaries(t *testing.T) {
	Convey("Given a period with assignments", t, func() {
		b := plan.NewBucket("B", model.AllocationTypePercentage, 100, 0).
			WithNewObjectiveAtBottom(objective("small", 2, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Team", "x")}, []string{"t1"}, plan.NewAssignment("p1", 1))).
			WithNewObjectiveAtBottom(objective("big", 5, []plan.ObjectiveGroup{plan.NewObjectiveGroup("Area", "y")}, []string{"t0"},
				plan.NewAssignment("p1", 4), plan.NewAssignment("p2", 2)).WithCommitmentType(model.CommitmentTypeCommitted))
		p := plan.NewPeriod("q", "Q", "weeks").
			WithNewBucket(b).
			WithMaxCommittedPercentage(50)
		p, _ = p.WithNewPerson(plan.NewPerson("p1", "One", 4))
		p, _ = p.WithNewPerson(plan.NewPerson("p2", "Two", 4))
		p, _ = p.WithNewPerson(plan.NewPerson("p3", "Three", 6))

		Convey("Then per-person totals are computed", func() {
			So(summary.PeopleCommitments(p), ShouldResemble, map[string]float64{"p1": 5, "p2": 2})
			So(summary.PeopleAssignmentCounts(p), ShouldResemble, map[string]int{"p1": 2, "p2": 1})
			So(summary.UnallocatedTime(p), ShouldResemble, map[string]float64{"p1": -1, "p2": 2, "p3": 6})
		})

		Convey("Then the people table flags overcommitment", func() {
			rows := summary.PeopleStats(p)
			So(len(rows), ShouldEqual, 3)
			So(rows[0].Overcommitted, ShouldBeTrue)
			So(rows[1].Overcommitted, ShouldBeFalse)
			So(rows[2].AssignmentCount, ShouldEqual, 0)

			totals := summary.Totals(rows)
			So(totals.Available, ShouldEqual, 14)
			So(totals.Committed, ShouldEqual, 7)
			So(totals.Uncommitted, ShouldEqual, 7)
			So(totals.Overcommitted(), ShouldBeFalse)
			So(summary.DefaultAvailability(p), ShouldEqual, 4)
		})

		Convey("Then a person's assignments are listed largest first", func() {
			list := summary.AssignmentsFor(p, "p1")
			So(len(list), ShouldEqual, 2)
			So(list[0].Objective.Name(), ShouldEqual, "big")
			So(list[0].Assignment.Commitment(), ShouldEqual, 4)
			So(list[1].Objective.Name(), ShouldEqual, "small")
		})

		Convey("Then the committed share is checked against the period maximum", func() {
			So(summary.CommittedAllocationRatio(p), ShouldAlmostEqual, 6.0/7.0)
			So(summary.CommittedAllocationsTooHigh(p), ShouldBeTrue)
		})

		Convey("Then group types and tags are listed sorted", func() {
			So(summary.AllGroupTypes(p), ShouldResemble, []string{"Area", "Team"})
			So(summary.AllTags(p), ShouldResemble, []string{"t0", "t1"})
		})
	})
}

func TestBlocks(t *testing.T) {
	Convey("Given three objectives where the last two share a block", t, func() {
		b := plan.NewBucket("B", model.AllocationTypeAbsolute, 0, 3).
			WithNewObjectiveAtBottom(plan.NewObjective("O1", 2)).
			WithNewObjectiveAtBottom(plan.NewObjective("O2", 1).WithBlockID("block1").
				WithAssignments([]plan.Assignment{plan.NewAssignment("a", 1)})).
			WithNewObjectiveAtBottom(plan.NewObjective("O3", 1).WithBlockID("block1").
				WithAssignments([]plan.Assignment{plan.NewAssignment("a", 2)}))

		display := summary.DisplayObjectives(b)

		Convey("Then cumulative sums accumulate estimates", func() {
			So(len(display), ShouldEqual, 3)
			So(display[0].CumulativeSum, ShouldEqual, 2)
			So(display[2].CumulativeSum, ShouldEqual, 4)
		})

		Convey("Then the cumulative classes follow the bucket limit", func() {
			limit := b.Allocation(0)
			So(summary.CSumClass(display[0].CumulativeSum, limit, 2), ShouldEqual, summary.CSumOK)
			So(summary.CSumClass(display[1].CumulativeSum, limit, 1), ShouldEqual, summary.CSumMarginal)
			So(summary.CSumClass(display[2].CumulativeSum, limit, 1), ShouldEqual, summary.CSumMarginal)
			So(summary.CSumClass(10, limit, 1), ShouldEqual, summary.CSumExcess)
		})

		Convey("When the blocks are collapsed", func() {
			blocks := summary.GroupBlocks(display)
			So(len(blocks), ShouldEqual, 2)

			collapsed := summary.BlockPlaceholders(blocks)

			Convey("Then the block is one placeholder objective", func() {
				So(len(collapsed), ShouldEqual, 2)
				So(collapsed[0].Objective.Name(), ShouldEqual, "O1")
				ph := collapsed[1].Objective
				So(ph.Name(), ShouldEqual, "O2 (and 1 more)")
				So(ph.ResourceEstimate(), ShouldEqual, 2)
				So(ph.BlockID(), ShouldEqual, "block1")
				So(len(ph.Assignments()), ShouldEqual, 1)
				So(ph.Assignments()[0].PersonID(), ShouldEqual, "a")
				So(ph.Assignments()[0].Commitment(), ShouldEqual, 3)
				So(collapsed[1].CumulativeSum, ShouldEqual, 4)
			})

			Convey("And the bucket shortcut agrees", func() {
				So(len(summary.CollapsedObjectives(b)), ShouldEqual, 2)
			})
		})

		Convey("When adjacent objectives have different or empty block ids", func() {
			other := b.WithNewObjectiveAtBottom(plan.NewObjective("O4", 1).WithBlockID("block2")).
				WithNewObjectiveAtBottom(plan.NewObjective("O5", 1))
			So(len(summary.GroupBlocks(summary.DisplayObjectives(other))), ShouldEqual, 4)
		})
	})
}
