package plan_test

import (
	"testing"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/internal/domain/plan"
	. "github.com/smartystreets/goconvey/convey"
)

func TestObjective_Classify(t *testing.T) {
	cases := []struct {
		name       string
		ct         model.CommitmentType
		estimate   float64
		commitment float64
		want       plan.Class
	}{
		{"committed with allocation", model.CommitmentTypeCommitted, 5, 1, plan.ClassCommitted},
		{"committed without allocation", model.CommitmentTypeCommitted, 5, 0, plan.ClassRejected},
		{"unset without allocation", model.CommitmentTypeUnset, 5, 0, plan.ClassRejected},
		{"aspirational partial", model.CommitmentTypeAspirational, 5, 2, plan.ClassPartiallyAllocated},
		{"unset full", model.CommitmentTypeUnset, 5, 5, plan.ClassFullyAllocated},
		{"over allocated", model.CommitmentTypeAspirational, 5, 8, plan.ClassFullyAllocated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := plan.NewObjective("o", tc.estimate).WithCommitmentType(tc.ct)
			if tc.commitment > 0 {
				o = o.WithAssignments([]plan.Assignment{plan.NewAssignment("p", tc.commitment)})
			}
			if got := o.Classify(); got != tc.want {
				t.Errorf("Classify() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestObjective_Edits(t *testing.T) {
	Convey("Given an objective", t, func() {
		o := plan.FromObjective(samplePeriod().Buckets[0].Objectives[0])

		Convey("When negative quantities are supplied", func() {
			So(plan.NewObjective("neg", -3).ResourceEstimate(), ShouldEqual, 0)
			So(o.WithResourceEstimate(-1).ResourceEstimate(), ShouldEqual, 0)
			So(plan.NewAssignment("p", -2).Commitment(), ShouldEqual, 0)
		})

		Convey("When a field is edited", func() {
			edited := o.WithName("New name").WithBlockID("")

			Convey("Then the key is preserved and the original untouched", func() {
				So(edited.Key(), ShouldEqual, o.Key())
				So(edited.Name(), ShouldEqual, "New name")
				So(edited.BlockID(), ShouldEqual, "")
				So(o.Name(), ShouldEqual, "An objective")
				So(o.BlockID(), ShouldEqual, "block-1")
			})
		})

		Convey("When the accessor slices are modified", func() {
			groups := o.Groups()
			groups[0] = plan.NewObjectiveGroup("Project", "Mutated")

			Convey("Then the objective does not see it", func() {
				name, _ := o.GroupName("Project")
				So(name, ShouldEqual, "Alpha")
			})
		})

		Convey("When a person without assignments is deleted", func() {
			So(o.WithPersonDeleted("someone-else"), ShouldPointTo, o)
		})

		Convey("When display options are cleared", func() {
			d, ok := o.DisplayOptions()
			So(ok, ShouldBeTrue)
			So(d.EnableMarkdown(), ShouldBeTrue)
			_, ok = o.WithDisplayOptions(nil).DisplayOptions()
			So(ok, ShouldBeFalse)
		})

		Convey("When a person is rendered with their username", func() {
			So(plan.NewPerson("jdoe", "Jane Doe", 1).DisplayNameWithUsername(), ShouldEqual, "Jane Doe (jdoe)")
			So(plan.NewPerson("jdoe", "", 1).DisplayNameWithUsername(), ShouldEqual, "jdoe")
		})
	})
}

func TestBucket_ObjectiveOrdering(t *testing.T) {
	Convey("Given a bucket with three objectives", t, func() {
		a, b, c := plan.NewObjective("a", 1), plan.NewObjective("b", 2), plan.NewObjective("c", 3)
		bucket := plan.NewBucket("B", model.AllocationTypePercentage, 50, 0).
			WithNewObjectiveAtBottom(b).
			WithNewObjectiveAtBottom(c).
			WithNewObjectiveAtTop(a)

		names := func(bk *plan.Bucket) []string {
			var out []string
			for _, o := range bk.Objectives() {
				out = append(out, o.Name())
			}
			return out
		}

		So(names(bucket), ShouldResemble, []string{"a", "b", "c"})
		So(bucket.ResourcesEstimated(), ShouldEqual, 6)
		So(bucket.Allocation(20), ShouldEqual, 10)

		Convey("When an objective is moved past the end", func() {
			So(names(bucket.WithObjectiveMovedTo(a, 10)), ShouldResemble, []string{"b", "c", "a"})
		})

		Convey("When an objective is moved before the start", func() {
			So(names(bucket.WithObjectiveMovedTo(c, -4)), ShouldResemble, []string{"c", "a", "b"})
		})

		Convey("When an objective is moved to its own index", func() {
			So(bucket.WithObjectiveMovedTo(b, 1), ShouldPointTo, bucket)
		})

		Convey("When an objective is deleted and changed", func() {
			after := bucket.WithObjectiveDeleted(b).WithObjectiveChanged(c, c.WithName("c2"))
			So(names(after), ShouldResemble, []string{"a", "c2"})
			So(names(bucket), ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("When the allocation type is empty", func() {
			So(plan.NewBucket("B", "", 25, 7).Allocation(40), ShouldEqual, 10)
		})
	})
}

func TestSumAssignments(t *testing.T) {
	Convey("Given assignment lists with overlapping people", t, func() {
		got := plan.SumAssignments(
			[]plan.Assignment{plan.NewAssignment("b", 1), plan.NewAssignment("a", 2)},
			[]plan.Assignment{plan.NewAssignment("a", 3)},
		)

		Convey("Then commitments are summed in first-seen order", func() {
			So(len(got), ShouldEqual, 2)
			So(got[0].PersonID(), ShouldEqual, "b")
			So(got[0].Commitment(), ShouldEqual, 1)
			So(got[1].PersonID(), ShouldEqual, "a")
			So(got[1].Commitment(), ShouldEqual, 5)
		})
	})
}
