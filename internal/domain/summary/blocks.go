package summary

import (
	"fmt"

	"github.com/okian/resplan/internal/domain/plan"
)

// DisplayObjective is an objective with the running total of estimates up to
// and including it within its bucket.
type DisplayObjective struct {
	Objective     *plan.Objective
	CumulativeSum float64
}

// DisplayObjectives pairs each of b's objectives with its cumulative estimate.
func DisplayObjectives(b *plan.Bucket) []DisplayObjective {
	objs := b.Objectives()
	out := make([]DisplayObjective, 0, len(objs))
	var sum float64
	for _, o := range objs {
		sum += o.ResourceEstimate()
		out = append(out, DisplayObjective{Objective: o, CumulativeSum: sum})
	}
	return out
}

// CSum classifies an objective's position against its bucket's limit.
type CSum string

const (
	// CSumOK objectives end inside the limit.
	CSumOK CSum = "ok"
	// CSumMarginal objectives straddle the limit.
	CSumMarginal CSum = "marginal"
	// CSumExcess objectives start beyond the limit.
	CSumExcess CSum = "excess"
)

// CSumClass classifies an objective whose estimate brings the running total
// to cumulativeSum.
func CSumClass(cumulativeSum, limit, estimate float64) CSum {
	switch {
	case cumulativeSum < limit:
		return CSumOK
	case cumulativeSum-estimate <= limit:
		return CSumMarginal
	default:
		return CSumExcess
	}
}

// GroupBlocks splits objs into runs of adjacent objectives sharing a
// non-empty block id. Objectives without a block id are runs of one.
func GroupBlocks(objs []DisplayObjective) [][]DisplayObjective {
	var blocks [][]DisplayObjective
	var current []DisplayObjective
	currentID := ""
	for _, o := range objs {
		id := o.Objective.BlockID()
		if (id == "" || id != currentID) && len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
		currentID = id
		current = append(current, o)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// BlockPlaceholders collapses every multi-objective block into one synthetic
// objective named after the first member. Estimates and assignments are
// summed and the cumulative sum is the last member's.
func BlockPlaceholders(blocks [][]DisplayObjective) []DisplayObjective {
	out := make([]DisplayObjective, 0, len(blocks))
	for _, block := range blocks {
		if len(block) == 1 {
			out = append(out, block[0])
			continue
		}
		first := block[0].Objective
		var estimate float64
		assignments := make([][]plan.Assignment, 0, len(block))
		for _, o := range block {
			estimate += o.Objective.ResourceEstimate()
			assignments = append(assignments, o.Objective.Assignments())
		}
		placeholder := plan.NewObjective(fmt.Sprintf("%s (and %d more)", first.Name(), len(block)-1), estimate).
			WithGroups([]plan.ObjectiveGroup{}).
			WithTags([]plan.ObjectiveTag{}).
			WithAssignments(plan.SumAssignments(assignments...)).
			WithBlockID(first.BlockID())
		if d, ok := first.DisplayOptions(); ok {
			placeholder = placeholder.WithDisplayOptions(&d)
		}
		out = append(out, DisplayObjective{Objective: placeholder, CumulativeSum: block[len(block)-1].CumulativeSum})
	}
	return out
}

// CollapsedObjectives is DisplayObjectives with blocks collapsed.
func CollapsedObjectives(b *plan.Bucket) []DisplayObjective {
	return BlockPlaceholders(GroupBlocks(DisplayObjectives(b)))
}
