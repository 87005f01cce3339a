package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/internal/domain/plan"
	"github.com/okian/resplan/internal/domain/summary"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func num(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func writeTeams(out io.Writer, teams []model.Team) {
	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "ID\tNAME")
	for _, t := range teams {
		team := plan.FromTeam(t)
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", team.ID(), team.DisplayName())
	}
	_ = tw.Flush()
}

func writePeriods(out io.Writer, periods []model.Period) {
	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tUNIT\tAVAILABLE\tALLOCATED")
	for i := range periods {
		p := plan.FromPeriod(periods[i])
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID(), p.DisplayName(), p.Unit(), num(p.ResourcesAvailable()), num(p.ResourcesAllocated()))
	}
	_ = tw.Flush()
}

func writeBackups(out io.Writer, backups []model.PeriodBackup) {
	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "SAVED\tNAME\tLAST UPDATE UUID")
	for _, b := range backups {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n",
			b.Timestamp.UTC().Format(time.RFC3339), b.Period.DisplayName, b.Period.LastUpdateUUID)
	}
	_ = tw.Flush()
}

func writeSummary(out io.Writer, p *plan.Period, collapse bool) {
	available := p.ResourcesAvailable()
	_, _ = fmt.Fprintf(out, "%s (%s), unit: %s\n", p.DisplayName(), p.ID(), p.Unit())
	if p.NotesURL() != "" {
		_, _ = fmt.Fprintf(out, "notes: %s\n", p.NotesURL())
	}
	_, _ = fmt.Fprintf(out, "available %s, allocated %s, committed %s (%.0f%% of allocated, max %.0f%%)\n",
		num(available), num(p.ResourcesAllocated()), num(p.CommittedResourcesAllocated()),
		summary.CommittedAllocationRatio(p)*100, p.MaxCommittedPercentage())
	for _, su := range p.SecondaryUnits() {
		_, _ = fmt.Fprintf(out, "available %s %s\n", num(su.Convert(available)), su.Name())
	}
	if summary.CommittedAllocationsTooHigh(p) {
		_, _ = fmt.Fprintln(out, "warning: committed allocations exceed the maximum")
	}

	for _, b := range p.Buckets() {
		writeBucket(out, p, b, collapse)
	}
	writeGroups(out, p)
	writePeople(out, p)
}

func writeBucket(out io.Writer, p *plan.Period, b *plan.Bucket, collapse bool) {
	limit := b.Allocation(p.ResourcesAvailable())
	_, _ = fmt.Fprintf(out, "\n== %s: %.0f%% of period, limit %s, allocated %s\n",
		b.DisplayName(), p.BucketAllocationFraction(b)*100, num(limit), num(b.ResourcesAllocated()))

	rows := summary.DisplayObjectives(b)
	if collapse {
		rows = summary.CollapsedObjectives(b)
	}
	if len(rows) == 0 {
		return
	}

	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "OBJECTIVE\tESTIMATE\tCUMULATIVE\tLIMIT\tCOMMITMENT\tALLOCATED\tSTATUS")
	for _, r := range rows {
		o := r.Objective
		ct := string(o.CommitmentType())
		if ct == "" {
			ct = string(model.CommitmentTypeAspirational)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Name(), num(o.ResourceEstimate()), num(r.CumulativeSum),
			summary.CSumClass(r.CumulativeSum, limit, o.ResourceEstimate()),
			ct, num(o.ResourcesAllocated()), o.Classify())
	}
	_ = tw.Flush()
}

func writeGroups(out io.Writer, p *plan.Period) {
	objs := summary.AllObjectives(p)
	for _, groupType := range summary.AllGroupTypes(p) {
		groups, ungrouped := summary.GroupByGroupType(objs, groupType, summary.OrderByAllocation)
		_, _ = fmt.Fprintf(out, "\n== by %s\n", groupType)
		tw := newTable(out)
		for _, g := range groups {
			writeGroupRow(tw, groupType, g)
		}
		if len(ungrouped.Objectives) > 0 {
			writeGroupRow(tw, groupType, ungrouped)
		}
		_ = tw.Flush()
	}

	tags := summary.GroupByTag(objs)
	if len(tags) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\n== by tag")
	tw := newTable(out)
	for _, g := range tags {
		writeGroupRow(tw, "tag", g)
	}
	_ = tw.Flush()
}

func writeGroupRow(tw io.Writer, groupType string, g summary.Group) {
	row := summary.GroupSummaryObjective(groupType, g.Name, g.Objectives)
	names := make([]string, 0, len(g.Objectives))
	for _, o := range summary.SortObjectives(g.Objectives) {
		names = append(names, o.Name())
	}
	_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		row.Name(), num(row.ResourceEstimate()), num(row.ResourcesAllocated()),
		row.CommitmentType(), strings.Join(names, ", "))
}

func writePeople(out io.Writer, p *plan.Period) {
	rows := summary.PeopleStats(p)
	if len(rows) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\n== people")
	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "PERSON\tAVAILABLE\tCOMMITTED\tFREE\tASSIGNMENTS\t")
	for _, r := range rows {
		mark := ""
		if r.Overcommitted {
			mark = "overcommitted"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Person.DisplayNameWithUsername(), num(r.Person.Availability()),
			num(r.Committed), num(r.Uncommitted), r.AssignmentCount, mark)
	}
	t := summary.Totals(rows)
	mark := ""
	if t.Overcommitted() {
		mark = "overcommitted"
	}
	_, _ = fmt.Fprintf(tw, "total\t%s\t%s\t%s\t%d\t%s\n",
		num(t.Available), num(t.Committed), num(t.Uncommitted), t.AssignmentCount, mark)
	_ = tw.Flush()
}
