package service

import (
	"context"
	"sort"
	"time"

	"github.com/voyagen/tvlistings/internal/store"
)

// The retention window runs from yesterday to a week ahead.
const (
	windowDaysBefore = 1
	windowDaysAfter  = 7
)

// RetentionPlan is what the planner decided for one run.
type RetentionPlan struct {
	// ToDelete are stored dates whose broadcasts are dropped, ascending.
	ToDelete []time.Time
	// Needed are the dates to fetch: today first, then the missing window dates ascending.
	Needed []time.Time
}

// Window returns the retention window around today, ascending.
func Window(today time.Time) []time.Time {
	today = store.DateOnly(today)
	out := make([]time.Time, 0, windowDaysBefore+windowDaysAfter+1)
	for d := -windowDaysBefore; d <= windowDaysAfter; d++ {
		out = append(out, today.AddDate(0, 0, d))
	}
	return out
}

// PlanRetention compares the stored broadcast dates with the window around
// today. Dates outside the window are deleted. Today is always refreshed: it
// is deleted when stored and always leads the needed list.
func PlanRetention(stored []time.Time, today time.Time) RetentionPlan {
	today = store.DateOnly(today)
	window := Window(today)

	inWindow := make(map[time.Time]bool, len(window))
	for _, d := range window {
		inWindow[d] = true
	}
	have := make(map[time.Time]bool, len(stored))
	for _, d := range stored {
		have[store.DateOnly(d)] = true
	}

	var plan RetentionPlan
	for d := range have {
		if !inWindow[d] {
			plan.ToDelete = append(plan.ToDelete, d)
		}
	}
	// today is inside the window, so the difference above never holds it.
	if have[today] {
		plan.ToDelete = append(plan.ToDelete, today)
	}
	sortDates(plan.ToDelete)

	plan.Needed = append(plan.Needed, today)
	for _, d := range window {
		if d != today && !have[d] {
			plan.Needed = append(plan.Needed, d)
		}
	}
	return plan
}

// applyRetention deletes the expired dates and returns the dates to fetch.
func (p *Pipeline) applyRetention(ctx context.Context, tx store.Tx, today time.Time, rep *Report) ([]time.Time, error) {
	stored, err := tx.BroadcastDates(ctx)
	if err != nil {
		return nil, err
	}
	plan := PlanRetention(stored, today)

	for _, d := range plan.ToDelete {
		n, err := tx.DeleteBroadcastsOn(ctx, d)
		if err != nil {
			return nil, err
		}
		rep.DatesDeleted = append(rep.DatesDeleted, d.Format(time.DateOnly))
		rep.BroadcastsDeleted += n
		p.metrics.Rows("programmation", "delete", n)
	}
	for _, d := range plan.Needed {
		rep.DatesNeeded = append(rep.DatesNeeded, d.Format(time.DateOnly))
	}
	p.log.WithField("stage", StageRetention).Debugf("deleting %v, fetching %v", rep.DatesDeleted, rep.DatesNeeded)
	return plan.Needed, nil
}

func sortDates(ds []time.Time) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}
