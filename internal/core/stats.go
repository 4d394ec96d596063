package core

import (
	"fmt"
	"math"
	"time"
)

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

type (
	Trend string

	// Change is a month-over-month delta for a single aggregate.
	Change struct {
		Value Money // signed: current minus prior
		Trend Trend
	}

	// TierTotal aggregates deal value and count for one tier label.
	// The empty tier ("") collects deals without a label.
	TierTotal struct {
		Tier  DealTier
		Total Money
		Count int
	}

	// StatsSnapshot is the persisted month-end aggregate used as the prior
	// period when computing change metrics. Period is formatted "2006-01".
	StatsSnapshot struct {
		Period              string
		TotalRevenue        Money
		PaidDealsValue      Money
		CompletedDealsValue Money
		CancelledDealsValue Money
		PipelineValue       Money
		TakenAt             time.Time
	}

	// DashboardStats is derived on demand from the current record snapshot
	// and never persisted.
	DashboardStats struct {
		TotalRevenue        Money
		PaidDealsValue      Money
		CompletedDealsValue Money
		CancelledDealsValue Money
		PipelineValue       Money

		DealCount      int
		ContactCount   int
		TaskCount      int
		TasksCompleted int
		TasksPending   int

		ByTier []TierTotal

		// Change metrics are nil when no prior-period snapshot exists,
		// signaling "no comparison available" to the presentation layer.
		RevenueChange  *Change
		PipelineChange *Change
		PaidChange     *Change
	}
)

// NewChange computes current minus prior. Ties resolve to "up".
func NewChange(current, prior Money) Change {
	c := Change{Value: current.Sub(prior), Trend: TrendUp}
	if current.Cents < prior.Cents {
		c.Trend = TrendDown
	}
	return c
}

// ComputeStats reduces the current record collections into dashboard
// statistics. It is a pure function: no side effects, no retained state,
// and no failure mode. Deals whose stage is not one of the three resolved
// stages count toward pipeline value. Total revenue is paid plus
// done_completed only; cancelled and pipeline value are excluded because
// they represent lost or unrealized value.
func ComputeStats(deals []Deal, tasks []Task, contacts []Contact, prior *StatsSnapshot) DashboardStats {
	stats := DashboardStats{
		DealCount:    len(deals),
		ContactCount: len(contacts),
		TaskCount:    len(tasks),
	}

	tiers := make(map[DealTier]*TierTotal)
	for _, d := range deals {
		switch d.Stage {
		case StagePaid:
			stats.PaidDealsValue = stats.PaidDealsValue.Add(d.Value)
		case StageDoneCompleted:
			stats.CompletedDealsValue = stats.CompletedDealsValue.Add(d.Value)
		case StageCancelled:
			stats.CancelledDealsValue = stats.CancelledDealsValue.Add(d.Value)
		default:
			stats.PipelineValue = stats.PipelineValue.Add(d.Value)
		}

		tt, ok := tiers[d.Tier]
		if !ok {
			tt = &TierTotal{Tier: d.Tier}
			tiers[d.Tier] = tt
		}
		tt.Total = tt.Total.Add(d.Value)
		tt.Count++
	}
	stats.TotalRevenue = stats.PaidDealsValue.Add(stats.CompletedDealsValue)

	// Stable tier ordering for rendering; the unlabeled bucket goes last.
	for _, tier := range Tiers() {
		if tt, ok := tiers[tier]; ok {
			stats.ByTier = append(stats.ByTier, *tt)
		}
	}
	if tt, ok := tiers[""]; ok {
		stats.ByTier = append(stats.ByTier, *tt)
	}

	for _, t := range tasks {
		switch t.Status {
		case TaskCompleted:
			stats.TasksCompleted++
		case TaskPending, TaskInProgress:
			stats.TasksPending++
		}
	}

	if prior != nil {
		rev := NewChange(stats.TotalRevenue, prior.TotalRevenue)
		pipe := NewChange(stats.PipelineValue, prior.PipelineValue)
		paid := NewChange(stats.PaidDealsValue, prior.PaidDealsValue)
		stats.RevenueChange = &rev
		stats.PipelineChange = &pipe
		stats.PaidChange = &paid
	}

	return stats
}

// Snapshot freezes the deal aggregates for the given period so a later
// computation can compare against them.
func (s DashboardStats) Snapshot(period string, takenAt time.Time) StatsSnapshot {
	return StatsSnapshot{
		Period:              period,
		TotalRevenue:        s.TotalRevenue,
		PaidDealsValue:      s.PaidDealsValue,
		CompletedDealsValue: s.CompletedDealsValue,
		CancelledDealsValue: s.CancelledDealsValue,
		PipelineValue:       s.PipelineValue,
		TakenAt:             takenAt,
	}
}

// Percentage returns v as a share of total in percent, rounded to one
// decimal place. A zero total yields 0 rather than dividing by zero.
func Percentage(v, total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return math.Round(float64(v.Cents)/float64(total.Cents)*1000) / 10
}

// PeriodKey formats a point in time as a snapshot period key.
func PeriodKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// PriorPeriodKey returns the period key for the month before t.
func PriorPeriodKey(t time.Time) string {
	year, month := t.Year(), int(t.Month())-1
	if month < 1 {
		month = 12
		year--
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}
