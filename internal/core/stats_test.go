package core

import (
	"math"
	"testing"
	"time"
)

func deal(cents int64, stage DealStage) Deal {
	return Deal{Title: "d", Value: Money{Cents: cents}, Stage: stage}
}

func TestComputeStatsBuckets(t *testing.T) {
	deals := []Deal{
		deal(100000, StagePaid),
		deal(50000, StageCancelled),
		deal(200000, StageProposal),
	}
	stats := ComputeStats(deals, nil, nil, nil)

	if stats.PaidDealsValue.Cents != 100000 {
		t.Fatalf("paid = %d, want 100000", stats.PaidDealsValue.Cents)
	}
	if stats.CancelledDealsValue.Cents != 50000 {
		t.Fatalf("cancelled = %d, want 50000", stats.CancelledDealsValue.Cents)
	}
	if stats.PipelineValue.Cents != 200000 {
		t.Fatalf("pipeline = %d, want 200000", stats.PipelineValue.Cents)
	}
	if stats.TotalRevenue.Cents != 100000 {
		t.Fatalf("revenue = %d, want 100000", stats.TotalRevenue.Cents)
	}
}

// The four buckets must partition the full deal set: their sums always add
// up to the sum of all deal values, whatever the stage distribution.
func TestComputeStatsPartition(t *testing.T) {
	stages := Stages()
	var deals []Deal
	var want int64
	for i := int64(1); i <= 50; i++ {
		v := i * 137
		want += v
		deals = append(deals, deal(v, stages[int(i)%len(stages)]))
	}
	stats := ComputeStats(deals, nil, nil, nil)
	got := stats.PaidDealsValue.Cents + stats.CompletedDealsValue.Cents +
		stats.CancelledDealsValue.Cents + stats.PipelineValue.Cents
	if got != want {
		t.Fatalf("bucket sum = %d, want %d", got, want)
	}
	if stats.TotalRevenue.Cents != stats.PaidDealsValue.Cents+stats.CompletedDealsValue.Cents {
		t.Fatalf("revenue %d != paid %d + completed %d",
			stats.TotalRevenue.Cents, stats.PaidDealsValue.Cents, stats.CompletedDealsValue.Cents)
	}
}

func TestComputeStatsZeroValueDeals(t *testing.T) {
	// A deal whose value was never entered carries zero cents and must not
	// disturb the aggregation.
	deals := []Deal{
		deal(0, StagePaid),
		deal(0, StageLead),
		deal(2500, StagePaid),
	}
	stats := ComputeStats(deals, nil, nil, nil)
	if stats.TotalRevenue.Cents != 2500 {
		t.Fatalf("revenue = %d, want 2500", stats.TotalRevenue.Cents)
	}
	if stats.DealCount != 3 {
		t.Fatalf("deal count = %d, want 3", stats.DealCount)
	}
}

func TestComputeStatsUnknownStageCountsAsPipeline(t *testing.T) {
	deals := []Deal{{Title: "legacy", Value: Money{Cents: 999}, Stage: DealStage("negotiation")}}
	stats := ComputeStats(deals, nil, nil, nil)
	if stats.PipelineValue.Cents != 999 {
		t.Fatalf("pipeline = %d, want 999", stats.PipelineValue.Cents)
	}
	if stats.TotalRevenue.Cents != 0 {
		t.Fatalf("revenue = %d, want 0", stats.TotalRevenue.Cents)
	}
}

func TestComputeStatsTaskAndContactCounts(t *testing.T) {
	tasks := []Task{
		{Title: "a", Status: TaskCompleted, Priority: PriorityLow},
		{Title: "b", Status: TaskPending, Priority: PriorityHigh},
		{Title: "c", Status: TaskInProgress, Priority: PriorityMedium},
		{Title: "d", Status: TaskCancelled, Priority: PriorityLow},
	}
	contacts := []Contact{{Name: "x"}, {Name: "y"}}
	stats := ComputeStats(nil, tasks, contacts, nil)
	if stats.TasksCompleted != 1 || stats.TasksPending != 2 || stats.TaskCount != 4 {
		t.Fatalf("task counts = %d/%d/%d", stats.TasksCompleted, stats.TasksPending, stats.TaskCount)
	}
	if stats.ContactCount != 2 {
		t.Fatalf("contact count = %d, want 2", stats.ContactCount)
	}
}

func TestComputeStatsByTier(t *testing.T) {
	deals := []Deal{
		{Title: "a", Value: Money{Cents: 100}, Stage: StageLead, Tier: TierEnterprise},
		{Title: "b", Value: Money{Cents: 200}, Stage: StagePaid, Tier: TierEnterprise},
		{Title: "c", Value: Money{Cents: 50}, Stage: StageLead},
	}
	stats := ComputeStats(deals, nil, nil, nil)
	if len(stats.ByTier) != 2 {
		t.Fatalf("tier buckets = %d, want 2", len(stats.ByTier))
	}
	if stats.ByTier[0].Tier != TierEnterprise || stats.ByTier[0].Total.Cents != 300 || stats.ByTier[0].Count != 2 {
		t.Fatalf("enterprise bucket = %+v", stats.ByTier[0])
	}
	// Unlabeled bucket sorts last.
	if stats.ByTier[1].Tier != "" || stats.ByTier[1].Total.Cents != 50 {
		t.Fatalf("unlabeled bucket = %+v", stats.ByTier[1])
	}
}

func TestComputeStatsChangeMetrics(t *testing.T) {
	deals := []Deal{deal(15000, StagePaid)}

	stats := ComputeStats(deals, nil, nil, nil)
	if stats.RevenueChange != nil || stats.PipelineChange != nil || stats.PaidChange != nil {
		t.Fatalf("expected nil change metrics without prior snapshot")
	}

	prior := &StatsSnapshot{
		Period:         "2026-07",
		TotalRevenue:   Money{Cents: 10000},
		PaidDealsValue: Money{Cents: 10000},
	}
	stats = ComputeStats(deals, nil, nil, prior)
	if stats.RevenueChange == nil {
		t.Fatalf("expected revenue change")
	}
	if stats.RevenueChange.Value.Cents != 5000 || stats.RevenueChange.Trend != TrendUp {
		t.Fatalf("revenue change = %+v", stats.RevenueChange)
	}
}

func TestNewChange(t *testing.T) {
	cases := []struct {
		current, prior int64
		value          int64
		trend          Trend
	}{
		{150, 100, 50, TrendUp},
		{80, 100, -20, TrendDown},
		{100, 100, 0, TrendUp}, // ties resolve to "up"
	}
	for _, tc := range cases {
		c := NewChange(Money{Cents: tc.current}, Money{Cents: tc.prior})
		if c.Value.Cents != tc.value || c.Trend != tc.trend {
			t.Fatalf("NewChange(%d, %d) = %+v, want value=%d trend=%s",
				tc.current, tc.prior, c, tc.value, tc.trend)
		}
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(Money{Cents: 500}, Money{Cents: 0}); got != 0 {
		t.Fatalf("zero total: got %v, want 0", got)
	}
	if got := Percentage(Money{Cents: 250}, Money{Cents: 1000}); got != 25.0 {
		t.Fatalf("got %v, want 25.0", got)
	}
	if got := Percentage(Money{Cents: 1}, Money{Cents: 3}); got != 33.3 {
		t.Fatalf("got %v, want 33.3", got)
	}
}

// Complementary shares sum to 100 within rounding tolerance.
func TestPercentageComplement(t *testing.T) {
	total := Money{Cents: 7777}
	for _, v := range []int64{0, 1, 1234, 3888, 7776, 7777} {
		a := Percentage(Money{Cents: v}, total)
		b := Percentage(total.Sub(Money{Cents: v}), total)
		if math.Abs(a+b-100.0) > 0.1 {
			t.Fatalf("v=%d: %v + %v deviates from 100", v, a, b)
		}
	}
}

func TestPeriodKeys(t *testing.T) {
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := PeriodKey(jan); got != "2026-01" {
		t.Fatalf("PeriodKey = %q", got)
	}
	if got := PriorPeriodKey(jan); got != "2025-12" {
		t.Fatalf("PriorPeriodKey = %q", got)
	}
	aug := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if got := PriorPeriodKey(aug); got != "2026-07" {
		t.Fatalf("PriorPeriodKey = %q", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	deals := []Deal{deal(100, StagePaid), deal(200, StageLead)}
	stats := ComputeStats(deals, nil, nil, nil)
	snap := stats.Snapshot("2026-08", time.Now())
	if snap.TotalRevenue.Cents != 100 || snap.PipelineValue.Cents != 200 {
		t.Fatalf("snapshot = %+v", snap)
	}
	next := ComputeStats(deals, nil, nil, &snap)
	if next.RevenueChange == nil || next.RevenueChange.Value.Cents != 0 || next.RevenueChange.Trend != TrendUp {
		t.Fatalf("self comparison = %+v", next.RevenueChange)
	}
}
