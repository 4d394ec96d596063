package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"dealdesk/internal/core"
)

// changeView is the rendered form of a change metric. Nil metrics render
// as an absent badge rather than a zero.
type changeView struct {
	Value string
	Trend string
	Up    bool
}

func newChangeView(c *core.Change) *changeView {
	if c == nil {
		return nil
	}
	sign := "+"
	if c.Value.Cents < 0 {
		sign = ""
	}
	return &changeView{
		Value: sign + c.Value.Format(),
		Trend: string(c.Trend),
		Up:    c.Trend == core.TrendUp,
	}
}

// handleDashboardSummary renders the headline stat cards partial.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	stats, err := s.getStats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard stats error", "error", err)
		_, _ = w.Write([]byte(`<section id="dashboard-summary" class="summary"><div class="placeholder">Failed to load dashboard stats</div></section>`))
		return
	}

	data := struct {
		TotalRevenue   string
		PipelineValue  string
		PaidValue      string
		CompletedValue string
		CancelledValue string
		DealCount      int
		ContactCount   int
		TaskCount      int
		TasksCompleted int
		TasksPending   int
		RevenueChange  *changeView
		PipelineChange *changeView
		PaidChange     *changeView
	}{
		TotalRevenue:   stats.TotalRevenue.Format(),
		PipelineValue:  stats.PipelineValue.Format(),
		PaidValue:      stats.PaidDealsValue.Format(),
		CompletedValue: stats.CompletedDealsValue.Format(),
		CancelledValue: stats.CancelledDealsValue.Format(),
		DealCount:      stats.DealCount,
		ContactCount:   stats.ContactCount,
		TaskCount:      stats.TaskCount,
		TasksCompleted: stats.TasksCompleted,
		TasksPending:   stats.TasksPending,
		RevenueChange:  newChangeView(stats.RevenueChange),
		PipelineChange: newChangeView(stats.PipelineChange),
		PaidChange:     newChangeView(stats.PaidChange),
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard-summary" class="summary"><div class="placeholder">Revenue: ` + data.TotalRevenue + `</div></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard_summary.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard_summary.html")
		_, _ = w.Write([]byte(`<section id="dashboard-summary" class="summary"><div class="placeholder">Failed rendering dashboard</div></section>`))
	}
}

// revenueSegment is one slice of the revenue breakdown chart.
type revenueSegment struct {
	Name    string
	Amount  string
	Percent float64
	Class   string
}

// handleRevenueChart renders the revenue breakdown partial: paid,
// completed, and cancelled values against the open pipeline, as a pie
// built from a CSS conic gradient plus a tier table.
func (s *Server) handleRevenueChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	stats, err := s.getStats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Revenue chart error", "error", err)
		_, _ = w.Write([]byte(`<section id="revenue-chart" class="chart"><div class="placeholder">Failed to load revenue chart</div></section>`))
		return
	}

	grand := stats.PaidDealsValue.
		Add(stats.CompletedDealsValue).
		Add(stats.CancelledDealsValue).
		Add(stats.PipelineValue)

	segments := []revenueSegment{
		{Name: "Paid", Amount: stats.PaidDealsValue.Format(), Percent: core.Percentage(stats.PaidDealsValue, grand), Class: "paid"},
		{Name: "Completed", Amount: stats.CompletedDealsValue.Format(), Percent: core.Percentage(stats.CompletedDealsValue, grand), Class: "completed"},
		{Name: "Cancelled", Amount: stats.CancelledDealsValue.Format(), Percent: core.Percentage(stats.CancelledDealsValue, grand), Class: "cancelled"},
		{Name: "Pipeline", Amount: stats.PipelineValue.Format(), Percent: core.Percentage(stats.PipelineValue, grand), Class: "pipeline"},
	}

	type tierRow struct {
		Label string
		Total string
		Count int
	}
	var tiers []tierRow
	for _, t := range stats.ByTier {
		label := t.Tier.Label()
		if t.Tier == "" {
			label = "No tier"
		}
		tiers = append(tiers, tierRow{Label: label, Total: t.Total.Format(), Count: t.Count})
	}

	data := struct {
		TotalRevenue string
		GrandTotal   string
		Segments     []revenueSegment
		Gradient     string
		Tiers        []tierRow
		Empty        bool
	}{
		TotalRevenue: stats.TotalRevenue.Format(),
		GrandTotal:   grand.Format(),
		Segments:     segments,
		Gradient:     conicGradient(segments),
		Tiers:        tiers,
		Empty:        grand.Cents == 0,
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="revenue-chart" class="chart"><div class="placeholder">Total: ` + data.TotalRevenue + `</div></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "revenue_chart.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "revenue_chart.html")
		_, _ = w.Write([]byte(`<section id="revenue-chart" class="chart"><div class="placeholder">Failed rendering chart</div></section>`))
	}
}

// chart colors keyed by segment class, mirrored in app.css
var segmentColors = map[string]string{
	"paid":      "#2f9e44",
	"completed": "#1971c2",
	"cancelled": "#e03131",
	"pipeline":  "#f08c00",
}

// conicGradient builds the CSS conic-gradient stop list for the pie chart.
func conicGradient(segments []revenueSegment) string {
	var b strings.Builder
	cursor := 0.0
	for _, seg := range segments {
		if seg.Percent <= 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		end := cursor + seg.Percent
		if end > 100 {
			end = 100
		}
		fmt.Fprintf(&b, "%s %.1f%% %.1f%%", segmentColors[seg.Class], cursor, end)
		cursor = end
	}
	if b.Len() == 0 {
		return "#dee2e6 0 100%"
	}
	return b.String()
}
