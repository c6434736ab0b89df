package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"pharmart/internal/models"
	"pharmart/internal/repository"
	"pharmart/pkg/money"
)

// seriesWindowDays is the trailing window of the dashboard revenue series.
const seriesWindowDays = 30

// leaderboardSize caps the supplier revenue leaderboard.
const leaderboardSize = 5

// SupplierMetrics, OrderMetrics and PayoutMetrics are the read-only slices of
// the repositories the aggregator consumes. It never mutates state.
type SupplierMetrics interface {
	CountSuppliers() (total, verified int64, err error)
	CountSuppliersJoined(from, to time.Time) (int64, error)
	LatestSuppliers(limit int) ([]models.User, error)
}

type OrderMetrics interface {
	Counts() (total, pending, completed int64, err error)
	SumPaidRevenue(from, to time.Time) (int64, error)
	DailyPaidRevenue(since time.Time) ([]repository.DailyRevenueRow, error)
	TopSuppliersByRevenue(from, to time.Time, limit int) ([]repository.SupplierRevenueRow, error)
	CountByStatus() ([]repository.StatusCountRow, error)
}

type PayoutMetrics interface {
	PendingStats() (count, amountCents int64, err error)
	LatestPayouts(limit int) ([]models.Payout, error)
}

type SupplierSummary struct {
	Total        int64   `json:"total"`
	Active       int64   `json:"active"`
	NewThisMonth int64   `json:"new_this_month"`
	GrowthPct    float64 `json:"growth_pct"`
}

type RevenueSummary struct {
	TotalCents     int64   `json:"total_cents"`
	TotalFormatted string  `json:"total_formatted"`
	MonthCents     int64   `json:"month_cents"`
	MonthFormatted string  `json:"month_formatted"`
	GrowthPct      float64 `json:"growth_pct"`
}

type PendingPayoutSummary struct {
	Count           int64  `json:"count"`
	AmountCents     int64  `json:"amount_cents"`
	AmountFormatted string `json:"amount_formatted"`
}

type OrderSummary struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
}

// SeriesPoint is one calendar day of the trailing revenue series. Days
// without paid orders are present with zeros.
type SeriesPoint struct {
	Date         string `json:"date"` // YYYY-MM-DD
	RevenueCents int64  `json:"revenue_cents"`
	Orders       int64  `json:"orders"`
}

type LeaderboardEntry struct {
	SupplierID       uint   `json:"supplier_id"`
	SupplierName     string `json:"supplier_name"`
	RevenueCents     int64  `json:"revenue_cents"`
	RevenueFormatted string `json:"revenue_formatted"`
	Orders           int64  `json:"orders"`
}

// ActivityEvent is one item of the merged recent-activity feed.
type ActivityEvent struct {
	Type        string    `json:"type"` // supplier_joined | payout_requested
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DashboardSummary is the admin dashboard payload.
type DashboardSummary struct {
	Suppliers       SupplierSummary      `json:"suppliers"`
	Revenue         RevenueSummary       `json:"revenue"`
	PendingPayouts  PendingPayoutSummary `json:"pending_payouts"`
	Orders          OrderSummary         `json:"orders"`
	RevenueSeries   []SeriesPoint        `json:"revenue_series"`
	TopSuppliers    []LeaderboardEntry   `json:"top_suppliers"`
	RecentActivity  []ActivityEvent      `json:"recent_activity"`
	StatusBreakdown []StatusCount        `json:"status_breakdown"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// MetricsService rolls the store up into the dashboard summary. The reference
// instant is an explicit parameter so periods are deterministic under test.
type MetricsService struct {
	suppliers SupplierMetrics
	orders    OrderMetrics
	payouts   PayoutMetrics
	currency  string
}

func NewMetricsService(suppliers SupplierMetrics, orders OrderMetrics, payouts PayoutMetrics, currency string) *MetricsService {
	return &MetricsService{suppliers: suppliers, orders: orders, payouts: payouts, currency: currency}
}

// DashboardSummary computes the full admin rollup relative to now.
func (s *MetricsService) DashboardSummary(now time.Time) (*DashboardSummary, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	nextMonthStart := monthStart.AddDate(0, 1, 0)

	out := &DashboardSummary{GeneratedAt: now}

	// Suppliers.
	total, active, err := s.suppliers.CountSuppliers()
	if err != nil {
		return nil, err
	}
	thisMonth, err := s.suppliers.CountSuppliersJoined(monthStart, nextMonthStart)
	if err != nil {
		return nil, err
	}
	lastMonth, err := s.suppliers.CountSuppliersJoined(lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	out.Suppliers = SupplierSummary{
		Total:        total,
		Active:       active,
		NewThisMonth: thisMonth,
		GrowthPct:    GrowthPercent(thisMonth, lastMonth),
	}

	// Revenue.
	totalRevenue, err := s.orders.SumPaidRevenue(time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	monthRevenue, err := s.orders.SumPaidRevenue(monthStart, nextMonthStart)
	if err != nil {
		return nil, err
	}
	lastMonthRevenue, err := s.orders.SumPaidRevenue(lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	out.Revenue = RevenueSummary{
		TotalCents:     totalRevenue,
		TotalFormatted: money.Format(s.currency, totalRevenue),
		MonthCents:     monthRevenue,
		MonthFormatted: money.Format(s.currency, monthRevenue),
		GrowthPct:      GrowthPercent(monthRevenue, lastMonthRevenue),
	}

	// Pending payouts.
	pendingCount, pendingAmount, err := s.payouts.PendingStats()
	if err != nil {
		return nil, err
	}
	out.PendingPayouts = PendingPayoutSummary{
		Count:           pendingCount,
		AmountCents:     pendingAmount,
		AmountFormatted: money.Format(s.currency, pendingAmount),
	}

	// Orders.
	ordersTotal, ordersPending, ordersCompleted, err := s.orders.Counts()
	if err != nil {
		return nil, err
	}
	out.Orders = OrderSummary{Total: ordersTotal, Pending: ordersPending, Completed: ordersCompleted}

	// Revenue series.
	series, err := s.revenueSeries(now)
	if err != nil {
		return nil, err
	}
	out.RevenueSeries = series

	// Leaderboard.
	rows, err := s.orders.TopSuppliersByRevenue(monthStart, nextMonthStart, leaderboardSize)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out.TopSuppliers = append(out.TopSuppliers, LeaderboardEntry{
			SupplierID:       row.SupplierID,
			SupplierName:     row.SupplierName,
			RevenueCents:     row.AmountCents,
			RevenueFormatted: money.Format(s.currency, row.AmountCents),
			Orders:           row.Orders,
		})
	}

	// Activity feed.
	activity, err := s.recentActivity()
	if err != nil {
		return nil, err
	}
	out.RecentActivity = activity

	// Status breakdown.
	statusRows, err := s.orders.CountByStatus()
	if err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		out.StatusBreakdown = append(out.StatusBreakdown, StatusCount{
			Status: capitalize(row.Status),
			Count:  row.Count,
		})
	}

	return out, nil
}

// revenueSeries builds the trailing window with one point per calendar day,
// zero-filling days the store has no rows for. The result always has exactly
// seriesWindowDays points, oldest first.
func (s *MetricsService) revenueSeries(now time.Time) ([]SeriesPoint, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(seriesWindowDays - 1))
	rows, err := s.orders.DailyPaidRevenue(start)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]repository.DailyRevenueRow, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}
	points := make([]SeriesPoint, 0, seriesWindowDays)
	for i := 0; i < seriesWindowDays; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		p := SeriesPoint{Date: date}
		if row, ok := byDate[date]; ok {
			p.RevenueCents = row.AmountCents
			p.Orders = row.Orders
		}
		points = append(points, p)
	}
	return points, nil
}

// recentActivity merges the latest supplier signups and payout requests,
// newest first, truncated to ten entries.
func (s *MetricsService) recentActivity() ([]ActivityEvent, error) {
	suppliers, err := s.suppliers.LatestSuppliers(3)
	if err != nil {
		return nil, err
	}
	payouts, err := s.payouts.LatestPayouts(3)
	if err != nil {
		return nil, err
	}
	events := make([]ActivityEvent, 0, len(suppliers)+len(payouts))
	for _, u := range suppliers {
		name := u.BusinessName
		if name == "" {
			name = u.Name
		}
		events = append(events, ActivityEvent{
			Type:        "supplier_joined",
			Description: name + " joined as a supplier",
			At:          u.CreatedAt,
		})
	}
	for _, p := range payouts {
		name := p.Supplier.BusinessName
		if name == "" {
			name = p.Supplier.Name
		}
		events = append(events, ActivityEvent{
			Type:        "payout_requested",
			Description: name + " requested a payout of " + money.Format(s.currency, p.AmountCents),
			At:          p.RequestedAt,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})
	if len(events) > 10 {
		events = events[:10]
	}
	return events, nil
}

// GrowthPercent is the month-over-month growth of cur against prev, rounded
// to two decimals. Zero when prev is zero: a flat baseline reads as no growth
// rather than a division error.
func GrowthPercent(cur, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	pct := float64(cur-prev) / float64(prev) * 100
	return math.Round(pct*100) / 100
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
