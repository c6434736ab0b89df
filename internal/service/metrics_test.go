package service

import (
	"testing"
	"time"

	"pharmart/internal/models"
	"pharmart/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSupplierMetrics struct {
	total, verified        int64
	joinedThis, joinedLast int64
	latest                 []models.User
}

func (f *fakeSupplierMetrics) CountSuppliers() (int64, int64, error) {
	return f.total, f.verified, nil
}

func (f *fakeSupplierMetrics) CountSuppliersJoined(from, to time.Time) (int64, error) {
	// The aggregator asks for [monthStart, nextMonthStart) then the month
	// before; only the current month's window ends after now.
	if to.After(time.Now()) {
		return f.joinedThis, nil
	}
	return f.joinedLast, nil
}

func (f *fakeSupplierMetrics) LatestSuppliers(limit int) ([]models.User, error) {
	if len(f.latest) > limit {
		return f.latest[:limit], nil
	}
	return f.latest, nil
}

type fakeOrderMetrics struct {
	totalRevenue, monthRevenue, lastMonthRevenue int64
	daily                                        []repository.DailyRevenueRow
	top                                          []repository.SupplierRevenueRow
	statuses                                     []repository.StatusCountRow
}

func (f *fakeOrderMetrics) Counts() (int64, int64, int64, error) { return 12, 3, 8, nil }

func (f *fakeOrderMetrics) SumPaidRevenue(from, to time.Time) (int64, error) {
	switch {
	case from.IsZero() && to.IsZero():
		return f.totalRevenue, nil
	case to.After(time.Now()):
		return f.monthRevenue, nil
	default:
		return f.lastMonthRevenue, nil
	}
}

func (f *fakeOrderMetrics) DailyPaidRevenue(since time.Time) ([]repository.DailyRevenueRow, error) {
	return f.daily, nil
}

func (f *fakeOrderMetrics) TopSuppliersByRevenue(from, to time.Time, limit int) ([]repository.SupplierRevenueRow, error) {
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f *fakeOrderMetrics) CountByStatus() ([]repository.StatusCountRow, error) {
	return f.statuses, nil
}

type fakePayoutMetrics struct {
	pendingCount, pendingAmount int64
	latest                      []models.Payout
}

func (f *fakePayoutMetrics) PendingStats() (int64, int64, error) {
	return f.pendingCount, f.pendingAmount, nil
}

func (f *fakePayoutMetrics) LatestPayouts(limit int) ([]models.Payout, error) {
	if len(f.latest) > limit {
		return f.latest[:limit], nil
	}
	return f.latest, nil
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		name      string
		cur, prev int64
		want      float64
	}{
		{"zero baseline reads as flat", 500, 0, 0},
		{"both zero", 0, 0, 0},
		{"doubling", 200, 100, 100},
		{"decline", 50, 100, -50},
		{"rounded to two decimals", 100, 300, -66.67},
		{"fractional growth", 1001, 1000, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GrowthPercent(tt.cur, tt.prev))
		})
	}
}

func TestRevenueSeriesZeroFilled(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	orders := &fakeOrderMetrics{
		daily: []repository.DailyRevenueRow{
			{Date: "2026-03-10", AmountCents: 500_00, Orders: 2},
			{Date: "2026-03-15", AmountCents: 120_00, Orders: 1},
		},
	}
	svc := NewMetricsService(&fakeSupplierMetrics{}, orders, &fakePayoutMetrics{}, "KES")

	points, err := svc.revenueSeries(now)
	require.NoError(t, err)
	require.Len(t, points, 30)

	// Oldest first, one calendar day per point, no gaps.
	assert.Equal(t, "2026-02-14", points[0].Date)
	assert.Equal(t, "2026-03-15", points[29].Date)
	for i := 1; i < len(points); i++ {
		prev, _ := time.Parse("2006-01-02", points[i-1].Date)
		cur, _ := time.Parse("2006-01-02", points[i].Date)
		assert.Equal(t, prev.AddDate(0, 0, 1), cur)
	}

	var withRevenue int
	for _, p := range points {
		if p.RevenueCents != 0 {
			withRevenue++
		}
		if p.Date == "2026-03-10" {
			assert.Equal(t, int64(500_00), p.RevenueCents)
			assert.Equal(t, int64(2), p.Orders)
		}
	}
	assert.Equal(t, 2, withRevenue, "days without paid orders stay at zero")
}

func TestRecentActivityMergedNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	suppliers := &fakeSupplierMetrics{
		latest: []models.User{
			{Name: "Alpha Chemist", CreatedAt: base.Add(5 * time.Hour)},
			{BusinessName: "Beta Pharma", CreatedAt: base.Add(1 * time.Hour)},
		},
	}
	payouts := &fakePayoutMetrics{
		latest: []models.Payout{
			{AmountCents: 75_00, RequestedAt: base.Add(3 * time.Hour), Supplier: models.User{BusinessName: "Beta Pharma"}},
		},
	}
	svc := NewMetricsService(suppliers, &fakeOrderMetrics{}, payouts, "KES")

	events, err := svc.recentActivity()
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "supplier_joined", events[0].Type)
	assert.Contains(t, events[0].Description, "Alpha Chemist")
	assert.Equal(t, "payout_requested", events[1].Type)
	assert.Contains(t, events[1].Description, "KES 75.00")
	assert.Equal(t, "supplier_joined", events[2].Type)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].At.After(events[i-1].At), "feed must be newest first")
	}
}

func TestDashboardSummary(t *testing.T) {
	now := time.Now()
	suppliers := &fakeSupplierMetrics{total: 40, verified: 25, joinedThis: 6, joinedLast: 4}
	orders := &fakeOrderMetrics{
		totalRevenue:     1_234_56,
		monthRevenue:     300_00,
		lastMonthRevenue: 200_00,
		top: []repository.SupplierRevenueRow{
			{SupplierID: 1, SupplierName: "Alpha Chemist", AmountCents: 150_00, Orders: 4},
			{SupplierID: 2, SupplierName: "Beta Pharma", AmountCents: 90_00, Orders: 2},
			{SupplierID: 3, SupplierName: "Gamma Labs", AmountCents: 80_00, Orders: 3},
			{SupplierID: 4, SupplierName: "Delta Meds", AmountCents: 70_00, Orders: 1},
			{SupplierID: 5, SupplierName: "Epsilon Rx", AmountCents: 60_00, Orders: 1},
			{SupplierID: 6, SupplierName: "Zeta Care", AmountCents: 50_00, Orders: 1},
		},
		statuses: []repository.StatusCountRow{
			{Status: "processing", Count: 3},
			{Status: "Delivered", Count: 8},
		},
	}
	payouts := &fakePayoutMetrics{pendingCount: 2, pendingAmount: 500_00}
	svc := NewMetricsService(suppliers, orders, payouts, "KES")

	out, err := svc.DashboardSummary(now)
	require.NoError(t, err)

	assert.Equal(t, int64(40), out.Suppliers.Total)
	assert.Equal(t, int64(25), out.Suppliers.Active)
	assert.Equal(t, int64(6), out.Suppliers.NewThisMonth)
	assert.Equal(t, float64(50), out.Suppliers.GrowthPct)

	assert.Equal(t, int64(1_234_56), out.Revenue.TotalCents)
	assert.Equal(t, "KES 1,234.56", out.Revenue.TotalFormatted)
	assert.Equal(t, float64(50), out.Revenue.GrowthPct)

	assert.Equal(t, int64(2), out.PendingPayouts.Count)
	assert.Equal(t, "KES 500.00", out.PendingPayouts.AmountFormatted)

	assert.Equal(t, int64(12), out.Orders.Total)
	assert.Equal(t, int64(3), out.Orders.Pending)
	assert.Equal(t, int64(8), out.Orders.Completed)

	assert.Len(t, out.RevenueSeries, 30)
	assert.LessOrEqual(t, len(out.TopSuppliers), 5)
	assert.Equal(t, "Alpha Chemist", out.TopSuppliers[0].SupplierName)
	assert.Equal(t, "KES 150.00", out.TopSuppliers[0].RevenueFormatted)

	// Statuses come back capitalized regardless of how they are stored.
	require.Len(t, out.StatusBreakdown, 2)
	assert.Equal(t, "Processing", out.StatusBreakdown[0].Status)
	assert.Equal(t, "Delivered", out.StatusBreakdown[1].Status)

	assert.Equal(t, now, out.GeneratedAt)
}
