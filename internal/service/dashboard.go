package service

import (
	"sort"
	"time"

	"greenhat/internal/models"
)

// OwnerStats backs the owner dashboard cards.
type OwnerStats struct {
	RevenueToday     int64 `json:"revenueToday"`
	RevenueThisMonth int64 `json:"revenueThisMonth"`
	ActiveSessions   int   `json:"activeSessions"`
	PendingPayments  int   `json:"pendingPayments"`
}

// StaffStats is the reduced view staff accounts get.
type StaffStats struct {
	RevenueToday    int64 `json:"revenueToday"`
	ActiveSessions  int   `json:"activeSessions"`
	PendingPayments int   `json:"pendingPayments"`
}

// BusinessRevenue is one bar of the super dashboard's per-business chart.
type BusinessRevenue struct {
	BusinessID int64  `json:"businessId"`
	Name       string `json:"name"`
	Total      int64  `json:"total"`
}

// SuperStats backs the platform dashboard. MonthlyGrowth compares this
// calendar month against the previous one, in percent.
type SuperStats struct {
	TotalRevenue       int64             `json:"totalRevenue"`
	TotalBusinesses    int               `json:"totalBusinesses"`
	ActiveSessions     int               `json:"activeSessions"`
	MonthlyGrowth      float64           `json:"monthlyGrowth"`
	RevenuePerBusiness []BusinessRevenue `json:"revenuePerBusiness"`
}

// OwnerStatsFrom recomputes the owner rollup from a snapshot. Sessions are
// re-tracked against now so the active count never trusts a stale tick.
func OwnerStatsFrom(snap models.Snapshot, now time.Time) OwnerStats {
	tracked, _ := RecomputeSessions(snap.Sessions, now)
	active, _ := CountSessions(tracked)
	result := Aggregate(snap.Payments, now)

	return OwnerStats{
		RevenueToday:     result.Totals.Today,
		RevenueThisMonth: result.Totals.Month,
		ActiveSessions:   active,
		PendingPayments:  countByStatus(snap.Payments, models.PaymentPending),
	}
}

// StaffStatsFrom recomputes the staff rollup from a snapshot.
func StaffStatsFrom(snap models.Snapshot, now time.Time) StaffStats {
	owner := OwnerStatsFrom(snap, now)
	return StaffStats{
		RevenueToday:    owner.RevenueToday,
		ActiveSessions:  owner.ActiveSessions,
		PendingPayments: owner.PendingPayments,
	}
}

// SuperStatsFrom recomputes the platform-wide rollup from a snapshot.
func SuperStatsFrom(snap models.Snapshot, now time.Time) SuperStats {
	tracked, _ := RecomputeSessions(snap.Sessions, now)
	active, _ := CountSessions(tracked)

	approved, _ := filterApproved(snap.Payments)

	var total int64
	perBusiness := make(map[int64]*BusinessRevenue)
	for _, b := range snap.Businesses {
		perBusiness[b.ID] = &BusinessRevenue{BusinessID: b.ID, Name: b.Name}
	}
	for _, ap := range approved {
		total += ap.amount
		if ap.payment.Business == nil {
			continue
		}
		entry, ok := perBusiness[ap.payment.Business.ID]
		if !ok {
			entry = &BusinessRevenue{BusinessID: ap.payment.Business.ID, Name: ap.payment.Business.Name}
			perBusiness[ap.payment.Business.ID] = entry
		}
		entry.Total += ap.amount
	}

	monthStart := StartOfMonth(now)
	prevStart := monthStart.AddDate(0, -1, 0)
	thisMonth, _ := SumRange(snap.Payments, monthStart, monthStart.AddDate(0, 1, 0))
	prevMonth, _ := SumRange(snap.Payments, prevStart, monthStart)

	revenue := make([]BusinessRevenue, 0, len(perBusiness))
	for _, entry := range perBusiness {
		revenue = append(revenue, *entry)
	}
	sortBusinessRevenue(revenue)

	return SuperStats{
		TotalRevenue:       total,
		TotalBusinesses:    len(snap.Businesses),
		ActiveSessions:     active,
		MonthlyGrowth:      growthPercent(prevMonth, thisMonth),
		RevenuePerBusiness: revenue,
	}
}

func countByStatus(payments []models.Payment, status string) int {
	n := 0
	for _, p := range payments {
		if p.Status == status {
			n++
		}
	}
	return n
}

// growthPercent treats an empty previous month as 100% growth when anything
// was earned this month, 0% otherwise.
func growthPercent(previous, current int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

func sortBusinessRevenue(revenue []BusinessRevenue) {
	sort.Slice(revenue, func(i, j int) bool {
		if revenue[i].Total != revenue[j].Total {
			return revenue[i].Total > revenue[j].Total
		}
		return revenue[i].Name < revenue[j].Name
	})
}
