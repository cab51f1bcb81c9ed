package service

import (
	"sort"
	"strconv"
	"time"

	"greenhat/internal/models"
)

// All revenue sums are int64 in whole CFA francs. The aggregator never
// accumulates floats: a fractional or unparseable amount is malformed and
// excluded with a warning.

const (
	dayBucketLayout   = "2006-01-02"
	monthBucketLayout = "2006-01"

	// Ranges longer than this are charted per month instead of per day.
	monthlySeriesThresholdDays = 92
)

// Totals are the four dashboard windows, all relative to a single now.
type Totals struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
	Year  int64 `json:"year"`
}

// Point is one time-series bucket, sorted by Date (never by label).
type Point struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Total int64     `json:"total"`
}

// Result is the full aggregation output for a dashboard refresh.
type Result struct {
	Totals     Totals           `json:"totals"`
	Series     []Point          `json:"series"`
	PlanTotals map[string]int64 `json:"plan_totals"`
	Warnings   []Warning        `json:"-"`
}

type approvedPayment struct {
	payment models.Payment
	amount  int64
	created time.Time
}

// filterApproved is the single place the approved-status filter and the
// amount/created_at parsing happen, so no caller can double-filter or
// double-report a malformed record.
func filterApproved(payments []models.Payment) ([]approvedPayment, []Warning) {
	var (
		out      []approvedPayment
		warnings []Warning
	)
	for _, p := range payments {
		if p.Status != models.PaymentApproved {
			continue
		}
		amount, err := strconv.ParseInt(p.Amount.String(), 10, 64)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnPaymentAmount, ID: p.ID, Detail: "unparseable amount " + strconv.Quote(p.Amount.String())})
			continue
		}
		created, err := parsePortalTime(p.CreatedAt)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnPaymentCreatedAt, ID: p.ID, Detail: err.Error()})
			continue
		}
		out = append(out, approvedPayment{payment: p, amount: amount, created: created})
	}
	return out, warnings
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek is midnight of the most recent Sunday. The week begins on
// Sunday (day 0), matching the portal dashboards.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}

// StartOfMonth is midnight on the first of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Aggregate buckets approved payments into the four dashboard windows, a
// chronological daily series and per-plan totals, all relative to now.
// Single pass: each payment is parsed once and the status filter applies
// exactly once. Calendar comparisons use now's location.
func Aggregate(payments []models.Payment, now time.Time) Result {
	approved, warnings := filterApproved(payments)

	weekStart := startOfWeek(now)
	buckets := make(map[string]int64)
	planTotals := make(map[string]int64)

	var totals Totals
	for _, ap := range approved {
		cr := ap.created.In(now.Location())

		if cr.Year() == now.Year() {
			totals.Year += ap.amount
			if cr.Month() == now.Month() {
				totals.Month += ap.amount
				if cr.Day() == now.Day() {
					totals.Today += ap.amount
				}
			}
		}
		if !cr.Before(weekStart) {
			totals.Week += ap.amount
		}

		buckets[cr.Format(dayBucketLayout)] += ap.amount
		if ap.payment.Plan != "" {
			planTotals[ap.payment.Plan] += ap.amount
		}
	}

	return Result{
		Totals:     totals,
		Series:     sortedSeries(buckets, dayBucketLayout, now.Location()),
		PlanTotals: planTotals,
		Warnings:   warnings,
	}
}

// SumRange totals approved payments created in [from, to). The end boundary
// is exclusive by contract: "through January" means to=Feb 1.
func SumRange(payments []models.Payment, from, to time.Time) (int64, []Warning) {
	approved, warnings := filterApproved(payments)

	var total int64
	for _, ap := range approved {
		if inRange(ap.created, from, to) {
			total += ap.amount
		}
	}
	return total, warnings
}

// SeriesRange buckets approved payments created in [from, to) by calendar
// day, or by month when the range exceeds 92 days. Points come back in
// chronological order.
func SeriesRange(payments []models.Payment, from, to time.Time) ([]Point, []Warning) {
	approved, warnings := filterApproved(payments)

	layout := dayBucketLayout
	if to.Sub(from) > monthlySeriesThresholdDays*24*time.Hour {
		layout = monthBucketLayout
	}

	buckets := make(map[string]int64)
	for _, ap := range approved {
		if !inRange(ap.created, from, to) {
			continue
		}
		buckets[ap.created.In(from.Location()).Format(layout)] += ap.amount
	}
	return sortedSeries(buckets, layout, from.Location()), warnings
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func sortedSeries(buckets map[string]int64, layout string, loc *time.Location) []Point {
	points := make([]Point, 0, len(buckets))
	for label, total := range buckets {
		date, err := time.ParseInLocation(layout, label, loc)
		if err != nil {
			continue
		}
		points = append(points, Point{Date: date, Label: label, Total: total})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
