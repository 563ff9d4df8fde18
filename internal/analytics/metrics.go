package analytics

import (
	"math"
	"sort"
	"time"

	"networth-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// Every metric here is pure and returns 0 (or an empty value) when the series is
// too short or a denominator is not usable. Callers rely on that to render a
// dashboard for any amount of data.

const (
	hoursPerDay  = 24
	daysPerMonth = 30.44
	daysPerYear  = 365.25

	optimisticFactor  = 1.2
	pessimisticFactor = 0.8
)

// Compute derives the full analytics record from a date-ascending series.
func Compute(series []models.SeriesPoint, now time.Time) models.AnalyticsResult {
	if len(series) == 0 {
		return models.EmptyAnalytics()
	}

	values := Values(series)
	total := TotalWealth(series)
	savings := MonthlyAvgSavings(series)
	lastChange, lastChangePercent := LastMonthChange(series)

	return models.AnalyticsResult{
		TotalWealth:            total,
		MonthlyAvgSavings:      savings,
		CAGRTotal:              CAGRTotal(series),
		CAGRYoY:                CAGRTrailingYear(series, now),
		Volatility:             Volatility(values),
		VolatilityAnnualized:   AnnualizedVolatility(values),
		MaxDrawdown:            MaxDrawdown(values),
		Runway:                 Runway(total, savings),
		RunwayReal:             RunwayReal(total, savings),
		AbsoluteChange:         AbsoluteChange(series),
		LastMonthChange:        lastChange,
		LastMonthChangePercent: lastChangePercent,
		DebtRatio:              DebtRatio(series),
		CategoryBreakdown:      Breakdown(series),
		MonthlyHeatmap:         MonthlyHeatmap(series),
		Projection:             Project(total, savings, models.ProjectionMonths),
	}
}

// Values returns the snapshot totals in series order.
func Values(series []models.SeriesPoint) []float64 {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.TotalValue
	}
	return values
}

// TotalWealth is the total of the latest snapshot.
func TotalWealth(series []models.SeriesPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].TotalValue
}

// MonthlyAvgSavings is the average change per month between the first and the
// last snapshot, a month being 30.44 days.
func MonthlyAvgSavings(series []models.SeriesPoint) float64 {
	if len(series) < 2 {
		return 0
	}
	first, last := series[0], series[len(series)-1]
	months := daysBetween(first.Date, last.Date) / daysPerMonth
	if months == 0 {
		return 0
	}
	return (last.TotalValue - first.TotalValue) / months
}

// CAGR returns the compound annual growth rate in percent.
func CAGR(start, end, years float64) float64 {
	if start <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(end/start, 1/years) - 1) * 100
}

// CAGRTotal is the CAGR between the first and the last snapshot.
func CAGRTotal(series []models.SeriesPoint) float64 {
	if len(series) < 2 {
		return 0
	}
	first, last := series[0], series[len(series)-1]
	years := daysBetween(first.Date, last.Date) / daysPerYear
	return CAGR(first.TotalValue, last.TotalValue, years)
}

// CAGRTrailingYear is the CAGR over the snapshots dated within one year of now,
// always annualized over exactly one year.
func CAGRTrailingYear(series []models.SeriesPoint, now time.Time) float64 {
	cutoff := now.AddDate(-1, 0, 0)
	var window []models.SeriesPoint
	for _, p := range series {
		if !p.Date.Before(cutoff) {
			window = append(window, p)
		}
	}
	if len(window) < 2 {
		return 0
	}
	return CAGR(window[0].TotalValue, window[len(window)-1].TotalValue, 1)
}

// Volatility is the population standard deviation of the values.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stddev(values)
}

// AnnualizedVolatility is the standard deviation of period-over-period returns
// scaled by sqrt(12), in percent. Returns from a non-positive value are skipped.
func AnnualizedVolatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var returns []float64
	for i := 1; i < len(values); i++ {
		prev, curr := values[i-1], values[i]
		if prev > 0 {
			returns = append(returns, (curr-prev)/prev)
		}
	}
	if len(returns) < 2 {
		return 0
	}
	return stddev(returns) * math.Sqrt(12) * 100
}

// MaxDrawdown is the deepest fall from a running peak, in percent (never positive).
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst * 100
}

// Runway is the number of months of wealth at the current saving pace.
// Only a positive pace yields a runway.
func Runway(totalWealth, monthlyAvgSavings float64) float64 {
	if monthlyAvgSavings > 0 {
		return totalWealth / monthlyAvgSavings
	}
	return 0
}

// RunwayReal is like Runway but also defined for a negative pace, where it is the
// number of months the wealth lasts at the current burn rate.
func RunwayReal(totalWealth, monthlyAvgSavings float64) float64 {
	if monthlyAvgSavings != 0 {
		return totalWealth / math.Abs(monthlyAvgSavings)
	}
	return 0
}

// AbsoluteChange is the difference between the latest and the first snapshot.
func AbsoluteChange(series []models.SeriesPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].TotalValue - series[0].TotalValue
}

// LastMonthChange compares the two most recent snapshots by position.
func LastMonthChange(series []models.SeriesPoint) (change, percent float64) {
	if len(series) < 2 {
		return 0, 0
	}
	prev := series[len(series)-2].TotalValue
	curr := series[len(series)-1].TotalValue
	change = curr - prev
	return change, percentOf(change, prev)
}

// DebtRatio is the absolute value held in liability categories in the latest
// snapshot, as a percentage of total wealth.
func DebtRatio(series []models.SeriesPoint) float64 {
	total := TotalWealth(series)
	if total <= 0 {
		return 0
	}
	debt := decimal.Zero
	for _, e := range series[len(series)-1].Entries {
		if e.Item != nil && e.Item.Category.IsLiability() {
			debt = debt.Add(decimal.NewFromFloat(e.Value).Abs())
		}
	}
	return debt.InexactFloat64() / total * 100
}

// CategoryTotals sums entry values per item category. Entries whose item is
// gone are skipped.
func CategoryTotals(entries []models.ResolvedEntry) map[models.Category]float64 {
	sums := make(map[models.Category]decimal.Decimal)
	for _, e := range entries {
		if e.Item == nil {
			continue
		}
		sums[e.Item.Category] = sums[e.Item.Category].Add(decimal.NewFromFloat(e.Value))
	}
	totals := make(map[models.Category]float64, len(sums))
	for cat, sum := range sums {
		totals[cat] = sum.InexactFloat64()
	}
	return totals
}

// Breakdown groups the latest snapshot by category. Change is measured against
// the previous snapshot. Rows are ordered by value, largest first.
func Breakdown(series []models.SeriesPoint) []models.CategoryBreakdown {
	breakdown := []models.CategoryBreakdown{}
	if len(series) == 0 {
		return breakdown
	}
	total := TotalWealth(series)
	current := CategoryTotals(series[len(series)-1].Entries)
	var previous map[models.Category]float64
	if len(series) >= 2 {
		previous = CategoryTotals(series[len(series)-2].Entries)
	}

	for cat, value := range current {
		row := models.CategoryBreakdown{Category: cat, Value: value}
		if total != 0 {
			row.Percentage = value / total * 100
		}
		if previous != nil {
			row.Change = value - previous[cat]
		}
		breakdown = append(breakdown, row)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Value != breakdown[j].Value {
			return breakdown[i].Value > breakdown[j].Value
		}
		return breakdown[i].Category < breakdown[j].Category
	})
	return breakdown
}

// CategoryHistory returns the category totals of every snapshot in series order.
func CategoryHistory(series []models.SeriesPoint) []models.CategoryHistoryPoint {
	history := make([]models.CategoryHistoryPoint, 0, len(series))
	for _, p := range series {
		history = append(history, models.CategoryHistoryPoint{
			Date:       p.Date,
			Categories: CategoryTotals(p.Entries),
		})
	}
	return history
}

// MonthlyHeatmap buckets the series by calendar month and reports the change of
// each bucket against the previous one. When a month holds several snapshots the
// one latest in series order wins; the series is date-ascending and ties keep
// repository order.
func MonthlyHeatmap(series []models.SeriesPoint) []models.HeatmapCell {
	buckets := make(map[int]float64)
	for _, p := range series {
		d := p.Date.UTC()
		buckets[d.Year()*12+int(d.Month())-1] = p.TotalValue
	}
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	cells := []models.HeatmapCell{}
	for i := 1; i < len(keys); i++ {
		prev, curr := buckets[keys[i-1]], buckets[keys[i]]
		change := curr - prev
		cells = append(cells, models.HeatmapCell{
			Year:          keys[i] / 12,
			Month:         keys[i]%12 + 1,
			Change:        change,
			ChangePercent: percentOf(change, prev),
		})
	}
	return cells
}

// Project extrapolates the current wealth by months at the given saving pace.
func Project(currentValue, monthlyAvgSavings float64, months int) models.Projection {
	p := models.Projection{Months: months}
	if currentValue <= 0 {
		return p
	}
	base := currentValue + monthlyAvgSavings*float64(months)
	p.Optimistic = base * optimisticFactor
	p.Realistic = base
	p.Pessimistic = base * pessimisticFactor
	return p
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay
}

// percentOf expresses change relative to the magnitude of base.
func percentOf(change, base float64) float64 {
	if base == 0 {
		return 0
	}
	return change / math.Abs(base) * 100
}

func stddev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}
