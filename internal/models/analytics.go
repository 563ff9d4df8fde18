package models

import "time"

// ProjectionMonths is the forward projection horizon.
const ProjectionMonths = 12

// AnalyticsResult holds every metric derived from a user's snapshot series.
type AnalyticsResult struct {
	TotalWealth            float64             `json:"totalWealth"`
	MonthlyAvgSavings      float64             `json:"monthlyAvgSavings"`
	CAGRTotal              float64             `json:"cagrTotal"`
	CAGRYoY                float64             `json:"cagrYoY"`
	Volatility             float64             `json:"volatility"`
	VolatilityAnnualized   float64             `json:"volatilityAnnualized"`
	MaxDrawdown            float64             `json:"maxDrawdown"`
	Runway                 float64             `json:"runway"`
	RunwayReal             float64             `json:"runwayReal"`
	AbsoluteChange         float64             `json:"absoluteChange"`
	LastMonthChange        float64             `json:"lastMonthChange"`
	LastMonthChangePercent float64             `json:"lastMonthChangePercent"`
	DebtRatio              float64             `json:"debtRatio"`
	CategoryBreakdown      []CategoryBreakdown `json:"categoryBreakdown"`
	MonthlyHeatmap         []HeatmapCell       `json:"monthlyHeatmapData"`
	Projection             Projection          `json:"projection"`
}

// CategoryBreakdown is one category's share of the latest snapshot.
type CategoryBreakdown struct {
	Category   Category `json:"category"`
	Value      float64  `json:"value"`
	Percentage float64  `json:"percentage"`
	Change     float64  `json:"change"`
}

// CategoryHistoryPoint is the per-category totals of a single snapshot.
type CategoryHistoryPoint struct {
	Date       time.Time            `json:"date"`
	Categories map[Category]float64 `json:"categories"`
}

// HeatmapCell is the change of a month against the previous month bucket.
type HeatmapCell struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Projection is the wealth expected after Months months in three scenarios.
type Projection struct {
	Optimistic  float64 `json:"optimistic"`
	Realistic   float64 `json:"realistic"`
	Pessimistic float64 `json:"pessimistic"`
	Months      int     `json:"months"`
}

// EmptyAnalytics returns the result reported for a user with no snapshots.
func EmptyAnalytics() AnalyticsResult {
	return AnalyticsResult{
		CategoryBreakdown: []CategoryBreakdown{},
		MonthlyHeatmap:    []HeatmapCell{},
		Projection:        Projection{Months: ProjectionMonths},
	}
}
