package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"networth-tracker/internal/models"
)

// GenerateAnalyticsCSV writes the analytics summary and category breakdown
func GenerateAnalyticsCSV(result models.AnalyticsResult, currency string, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)

	rows := [][]string{
		{"Net Worth Report"},
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{"Currency", currency},
		{},
		{"SUMMARY"},
		{"Total Wealth", fmt.Sprintf("%.2f", result.TotalWealth)},
		{"Monthly Avg Savings", fmt.Sprintf("%.2f", result.MonthlyAvgSavings)},
		{"CAGR Total %", fmt.Sprintf("%.2f", result.CAGRTotal)},
		{"CAGR Last 12 Months %", fmt.Sprintf("%.2f", result.CAGRYoY)},
		{"Volatility", fmt.Sprintf("%.2f", result.Volatility)},
		{"Annualized Volatility %", fmt.Sprintf("%.2f", result.VolatilityAnnualized)},
		{"Max Drawdown %", fmt.Sprintf("%.2f", result.MaxDrawdown)},
		{"Runway (months)", fmt.Sprintf("%.1f", result.Runway)},
		{"Runway Real (months)", fmt.Sprintf("%.1f", result.RunwayReal)},
		{"Absolute Change", fmt.Sprintf("%.2f", result.AbsoluteChange)},
		{"Last Change", fmt.Sprintf("%.2f", result.LastMonthChange)},
		{"Last Change %", fmt.Sprintf("%.2f", result.LastMonthChangePercent)},
		{"Debt Ratio %", fmt.Sprintf("%.2f", result.DebtRatio)},
		{},
		{"CATEGORY BREAKDOWN"},
		{"Category", "Value", "Percentage", "Change"},
	}
	for _, b := range result.CategoryBreakdown {
		rows = append(rows, []string{
			string(b.Category),
			fmt.Sprintf("%.2f", b.Value),
			fmt.Sprintf("%.1f%%", b.Percentage),
			fmt.Sprintf("%.2f", b.Change),
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"PROJECTION", strconv.Itoa(result.Projection.Months) + " months"},
		[]string{"Optimistic", fmt.Sprintf("%.2f", result.Projection.Optimistic)},
		[]string{"Realistic", fmt.Sprintf("%.2f", result.Projection.Realistic)},
		[]string{"Pessimistic", fmt.Sprintf("%.2f", result.Projection.Pessimistic)},
	)

	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write analytics report: %w", err)
	}
	return nil
}

// GenerateCategoryHistoryCSV writes one row per snapshot and one column per category
func GenerateCategoryHistoryCSV(history []models.CategoryHistoryPoint, writer io.Writer) error {
	if len(history) == 0 {
		return fmt.Errorf("no snapshots to export")
	}

	seen := make(map[models.Category]bool)
	var categories []models.Category
	for _, point := range history {
		for cat := range point.Categories {
			if !seen[cat] {
				seen[cat] = true
				categories = append(categories, cat)
			}
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	csvWriter := csv.NewWriter(writer)
	header := []string{"Date"}
	for _, cat := range categories {
		header = append(header, string(cat))
	}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, point := range history {
		row := []string{point.Date.Format("2006-01-02")}
		for _, cat := range categories {
			value, ok := point.Categories[cat]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", value))
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// GenerateHeatmapCSV writes the month-over-month changes
func GenerateHeatmapCSV(cells []models.HeatmapCell, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write([]string{"Month", "Change", "Change %"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, c := range cells {
		row := []string{
			fmt.Sprintf("%04d-%02d", c.Year, c.Month),
			fmt.Sprintf("%.2f", c.Change),
			fmt.Sprintf("%.2f", c.ChangePercent),
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
