package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leolan92/Parsing-house-price/models"
	"github.com/leolan92/Parsing-house-price/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate builds the report for the target type from the per-address
// averages and map markers read from the store. total is the number of
// stored listings of all types.
func (s *InsightService) Generate(total int, targetType string, aggregates []models.CommunityAggregate, markers []models.MapMarker) *models.InsightReport {
	report := &models.InsightReport{
		TotalListings: total,
		TargetType:    targetType,
	}

	for _, m := range markers {
		if m.Located() {
			report.LocatedCommunities++
		}
	}

	communities := make([]models.CommunityAggregate, len(aggregates))
	copy(communities, aggregates)
	sort.SliceStable(communities, func(i, j int) bool {
		a, b := communities[i].AvgUnitPrice, communities[j].AvgUnitPrice
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a > *b
	})
	report.Communities = communities

	// Price stats (only communities with an average)
	var sum decimal.Decimal
	priced := 0
	for i := range communities {
		c := &communities[i]
		if c.AvgUnitPrice == nil {
			continue
		}
		price := *c.AvgUnitPrice
		if priced == 0 || price > report.MaxPrice {
			report.MaxPrice = price
			report.MostExpensive = c
		}
		if priced == 0 || price < report.MinPrice {
			report.MinPrice = price
			report.Cheapest = c
		}
		sum = sum.Add(decimal.NewFromFloat(price))
		priced++
	}
	if priced > 0 {
		report.AveragePrice = round2(sum.Div(decimal.NewFromInt(int64(priced))))
		report.MinPrice = round2(decimal.NewFromFloat(report.MinPrice))
		report.MaxPrice = round2(decimal.NewFromFloat(report.MaxPrice))
	}

	s.logger.Debug("[insights] %d communities of type %s, %d with coordinates",
		len(communities), targetType, report.LocatedCommunities)
	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	s.Fprint(os.Stdout, r)
}

// Fprint writes the console report to w.
func (s *InsightService) Fprint(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 HOUSE PRICE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  共%d項物件\n", r.TotalListings)
	fmt.Fprintf(w, "  Target type            : \033[1m%s\033[0m\n", r.TargetType)
	fmt.Fprintf(w, "  Communities            : \033[1m%d\033[0m\n", len(r.Communities))
	fmt.Fprintf(w, "  With coordinates       : \033[1m%d\033[0m\n", r.LocatedCommunities)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Unit Price Statistics (萬/坪)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.MostExpensive != nil {
		fmt.Fprintf(w, "  Average of communities : \033[1;32m%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum                : \033[1;32m%.2f\033[0m  %s\n", r.MinPrice, truncate(r.Cheapest.Address, 28))
		fmt.Fprintf(w, "  Maximum                : \033[1;31m%.2f\033[0m  %s\n", r.MaxPrice, truncate(r.MostExpensive.Address, 28))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	// Communities by average unit price
	fmt.Fprintf(w, "\033[1;33m  Ave. unitprice by Community\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Communities) == 0 {
		fmt.Fprintf(w, "  No communities of type %s\n", r.TargetType)
	} else {
		for i, c := range r.Communities {
			fmt.Fprintf(w, "  \033[1m%2d.\033[0m %s  %s\n", i+1, padRight(truncate(c.Address, 36), 38), formatPrice(c.AvgUnitPrice))
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func formatPrice(v *float64) string {
	if v == nil {
		return models.NotAvailable
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
