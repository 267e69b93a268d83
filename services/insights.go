package services

import (
	"fmt"
	"sort"
	"strings"

	"house-price-pipeline/models"
	"house-price-pipeline/utils"
)

// InsightService summarises the cleaned dataset before training, the same
// sanity pass an analyst would run over the scraped sheet.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByArea: make(map[string]int),
		ListingsByType: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var prices []float64
	for _, l := range listings {
		if l.Price > 0 {
			prices = append(prices, l.Price)
			if report.MostExpensive == nil || l.Price > report.MostExpensive.Price {
				report.MostExpensive = l
			}
		}
		if l.Location != "" {
			report.ListingsByArea[l.Location]++
		}
		if l.PropertyType != "" {
			report.ListingsByType[l.PropertyType]++
		}
	}

	if len(prices) > 0 {
		report.MinPrice = prices[0]
		report.MaxPrice = prices[0]
		var total float64
		for _, p := range prices {
			total += p
			if p < report.MinPrice {
				report.MinPrice = p
			}
			if p > report.MaxPrice {
				report.MaxPrice = p
			}
		}
		report.AveragePrice = round2(total / float64(len(prices)))
		report.MedianPrice = round2(median(prices))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 PROPERTY DATASET INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings in dataset : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Println()

	// Price Stats
	fmt.Printf("\033[1;33m  Price Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m£%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Median price  : \033[1;32m£%.2f\033[0m\n", r.MedianPrice)
		fmt.Printf("  Minimum price : \033[1;32m£%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m£%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s (%s)\n", truncate(r.MostExpensive.URL, 50), r.MostExpensive.PropertyType)
		fmt.Printf("  Location : %s\n", r.MostExpensive.Location)
		fmt.Printf("  Price    : \033[1;31m£%.2f\033[0m\n", r.MostExpensive.Price)
		fmt.Println()
	}

	printCounts("Listings by Area", r.ListingsByArea, thin)
	printCounts("Listings by Property Type", r.ListingsByType, thin)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(title string, counts map[string]int, thin string) {
	fmt.Printf("\033[1;33m  %s\033[0m\n", title)
	fmt.Printf("  %s\n", thin)
	if len(counts) == 0 {
		fmt.Printf("  No data\n")
		return
	}

	type kv struct {
		key   string
		count int
	}
	var sorted []kv
	for k, cnt := range counts {
		if k != "" {
			sorted = append(sorted, kv{k, cnt})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].count > sorted[j].count
	})
	for _, e := range sorted {
		bar := strings.Repeat("█", e.count)
		fmt.Printf("  %-30s %s (%d)\n", truncate(e.key, 28), bar, e.count)
	}
	fmt.Println()
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
