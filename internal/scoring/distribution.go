package scoring

import (
	"fmt"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// scoreDistribution rates holder concentration. Bands are mutually
// exclusive per metric; only the first matching band deducts.
func scoreDistribution(data *domain.TokenVettingData) (domain.ComponentScore, []string) {
	score := 100.0
	flags := []string{}
	var missing []string

	var count *int64
	if data.Holders != nil {
		count = data.Holders.Count
	}
	if count == nil && data.Trading != nil {
		count = data.Trading.HolderCount
	}

	if data.Holders == nil || len(data.Holders.TopHolders) == 0 {
		score -= 5
		flags = append(flags, "holder distribution data unavailable")
		missing = append(missing, "holder_distribution")
		if count == nil {
			score -= 15
			flags = append(flags, "holder count also unknown")
			missing = append(missing, "holder_count")
		}
	} else {
		top := data.Holders.TopHolders
		top1 := top[0].Percentage
		switch {
		case top1 > 20:
			score -= 40
			flags = append(flags, fmt.Sprintf("top holder controls %.1f%% of supply", top1))
		case top1 > 15:
			score -= 25
			flags = append(flags, fmt.Sprintf("top holder holds %.1f%% of supply", top1))
		case top1 > 10:
			score -= 15
			flags = append(flags, fmt.Sprintf("top holder holds %.1f%% of supply", top1))
		case top1 < 5:
			flags = append(flags, "top holder below 5%, healthy distribution")
		}

		top5 := sumShares(top, 5)
		switch {
		case top5 > 60:
			score -= 30
			flags = append(flags, fmt.Sprintf("top 5 holders control %.1f%% of supply", top5))
		case top5 > 45:
			score -= 20
			flags = append(flags, fmt.Sprintf("top 5 holders hold %.1f%% of supply", top5))
		case top5 > 30:
			score -= 10
			flags = append(flags, fmt.Sprintf("top 5 holders hold %.1f%% of supply", top5))
		}

		top10 := sumShares(top, 10)
		switch {
		case top10 > 80:
			score -= 25
			flags = append(flags, fmt.Sprintf("top 10 holders control %.1f%% of supply", top10))
		case top10 > 65:
			score -= 15
			flags = append(flags, fmt.Sprintf("top 10 holders hold %.1f%% of supply", top10))
		}
	}

	if count != nil {
		switch {
		case data.TokenAgeDays >= 30 && *count < 100:
			score -= 20
			flags = append(flags, fmt.Sprintf("only %d holders after %.0f days", *count, data.TokenAgeDays))
		case data.TokenAgeDays >= 60 && *count < 250:
			score -= 10
			flags = append(flags, fmt.Sprintf("holder growth stalled at %d after %.0f days", *count, data.TokenAgeDays))
		}
	}

	return domain.ComponentScore{Score: clampScore(score), Flags: flags}, missing
}

func sumShares(holders []domain.TopHolder, n int) float64 {
	if n > len(holders) {
		n = len(holders)
	}
	var total float64
	for _, h := range holders[:n] {
		total += h.Percentage
	}
	return total
}
