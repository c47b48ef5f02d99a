package scoring

import (
	"fmt"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// scoreTechnical rates contract-level controls. An active mint
// authority is the single heaviest deduction in the whole engine;
// entirely missing authority data is scored as if the worst were true
// rather than aborting.
func scoreTechnical(data *domain.TokenVettingData) (domain.ComponentScore, []string) {
	score := 100.0
	flags := []string{}
	var missing []string

	sec := data.Security
	if sec == nil || (sec.IsMintable == nil && sec.IsFreezable == nil) {
		score -= 30
		flags = append(flags, "authority data unavailable, assuming worst case")
		missing = append(missing, "authority_data")
	} else {
		if sec.IsMintable != nil && *sec.IsMintable {
			score -= 50
			flags = append(flags, "CRITICAL: mint authority still active")
		}
		if sec.IsFreezable != nil && *sec.IsFreezable {
			score -= 40
			flags = append(flags, "freeze authority still active")
		}
	}

	if sec != nil && sec.TotalSupply != nil && *sec.TotalSupply > 0 && sec.CirculatingSupply != nil {
		ratio := *sec.CirculatingSupply / *sec.TotalSupply
		switch {
		case ratio < 0.80:
			score -= 15
			flags = append(flags, fmt.Sprintf("only %.0f%% of supply circulating", ratio*100))
		case ratio >= 0.95:
			flags = append(flags, "supply fully circulating")
		}
	}

	return domain.ComponentScore{Score: clampScore(score), Flags: flags}, missing
}
