package scoring

import (
	"fmt"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// scoreDevAbandonment rates the creator's footprint: how much supply
// they still hold, how many tokens they have launched before, and
// whether the token is old enough to have outgrown its creator.
func scoreDevAbandonment(data *domain.TokenVettingData) (domain.ComponentScore, []string) {
	score := 100.0
	flags := []string{}
	var missing []string

	dev := data.Developer
	if dev == nil || dev.CreatorAddress == "" {
		score -= 10
		flags = append(flags, "creator address unknown")
		missing = append(missing, "creator")
	} else {
		balance := dev.CreatorBalancePercent
		switch {
		case (balance != nil && *balance > 10) || dev.CreatorStatus == "holding":
			score -= 30
			flags = append(flags, "creator still holds a significant position")
		case balance != nil && *balance > 5:
			score -= 15
			flags = append(flags, fmt.Sprintf("creator holds %.1f%% of supply", *balance))
		default:
			flags = append(flags, "creator position acceptable")
		}

		if dev.TwitterCreateTokenCount != nil {
			launched := *dev.TwitterCreateTokenCount
			switch {
			case launched > 5:
				score -= 15
				flags = append(flags, fmt.Sprintf("creator has launched %d prior tokens", launched))
			case launched > 2:
				score -= 5
				flags = append(flags, fmt.Sprintf("creator has launched %d prior tokens", launched))
			}
		}

		if dev.Top10HolderRate != nil {
			rate := *dev.Top10HolderRate
			switch {
			case rate > 50:
				score -= 20
				flags = append(flags, fmt.Sprintf("top 10 holder rate at %.1f%%", rate))
			case rate > 35:
				score -= 10
				flags = append(flags, fmt.Sprintf("top 10 holder rate at %.1f%%", rate))
			}
		}
	}

	if data.TokenAgeDays < 14 {
		score -= 40
		flags = append(flags, fmt.Sprintf("token is %.1f days old, community takeover window not met", data.TokenAgeDays))
	}

	return domain.ComponentScore{Score: clampScore(score), Flags: flags}, missing
}
