package scoring

import (
	"fmt"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// scoreLiquidity rates LP-lock coverage and pool depth. Carrying the
// heaviest weight of the four components, this is where rug-pull risk
// concentrates.
func scoreLiquidity(data *domain.TokenVettingData) (domain.ComponentScore, []string) {
	score := 100.0
	flags := []string{}
	var missing []string

	lockKnown := data.Security != nil && data.Security.LPLockPercentage != nil
	liqKnown := data.Trading != nil

	if lockKnown {
		lp := *data.Security.LPLockPercentage
		switch {
		case lp >= 99:
			flags = append(flags, "LP effectively fully locked")
		case lp >= 90:
			score -= 10
			flags = append(flags, fmt.Sprintf("%.1f%% of LP locked", lp))
		case lp >= 80:
			score -= 20
			flags = append(flags, fmt.Sprintf("%.1f%% of LP locked", lp))
		case lp >= 50:
			score -= 40
			flags = append(flags, fmt.Sprintf("only %.1f%% of LP locked", lp))
		case lp > 0:
			score -= 60
			flags = append(flags, fmt.Sprintf("only %.1f%% of LP locked", lp))
		default:
			score -= 5
			flags = append(flags, "no LP lock reported")
		}
		if lp >= 90 && hasBurnedLock(data.Security.LPLocks) {
			score += 5
			flags = append(flags, "LP burned, lock is permanent")
		}
	} else {
		score -= 5
		flags = append(flags, "LP lock data unavailable")
		missing = append(missing, "lp_lock")
	}

	if liqKnown {
		liq := data.Trading.Liquidity
		switch {
		case liq >= 50000:
			flags = append(flags, fmt.Sprintf("strong liquidity at $%.0f", liq))
		case liq >= 20000:
			flags = append(flags, fmt.Sprintf("adequate liquidity at $%.0f", liq))
		case liq < 10000 && data.TokenAgeDays > 14:
			score -= 15
			flags = append(flags, fmt.Sprintf("thin liquidity ($%.0f) for a %.0f-day-old token", liq, data.TokenAgeDays))
		}
	} else {
		missing = append(missing, "liquidity")
	}

	if !lockKnown && !liqKnown {
		score -= 10
		flags = append(flags, "no liquidity signal at all")
	}

	return domain.ComponentScore{Score: clampScore(score), Flags: flags}, missing
}

func hasBurnedLock(locks []domain.LPLock) bool {
	for _, l := range locks {
		if l.Burned {
			return true
		}
	}
	return false
}
