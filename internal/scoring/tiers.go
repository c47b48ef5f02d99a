package scoring

import (
	"time"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// burnedLockMonths is the effective lock horizon assigned to burned
// LP: permanent for every practical purpose.
const burnedLockMonths = 999

// TierInputs are the classifier inputs. LPLockPercent and LockMonths
// are nil when the respective data was never reported.
type TierInputs struct {
	Score        int
	AgeDays      float64
	LiquidityUSD float64

	LPLockPercent *float64
	LockMonths    *float64
}

// tierRule is one row of the eligibility ladder. fallbackScore is the
// raised score bar that substitutes for the lock requirement when no
// lock data exists at all; 0 means no fallback.
type tierRule struct {
	tier          domain.ListingTier
	minAgeDays    float64
	minLiquidity  float64
	minLockMonths float64
	minScore      int
	fallbackScore int
}

var tierLadder = []tierRule{
	{domain.TierStellar, 60, 100000, 24, 70, 70},
	{domain.TierBloom, 30, 50000, 24, 50, 60},
	{domain.TierSprout, 21, 20000, 12, 50, 55},
	{domain.TierSeed, 14, 10000, 6, 30, 50},
}

// ClassifyTier walks the eligibility ladder from highest to lowest
// tier; the first satisfied rule wins, so a token meeting Stellar's
// bar can never fall through to a lower tier.
func ClassifyTier(in TierInputs) domain.ListingTier {
	for _, rule := range tierLadder {
		if in.AgeDays < rule.minAgeDays || in.LiquidityUSD < rule.minLiquidity {
			continue
		}
		switch {
		case in.LockMonths != nil:
			if *in.LockMonths >= rule.minLockMonths && in.Score >= rule.minScore {
				return rule.tier
			}
		case in.LPLockPercent != nil:
			if proxyLockMonths(*in.LPLockPercent) >= rule.minLockMonths && in.Score >= rule.minScore {
				return rule.tier
			}
		default:
			if rule.fallbackScore > 0 && in.Score >= rule.fallbackScore {
				return rule.tier
			}
		}
	}

	if in.AgeDays < 14 && in.LiquidityUSD >= 5000 && in.Score >= 60 {
		return domain.TierNew
	}
	return domain.TierNone
}

// DeriveLockMonths reduces a lock-descriptor list to an effective lock
// horizon in months from now. A burned lock dominates everything;
// otherwise the longest unlock horizon wins. Nil when no descriptor
// carries a duration.
func DeriveLockMonths(locks []domain.LPLock, now time.Time) *float64 {
	var months *float64
	for _, lock := range locks {
		if lock.Burned {
			m := float64(burnedLockMonths)
			return &m
		}
		if lock.UnlockAt == nil {
			continue
		}
		horizon := lock.UnlockAt.Sub(now).Hours() / 24 / 30
		if horizon < 0 {
			horizon = 0
		}
		if months == nil || horizon > *months {
			m := horizon
			months = &m
		}
	}
	return months
}

// proxyLockMonths estimates a lock horizon from the lock percentage
// when no lock durations were reported.
func proxyLockMonths(lockPercent float64) float64 {
	switch {
	case lockPercent >= 90:
		return 12
	case lockPercent >= 50:
		return 6
	default:
		return 0
	}
}
