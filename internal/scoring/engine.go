package scoring

import (
	"math"
	"time"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// Component weights. They must sum to exactly 1.0; the combination
// never renormalizes.
const (
	WeightDistribution   = 0.25
	WeightLiquidity      = 0.35
	WeightDevAbandonment = 0.20
	WeightTechnical      = 0.20
)

// Engine is the risk scoring engine: a deterministic function from
// TokenVettingData to VettingResults with no I/O. Missing inputs are
// always converted into penalties plus explanatory flags; the engine
// never refuses to produce a score.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Score computes the four component scores, the weighted overall
// score, the risk level and the eligibility tier for one token.
func (e *Engine) Score(data *domain.TokenVettingData) *domain.VettingResults {
	now := e.now().UTC()

	dist, distMissing := scoreDistribution(data)
	liq, liqMissing := scoreLiquidity(data)
	dev, devMissing := scoreDevAbandonment(data)
	tech, techMissing := scoreTechnical(data)

	overall := int(math.Round(
		WeightDistribution*dist.Score +
			WeightLiquidity*liq.Score +
			WeightDevAbandonment*dev.Score +
			WeightTechnical*tech.Score))

	missing := make([]string, 0, 4)
	missing = append(missing, distMissing...)
	missing = append(missing, liqMissing...)
	missing = append(missing, devMissing...)
	missing = append(missing, techMissing...)

	results := &domain.VettingResults{
		Distribution:   dist,
		Liquidity:      liq,
		DevAbandonment: dev,
		Technical:      tech,
		OverallScore:   overall,
		RiskLevel:      riskLevelFor(overall),
		DataSufficient: len(missing) == 0,
		MissingData:    missing,
		CalculatedAt:   now,
	}
	if data.Token != nil {
		results.Chain = data.Token.Chain
		results.Address = data.Token.Address
	}

	// With every enrichment lookup empty the banded score is pure
	// assumption; report that instead of a risk band.
	if data.Security == nil && data.Holders == nil && data.Developer == nil {
		results.RiskLevel = domain.RiskInsufficientData
	}

	results.EligibleTier = ClassifyTier(tierInputsFrom(data, overall, now))

	results.AllFlags = make([]string, 0,
		len(dist.Flags)+len(liq.Flags)+len(dev.Flags)+len(tech.Flags))
	results.AllFlags = append(results.AllFlags, dist.Flags...)
	results.AllFlags = append(results.AllFlags, liq.Flags...)
	results.AllFlags = append(results.AllFlags, dev.Flags...)
	results.AllFlags = append(results.AllFlags, tech.Flags...)

	return results
}

func riskLevelFor(overall int) domain.RiskLevel {
	switch {
	case overall >= 70:
		return domain.RiskLow
	case overall >= 50:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

func tierInputsFrom(data *domain.TokenVettingData, overall int, now time.Time) TierInputs {
	in := TierInputs{Score: overall, AgeDays: data.TokenAgeDays}
	if data.Trading != nil {
		in.LiquidityUSD = data.Trading.Liquidity
	} else if data.Token != nil {
		in.LiquidityUSD = data.Token.Market.LiquidityUSD
	}
	if data.Security != nil {
		in.LPLockPercent = data.Security.LPLockPercentage
		in.LockMonths = DeriveLockMonths(data.Security.LPLocks, now)
	}
	return in
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
