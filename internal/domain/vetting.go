package domain

import "time"

// TokenVettingData is the input contract to the scoring engine. It is
// assembled fresh for every scoring invocation and never persisted;
// only the derived VettingResults are. Nil sections mean the
// corresponding lookup produced nothing; the engine degrades, it
// never aborts.
type TokenVettingData struct {
	Token     *TokenRecord
	Security  *SecurityInfo
	Holders   *HolderInfo
	Developer *DeveloperInfo
	Trading   *TradingInfo

	// TokenAgeDays may be fractional for very young tokens.
	TokenAgeDays float64
}

// SecurityInfo describes contract-level risk controls.
type SecurityInfo struct {
	IsMintable        *bool
	IsFreezable       *bool
	LPLockPercentage  *float64
	TotalSupply       *float64
	CirculatingSupply *float64
	LPLocks           []LPLock
}

// LPLock is one liquidity-lock descriptor as reported by a security
// provider. Burned LP counts as a permanent lock.
type LPLock struct {
	Tag      string
	Percent  float64
	UnlockAt *time.Time
	Burned   bool
}

// HolderInfo describes the holder distribution of a token.
type HolderInfo struct {
	Count      *int64
	TopHolders []TopHolder
}

// TopHolder is one entry of the top-holder list, largest first.
type TopHolder struct {
	Address    string
	Percentage float64
}

// DeveloperInfo describes the token creator and their footprint.
type DeveloperInfo struct {
	CreatorAddress          string
	CreatorBalancePercent   *float64
	CreatorStatus           string
	Top10HolderRate         *float64
	TwitterCreateTokenCount *int
}

// TradingInfo carries the market metrics used by the liquidity scorer
// and the tier classifier.
type TradingInfo struct {
	Price          float64
	Liquidity      float64
	Volume24h      float64
	PriceChange24h *float64
	FDV            float64
	HolderCount    *int64
}

// RiskLevel is the coarse banding of the overall score.
type RiskLevel string

const (
	RiskLow              RiskLevel = "low"
	RiskMedium           RiskLevel = "medium"
	RiskHigh             RiskLevel = "high"
	RiskInsufficientData RiskLevel = "insufficient_data"
)

// ListingTier is the graduated eligibility label gating listing
// privileges, highest first.
type ListingTier string

const (
	TierStellar ListingTier = "stellar"
	TierBloom   ListingTier = "bloom"
	TierSprout  ListingTier = "sprout"
	TierSeed    ListingTier = "seed"
	TierNew     ListingTier = "new"
	TierNone    ListingTier = "none"
)

// ComponentScore is one of the four 0-100 sub-scores with its
// human-readable flags.
type ComponentScore struct {
	Score float64  `json:"score"`
	Flags []string `json:"flags"`
}

// VettingResults is the output of one scoring call. Immutable once
// computed; a fresh value is produced per invocation.
type VettingResults struct {
	Chain   Chain  `json:"chain"`
	Address string `json:"address"`

	Distribution   ComponentScore `json:"distribution"`
	Liquidity      ComponentScore `json:"liquidity"`
	DevAbandonment ComponentScore `json:"devAbandonment"`
	Technical      ComponentScore `json:"technical"`

	OverallScore int         `json:"overallScore"`
	RiskLevel    RiskLevel   `json:"riskLevel"`
	EligibleTier ListingTier `json:"eligibleTier"`

	AllFlags       []string  `json:"allFlags"`
	DataSufficient bool      `json:"dataSufficient"`
	MissingData    []string  `json:"missingData"`
	CalculatedAt   time.Time `json:"calculatedAt"`
}
