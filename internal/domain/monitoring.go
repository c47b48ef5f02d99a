package domain

import "time"

// Trend is a three-way classification of a metric versus its previous
// sampled value.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// MonitoringSnapshot is one timestamped sample of a vetted token's
// dynamic metrics. Append-only; the previous snapshot for a token is
// the most recent prior row.
type MonitoringSnapshot struct {
	ID      string `json:"id" db:"id"`
	Chain   Chain  `json:"chain" db:"chain"`
	Address string `json:"address" db:"address"`

	PriceUSD       float64  `json:"priceUsd" db:"price_usd"`
	LiquidityUSD   float64  `json:"liquidityUsd" db:"liquidity_usd"`
	Volume24h      float64  `json:"volume24h" db:"volume_24h"`
	PriceChange24h *float64 `json:"priceChange24h" db:"price_change_24h"`
	HolderCount    *int64   `json:"holderCount" db:"holder_count"`

	LiquidityTrend Trend `json:"liquidityTrend" db:"liquidity_trend"`
	HolderTrend    Trend `json:"holderTrend" db:"holder_trend"`
	ActivityTrend  Trend `json:"activityTrend" db:"activity_trend"`

	ScannedAt time.Time `json:"scannedAt" db:"scanned_at"`
}

// AlertSeverity grades how urgent an alert is.
type AlertSeverity string

const (
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// Alert trigger types.
const (
	TriggerLiquidityDrop = "liquidity_drop"
	TriggerHolderLoss    = "holder_loss"
	TriggerPriceCrash    = "price_crash"
)

// Alert is one threshold crossing detected while comparing a snapshot
// against its predecessor. Append-only, never updated; deduplication
// and acknowledgement live outside this core.
type Alert struct {
	ID      string `json:"id" db:"id"`
	Chain   Chain  `json:"chain" db:"chain"`
	Address string `json:"address" db:"address"`

	Severity    AlertSeverity `json:"severity" db:"severity"`
	TriggerType string        `json:"triggerType" db:"trigger_type"`
	Condition   string        `json:"conditionDescription" db:"condition_description"`
	Message     string        `json:"message" db:"message"`
	Detected    bool          `json:"detected" db:"detected"`

	DetectedAt time.Time `json:"detectedAt" db:"detected_at"`
}
