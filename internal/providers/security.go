package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/metrics"
)

// SourceGoPlus tags the security-audit provider.
const SourceGoPlus = "goplus"

// SecurityReport bundles everything the security provider knows about
// a token: authority flags, LP locks, holder distribution and creator
// footprint. Sections the provider could not answer stay nil.
type SecurityReport struct {
	Security  *domain.SecurityInfo
	Holders   *domain.HolderInfo
	Developer *domain.DeveloperInfo
}

// GoPlus fetches token security audits. Solana and EVM chains use
// different endpoints and slightly different field encodings; both
// normalize into the same SecurityReport.
type GoPlus struct {
	client *Client
}

// NewGoPlus builds the GoPlus adapter.
func NewGoPlus(cfg ClientConfig, m *metrics.Registry) *GoPlus {
	if cfg.Name == "" {
		cfg.Name = SourceGoPlus
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.gopluslabs.io"
	}
	if cfg.APIKeyHeader == "" && cfg.APIKeyParam == "" {
		cfg.APIKeyParam = "api_key"
	}
	return &GoPlus{client: NewClient(cfg, m)}
}

type goplusHolderJSON struct {
	Address string `json:"address"`
	Percent any    `json:"percent"`
	Tag     string `json:"tag"`
}

type goplusLPHolderJSON struct {
	Address      string `json:"address"`
	Percent      any    `json:"percent"`
	Tag          string `json:"tag"`
	IsLocked     any    `json:"is_locked"`
	LockedDetail []struct {
		EndTime string `json:"end_time"`
	} `json:"locked_detail"`
}

type goplusTokenJSON struct {
	IsMintable  any `json:"is_mintable"`
	Mintable    any `json:"mintable"`
	IsFreezable any `json:"freezable"`

	TotalSupply       any `json:"total_supply"`
	CirculatingSupply any `json:"circulating_supply"`
	HolderCount       any `json:"holder_count"`

	Holders   []goplusHolderJSON   `json:"holders"`
	LPHolders []goplusLPHolderJSON `json:"lp_holders"`

	CreatorAddress  any `json:"creator_address"`
	CreatorBalance  any `json:"creator_percent"`
	CreatorStatus   any `json:"creator_status"`
	Creators        []struct {
		Address string `json:"address"`
		Status  string `json:"status"`
	} `json:"creators"`
	Top10HolderRate any `json:"top_10_holder_rate"`
}

type goplusResponse struct {
	Code   int                        `json:"code"`
	Result map[string]goplusTokenJSON `json:"result"`
}

// TokenSecurity fetches and normalizes the security audit of one
// token. The result map is keyed by address; the lookup is
// case-insensitive because the EVM endpoint lowercases keys.
func (g *GoPlus) TokenSecurity(ctx context.Context, chain domain.Chain, address string) (*SecurityReport, error) {
	path := "/api/v1/token_security/" + evmChainID(chain)
	if chain == domain.ChainSolana {
		path = "/api/v1/solana/token_security"
	}
	q := url.Values{"contract_addresses": []string{address}}

	var resp goplusResponse
	if err := g.client.GetJSON(ctx, path, q, &resp); err != nil {
		return nil, fmt.Errorf("goplus token security %s: %w", address, err)
	}

	token, ok := resp.Result[address]
	if !ok {
		for k, v := range resp.Result {
			if strings.EqualFold(k, address) {
				token, ok = v, true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("goplus token security %s: no result", address)
	}
	return normalizeSecurity(token), nil
}

func normalizeSecurity(t goplusTokenJSON) *SecurityReport {
	report := &SecurityReport{
		Security: &domain.SecurityInfo{
			IsMintable:        parseBoolFlag(t.IsMintable, t.Mintable),
			IsFreezable:       parseBoolFlag(t.IsFreezable),
			TotalSupply:       parseFloat(t.TotalSupply),
			CirculatingSupply: parseFloat(t.CirculatingSupply),
		},
	}

	var lockedPercent float64
	for _, lp := range t.LPHolders {
		pct := parseFloat(lp.Percent)
		if pct == nil {
			continue
		}
		lock := domain.LPLock{
			Tag:     lp.Tag,
			Percent: *pct * 100,
			Burned:  isBurnTag(lp.Tag, lp.Address),
		}
		locked := parseBoolFlag(lp.IsLocked)
		if lock.Burned || (locked != nil && *locked) {
			lockedPercent += lock.Percent
			for _, detail := range lp.LockedDetail {
				if ts, err := time.Parse(time.RFC3339, detail.EndTime); err == nil {
					if lock.UnlockAt == nil || ts.After(*lock.UnlockAt) {
						unlock := ts
						lock.UnlockAt = &unlock
					}
				}
			}
			report.Security.LPLocks = append(report.Security.LPLocks, lock)
		}
	}
	if len(t.LPHolders) > 0 {
		report.Security.LPLockPercentage = &lockedPercent
	}

	if count := parseInt(t.HolderCount); count != nil || len(t.Holders) > 0 {
		info := &domain.HolderInfo{Count: parseInt(t.HolderCount)}
		for _, h := range t.Holders {
			pct := parseFloat(h.Percent)
			if pct == nil {
				continue
			}
			info.TopHolders = append(info.TopHolders, domain.TopHolder{
				Address:    h.Address,
				Percentage: *pct * 100,
			})
		}
		report.Holders = info
	}

	dev := &domain.DeveloperInfo{
		CreatorAddress:  stringFromAny(t.CreatorAddress),
		CreatorStatus:   stringFromAny(t.CreatorStatus),
		Top10HolderRate: scalePercent(parseFloat(t.Top10HolderRate)),
	}
	if balance := parseFloat(t.CreatorBalance); balance != nil {
		dev.CreatorBalancePercent = scalePercent(balance)
	}
	if dev.CreatorAddress == "" && len(t.Creators) > 0 {
		dev.CreatorAddress = t.Creators[0].Address
		if dev.CreatorStatus == "" {
			dev.CreatorStatus = t.Creators[0].Status
		}
	}
	if dev.CreatorAddress != "" || dev.Top10HolderRate != nil {
		report.Developer = dev
	}
	return report
}

// parseBoolFlag reads the "1"/"0"/bool flag encodings, first non-nil
// candidate wins.
func parseBoolFlag(candidates ...any) *bool {
	for _, v := range candidates {
		switch t := v.(type) {
		case nil:
			continue
		case bool:
			b := t
			return &b
		case string:
			switch strings.TrimSpace(t) {
			case "1", "true":
				b := true
				return &b
			case "0", "false":
				b := false
				return &b
			}
		case float64:
			b := t != 0
			return &b
		case map[string]any:
			// Solana encodes authorities as {"status": "1", ...}.
			if status, ok := t["status"]; ok {
				return parseBoolFlag(status)
			}
		}
	}
	return nil
}

// scalePercent converts the 0-1 ratios GoPlus reports into 0-100.
func scalePercent(f *float64) *float64 {
	if f == nil {
		return nil
	}
	scaled := *f * 100
	return &scaled
}

func stringFromAny(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

var burnAddresses = map[string]struct{}{
	"0x000000000000000000000000000000000000dead": {},
	"0x0000000000000000000000000000000000000000": {},
	"1nc1nerator11111111111111111111111111111111": {},
}

func isBurnTag(tag, address string) bool {
	if strings.Contains(strings.ToLower(tag), "burn") {
		return true
	}
	_, ok := burnAddresses[strings.ToLower(address)]
	if !ok {
		_, ok = burnAddresses[address]
	}
	return ok
}

func evmChainID(chain domain.Chain) string {
	switch chain {
	case domain.ChainEthereum:
		return "1"
	case domain.ChainBSC:
		return "56"
	case domain.ChainBase:
		return "8453"
	default:
		return "1"
	}
}
