package s1_bridge

import (
	"sort"
	"strings"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/pkg/logger"
)

// FallbackWeightPct is the synthetic feeder weight of a fund-ISIN fallback link
const FallbackWeightPct = 100.0

// Resolver builds the fund → master bridge table
type Resolver struct {
	logger *logger.Logger
}

// Stats counts what each pass produced, for logging and the run summary
type Stats struct {
	FeederRows      int `json:"feeder_rows"`
	ISINTokens      int `json:"isin_tokens"`
	NonISINTokens   int `json:"non_isin_tokens"`
	PrimaryLinks    int `json:"primary_links"`
	FallbackLinks   int `json:"fallback_links"`
	DuplicatesMerge int `json:"duplicates_merged"`
	BridgeLinks     int `json:"bridge_links"`
}

// NewResolver creates a new bridge Resolver
func NewResolver(log *logger.Logger) *Resolver {
	return &Resolver{logger: log}
}

// candidate is a raw link before the merge; seq keeps input order for stable tie-breaks
type candidate struct {
	link contracts.BridgeLink
	seq  int
}

// Resolve runs both passes and merges them into a bridge unique per (fund_code, ft_ticker)
// ⭐ SSOT: S1 브리지 생성
func (r *Resolver) Resolve(ds *contracts.Dataset) ([]contracts.BridgeLink, Stats) {
	stats := Stats{FeederRows: len(ds.Feeders)}
	masters := indexMastersByISIN(ds.Masters)

	primary, primaryFunds := r.primaryPass(ds.Feeders, ds.Masters, masters, &stats)
	fallback := r.fallbackPass(ds.FundISINs, ds.Masters, masters, primaryFunds)

	stats.PrimaryLinks = len(primary)
	stats.FallbackLinks = len(fallback)

	candidates := make([]candidate, 0, len(primary)+len(fallback))
	for _, l := range primary {
		candidates = append(candidates, candidate{link: l, seq: len(candidates)})
	}
	for _, l := range fallback {
		candidates = append(candidates, candidate{link: l, seq: len(candidates)})
	}

	links := merge(candidates)
	stats.DuplicatesMerge = len(candidates) - len(links)
	stats.BridgeLinks = len(links)

	r.logger.WithFields(map[string]interface{}{
		"feeder_rows":     stats.FeederRows,
		"isin_tokens":     stats.ISINTokens,
		"non_isin_tokens": stats.NonISINTokens,
		"primary_links":   stats.PrimaryLinks,
		"fallback_links":  stats.FallbackLinks,
		"merged_away":     stats.DuplicatesMerge,
		"bridge_links":    stats.BridgeLinks,
	}).Info("Bridge resolved")

	return links, stats
}

// indexMastersByISIN maps normalised ISIN → master indices in input order
func indexMastersByISIN(masters []contracts.MasterSecurity) map[string][]int {
	idx := make(map[string][]int, len(masters))
	for i, m := range masters {
		isin := NormalizeISIN(m.ISIN)
		if isin == "" {
			continue
		}
		idx[isin] = append(idx[isin], i)
	}
	return idx
}

// primaryPass matches ISIN tokens of feeder names against master ISINs.
// Unmatched feeders are dropped; a token shared by several masters links to each.
func (r *Resolver) primaryPass(
	feeders []contracts.FeederHolding,
	masters []contracts.MasterSecurity,
	byISIN map[string][]int,
	stats *Stats,
) ([]contracts.BridgeLink, map[string]bool) {
	links := make([]contracts.BridgeLink, 0)
	matchedFunds := make(map[string]bool)

	for _, f := range feeders {
		token, ok := ExtractToken(f.FeederName)
		if !ok {
			continue
		}
		isin, ok := ISINCandidate(token)
		if !ok {
			stats.NonISINTokens++
			continue
		}
		stats.ISINTokens++

		for _, mi := range byISIN[isin] {
			m := masters[mi]
			links = append(links, contracts.BridgeLink{
				FundCode:        f.FundCode,
				FeederName:      f.FeederName,
				FeederWeightPct: f.WeightPct.Or(0),
				AsOfDate:        f.AsOfDate,
				Token:           token,
				TokenISIN:       isin,
				FtTicker:        m.FtTicker,
				Ticker:          m.Ticker,
				MasterName:      m.Name,
				TickerType:      m.TickerType,
				MapMethod:       contracts.MapFeederHoldingISIN,
			})
			matchedFunds[f.FundCode] = true
		}
	}

	return links, matchedFunds
}

// fallbackPass links funds without any primary match through their own ISIN.
// One master per fund: Fund > ETF > other, then larger AUM, then first seen.
func (r *Resolver) fallbackPass(
	fundISINs []contracts.FundISIN,
	masters []contracts.MasterSecurity,
	byISIN map[string][]int,
	primaryFunds map[string]bool,
) []contracts.BridgeLink {
	type pick struct {
		fundISIN string
		master   int
		pref     int
		aum      float64
	}

	best := make(map[string]pick)
	order := make([]string, 0)

	for _, fi := range fundISINs {
		if primaryFunds[fi.FundCode] {
			continue
		}
		isin := NormalizeISIN(fi.ISIN)
		if isin == "" {
			continue
		}

		for _, mi := range byISIN[isin] {
			m := masters[mi]
			p := pick{fundISIN: isin, master: mi, pref: tickerTypePreference(m.TickerType), aum: m.TotalAUM.Or(0)}

			cur, seen := best[fi.FundCode]
			if !seen {
				order = append(order, fi.FundCode)
				best[fi.FundCode] = p
				continue
			}
			// 동률이면 먼저 본 행 유지
			if p.pref < cur.pref || (p.pref == cur.pref && p.aum > cur.aum) {
				best[fi.FundCode] = p
			}
		}
	}

	links := make([]contracts.BridgeLink, 0, len(order))
	for _, fundCode := range order {
		p := best[fundCode]
		m := masters[p.master]
		links = append(links, contracts.BridgeLink{
			FundCode:        fundCode,
			FeederName:      m.Name,
			FeederWeightPct: FallbackWeightPct,
			TokenISIN:       p.fundISIN,
			FtTicker:        m.FtTicker,
			Ticker:          m.Ticker,
			MasterName:      m.Name,
			TickerType:      m.TickerType,
			MapMethod:       contracts.MapFundISINFallback,
		})
	}
	return links
}

// tickerTypePreference ranks master types for the fallback pick (lower wins)
func tickerTypePreference(tickerType string) int {
	switch strings.TrimSpace(tickerType) {
	case "Fund":
		return 1
	case "ETF":
		return 2
	default:
		return 9
	}
}

// merge keeps one link per (fund_code, ft_ticker): lowest map_method priority,
// then input order. Output is sorted by fund_code, ft_ticker.
func merge(candidates []candidate) []contracts.BridgeLink {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.link.FundCode != b.link.FundCode {
			return a.link.FundCode < b.link.FundCode
		}
		if a.link.FtTicker != b.link.FtTicker {
			return a.link.FtTicker < b.link.FtTicker
		}
		if pa, pb := a.link.MapMethod.Priority(), b.link.MapMethod.Priority(); pa != pb {
			return pa < pb
		}
		return a.seq < b.seq
	})

	links := make([]contracts.BridgeLink, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		key := c.link.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, c.link)
	}
	return links
}
