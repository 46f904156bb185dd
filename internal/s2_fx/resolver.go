package s2_fx

import (
	"sort"
	"strings"
	"time"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/internal/traceconfig"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Resolution is the conversion of one currency on one date to the base currency
type Resolution struct {
	Rate     float64
	RateDate time.Time // zero when no rate row was used
	Status   contracts.FxStatus
}

// Resolver converts native amounts to the base currency from the rate history
// ⭐ SSOT: 환율 해석 순서는 여기서만 (base → exact → latest → default 1)
type Resolver struct {
	base   string
	policy traceconfig.FxLatestPolicy

	hasTable bool
	exact    map[rateKey]contracts.FxRate
	history  map[string][]contracts.FxRate // per currency, date ascending

	logger *logger.Logger
}

type rateKey struct {
	currency string
	date     string
}

// NewResolver indexes the rate history. Rows without a date, currency or
// numeric rate are ignored; an empty history means no FX source at all.
func NewResolver(base string, rates []contracts.FxRate, policy traceconfig.FxLatestPolicy, log *logger.Logger) *Resolver {
	r := &Resolver{
		base:     normalizeCurrency(base),
		policy:   policy,
		hasTable: len(rates) > 0,
		exact:    make(map[rateKey]contracts.FxRate),
		history:  make(map[string][]contracts.FxRate),
		logger:   log,
	}

	for _, fx := range rates {
		ccy := normalizeCurrency(fx.FromCurrency)
		if fx.Date.IsZero() || ccy == "" || !fx.RateToBase.Valid {
			continue
		}
		fx.FromCurrency = ccy
		fx.Date = dateOnly(fx.Date)

		// 같은 (통화, 날짜) 중복 시 먼저 나온 행 유지
		key := rateKey{currency: ccy, date: fx.Date.Format("2006-01-02")}
		if _, dup := r.exact[key]; !dup {
			r.exact[key] = fx
			r.history[ccy] = append(r.history[ccy], fx)
		}
	}

	for ccy := range r.history {
		h := r.history[ccy]
		sort.SliceStable(h, func(i, j int) bool { return h[i].Date.Before(h[j].Date) })
	}

	return r
}

// Base returns the base currency
func (r *Resolver) Base() string {
	return r.base
}

// Resolve returns the rate for currency on asOf
func (r *Resolver) Resolve(currency string, asOf time.Time) Resolution {
	ccy := normalizeCurrency(currency)
	if ccy == "" {
		ccy = r.base
	}

	// 1. 기준통화
	if ccy == r.base {
		return Resolution{Rate: 1, Status: contracts.FxBaseCurrency}
	}

	// 5. 환율 테이블 자체가 없음
	if !r.hasTable {
		return Resolution{Rate: 1, Status: contracts.FxDefaultNoTable}
	}

	// 2. 정확히 같은 날짜
	if !asOf.IsZero() {
		if fx, ok := r.exact[rateKey{currency: ccy, date: dateOnly(asOf).Format("2006-01-02")}]; ok {
			return Resolution{Rate: fx.RateToBase.Value, RateDate: fx.Date, Status: contracts.FxExactOrLatest}
		}
	}

	// 3. 통화별 최신
	if fx, ok := r.latest(ccy, asOf); ok {
		return Resolution{Rate: fx.RateToBase.Value, RateDate: fx.Date, Status: contracts.FxExactOrLatest}
	}

	// 4. 이력 없음
	return Resolution{Rate: 1, Status: contracts.FxDefaultMissing}
}

// latest picks the newest rate of ccy, bounded by asOf under the as_of_bounded policy
func (r *Resolver) latest(ccy string, asOf time.Time) (contracts.FxRate, bool) {
	h := r.history[ccy]
	if len(h) == 0 {
		return contracts.FxRate{}, false
	}
	if r.policy != traceconfig.FxLatestAsOfBounded || asOf.IsZero() {
		return h[len(h)-1], true
	}

	bound := dateOnly(asOf)
	// 첫 번째 bound 초과 위치
	i := sort.Search(len(h), func(i int) bool { return h[i].Date.After(bound) })
	if i == 0 {
		return contracts.FxRate{}, false
	}
	return h[i-1], true
}

// ResolveNav converts every NAV row to the base currency.
// Fund currency comes from the fund registry (trimmed, uppercased, default base);
// null native AUM counts as 0. The rate date falls back to the NAV date.
func (r *Resolver) ResolveNav(funds []contracts.FundRecord, navs []contracts.NavRecord) []contracts.NavFx {
	currencies := make(map[string]string, len(funds))
	for _, f := range funds {
		if _, seen := currencies[f.FundCode]; seen {
			continue
		}
		currencies[f.FundCode] = normalizeCurrency(f.Currency)
	}

	out := make([]contracts.NavFx, 0, len(navs))
	statusCounts := make(map[string]interface{})

	for _, nav := range navs {
		ccy := currencies[nav.FundCode]
		if ccy == "" {
			ccy = r.base
		}

		res := r.Resolve(ccy, nav.AsOfDate)
		rateDate := res.RateDate
		if rateDate.IsZero() {
			rateDate = nav.AsOfDate
		}

		native := nav.AUM.Or(0)
		out = append(out, contracts.NavFx{
			FundCode:     nav.FundCode,
			NavAsOfDate:  nav.AsOfDate,
			AUMNative:    native,
			AUM:          native * res.Rate,
			FundCurrency: ccy,
			FxRateToBase: res.Rate,
			FxRateDate:   rateDate,
			FxStatus:     res.Status,
		})

		n, _ := statusCounts[string(res.Status)].(int)
		statusCounts[string(res.Status)] = n + 1
	}

	statusCounts["nav_rows"] = len(out)
	statusCounts["base"] = r.base
	r.logger.WithFields(statusCounts).Info("NAV converted to base currency")

	return out
}

// IndexByFund returns the first resolved NAV per fund
func IndexByFund(navs []contracts.NavFx) map[string]*contracts.NavFx {
	idx := make(map[string]*contracts.NavFx, len(navs))
	for i := range navs {
		if _, seen := idx[navs[i].FundCode]; !seen {
			idx[navs[i].FundCode] = &navs[i]
		}
	}
	return idx
}

func normalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
