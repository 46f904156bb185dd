package fxfeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundtrace/pkg/httputil"
)

// DefaultSource is recorded when the provider does not name itself
const DefaultSource = "open.er-api.com"

// Quote is one provider snapshot of USD-quoted rates (units of currency per 1 USD)
type Quote struct {
	AsOf   time.Time
	PerUSD map[string]decimal.Decimal
	Source string
}

// Provider fetches the latest USD-quoted rates
type Provider interface {
	Latest(ctx context.Context) (*Quote, error)
}

// latestResponse is the open.er-api.com /v6/latest payload
type latestResponse struct {
	Result             string                     `json:"result"`
	Provider           string                     `json:"provider"`
	Documentation      string                     `json:"documentation"`
	TimeLastUpdateUnix *int64                     `json:"time_last_update_unix"`
	BaseCode           string                     `json:"base_code"`
	Rates              map[string]decimal.Decimal `json:"rates"`
}

// HTTPProvider reads rates from an open.er-api.com compatible endpoint
type HTTPProvider struct {
	client       *httputil.Client
	url          string
	baseCurrency string
	now          func() time.Time
}

// NewHTTPProvider creates a provider; baseCurrency must be present in every payload
func NewHTTPProvider(client *httputil.Client, url, baseCurrency string) *HTTPProvider {
	return &HTTPProvider{client: client, url: url, baseCurrency: baseCurrency, now: time.Now}
}

// Latest fetches and validates the current payload
func (p *HTTPProvider) Latest(ctx context.Context) (*Quote, error) {
	var resp latestResponse
	if err := p.client.GetJSON(ctx, p.url, &resp); err != nil {
		return nil, fmt.Errorf("fetch fx rates: %w", err)
	}

	if resp.Result != "" && resp.Result != "success" {
		return nil, fmt.Errorf("invalid fx payload: result=%q", resp.Result)
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("invalid fx payload: rates missing")
	}

	q := &Quote{
		PerUSD: make(map[string]decimal.Decimal, len(resp.Rates)),
		Source: firstNonEmpty(resp.Provider, resp.Documentation, DefaultSource),
	}
	for ccy, r := range resp.Rates {
		q.PerUSD[strings.ToUpper(strings.TrimSpace(ccy))] = r
	}
	if _, ok := q.PerUSD[p.baseCurrency]; !ok {
		return nil, fmt.Errorf("invalid fx payload: %s not present", p.baseCurrency)
	}

	if resp.TimeLastUpdateUnix != nil {
		q.AsOf = time.Unix(*resp.TimeLastUpdateUnix, 0).UTC()
	} else {
		q.AsOf = p.now().UTC()
	}

	return q, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
