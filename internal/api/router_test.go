package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundtrace/internal/api/handlers"
	"github.com/wonny/fundtrace/internal/mart"
	"github.com/wonny/fundtrace/pkg/config"
	"github.com/wonny/fundtrace/pkg/logger"
	"github.com/wonny/fundtrace/pkg/redis"
)

type fakeReader struct {
	err   error
	panic bool

	lastAll   bool
	lastLimit int
	lastQuery string
}

func (f *fakeReader) Dashboard(ctx context.Context) (*mart.DashboardCard, error) {
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	sector := "Technology"
	return &mart.DashboardCard{BaseCurrency: "THB", TotalHoldingsValue: 149700, TopSectorName: &sector, MappedFundCount: 2}, nil
}

func (f *fakeReader) TopHoldings(ctx context.Context, all bool) ([]mart.HoldingRow, error) {
	f.lastAll = all
	return []mart.HoldingRow{{RankNo: 1, HoldingKey: "AAPL", HoldingName: "Apple Inc"}}, f.err
}

func (f *fakeReader) Sectors(ctx context.Context, limit int) ([]mart.AllocationRow, error) {
	f.lastLimit = limit
	return []mart.AllocationRow{{RankNo: 1, Name: "Technology"}}, f.err
}

func (f *fakeReader) Countries(ctx context.Context, limit int) ([]mart.AllocationRow, error) {
	f.lastLimit = limit
	return []mart.AllocationRow{{RankNo: 1, Name: "United States"}}, f.err
}

func (f *fakeReader) SearchByFund(ctx context.Context, fundCode string, limit int) ([]mart.SearchRow, error) {
	f.lastQuery, f.lastLimit = fundCode, limit
	return []mart.SearchRow{{FundCode: fundCode, HoldingKey: "AAPL"}}, f.err
}

func (f *fakeReader) SearchByAsset(ctx context.Context, q string, limit int) ([]mart.SearchRow, error) {
	f.lastQuery, f.lastLimit = q, limit
	return []mart.SearchRow{{FundCode: "F1", HoldingKey: "AAPL"}, {FundCode: "F2", HoldingKey: "AAPL"}}, f.err
}

func (f *fakeReader) LatestRun(ctx context.Context) (*mart.RunLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &mart.RunLog{RunID: "run-1", BaseCurrency: "THB", TopN: 10}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

// disabledCache exercises the cache code path without a Redis server
func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "fundtrace")
}

func newTestRouter(t *testing.T, reader *fakeReader, db handlers.Pinger) http.Handler {
	t.Helper()
	log := logger.Nop()
	return NewRouter(
		handlers.NewHealthHandler(ServiceName, db),
		handlers.NewMartHandler(reader, disabledCache(t), log),
		log,
	)
}

func do(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestRouter(t, &fakeReader{}, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceName, body["service"])

	rec, body = do(t, newTestRouter(t, &fakeReader{}, fakePinger{err: errors.New("connection refused")}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestDashboard(t *testing.T) {
	rec, body := do(t, newTestRouter(t, &fakeReader{}, nil), "/api/dashboard")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "THB", body["base_currency"])
	assert.Equal(t, 149700.0, body["total_holdings_value"])
	assert.Equal(t, "Technology", body["top_sector_name"])
	assert.Nil(t, body["top_country_name"])
}

func TestDashboard_NotBuilt(t *testing.T) {
	reader := &fakeReader{err: fmt.Errorf("query dashboard: %w", pgx.ErrNoRows)}
	rec, body := do(t, newTestRouter(t, reader, nil), "/api/dashboard")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "mart not built yet", body["error"])
}

func TestDashboard_ReaderError(t *testing.T) {
	rec, _ := do(t, newTestRouter(t, &fakeReader{err: errors.New("conn reset")}, nil), "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAllocation(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int
		wantAll    bool
	}{
		{"sectors default", "/api/allocation/sectors", http.StatusOK, 0, false},
		{"sectors limit", "/api/allocation/sectors?limit=5", http.StatusOK, 5, false},
		{"countries", "/api/allocation/countries?limit=3", http.StatusOK, 3, false},
		{"holdings top-N", "/api/allocation/holdings", http.StatusOK, 0, false},
		{"holdings all", "/api/allocation/holdings?all=true", http.StatusOK, 0, true},
		{"bad limit", "/api/allocation/sectors?limit=-1", http.StatusBadRequest, 0, false},
		{"bad all", "/api/allocation/holdings?all=maybe", http.StatusBadRequest, 0, false},
		{"bad dimension", "/api/allocation/regions", http.StatusBadRequest, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{}
			rec, body := do(t, newTestRouter(t, reader, nil), tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["error"])
				return
			}
			assert.Equal(t, tt.wantLimit, reader.lastLimit)
			assert.Equal(t, tt.wantAll, reader.lastAll)
			assert.Len(t, body["rows"], 1)
		})
	}
}

func TestSearchByFund(t *testing.T) {
	reader := &fakeReader{}
	rec, body := do(t, newTestRouter(t, reader, nil), "/api/search/fund/K-GLOBAL")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "K-GLOBAL", reader.lastQuery)
	assert.Equal(t, mart.MaxSearchRows, reader.lastLimit)
	assert.Equal(t, 1.0, body["count"])
}

func TestSearchByAsset(t *testing.T) {
	reader := &fakeReader{}
	router := newTestRouter(t, reader, nil)

	rec, body := do(t, router, "/api/search/asset?q=apple&limit=20")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "apple", reader.lastQuery)
	assert.Equal(t, 20, reader.lastLimit)
	assert.Equal(t, 2.0, body["count"])

	rec, _ = do(t, router, "/api/search/asset?q=%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatestRun(t *testing.T) {
	rec, body := do(t, newTestRouter(t, &fakeReader{}, nil), "/api/runs/latest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", body["run_id"])
}

func TestNotFoundAndRecovery(t *testing.T) {
	rec, body := do(t, newTestRouter(t, &fakeReader{}, nil), "/api/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", body["error"])

	rec, body = do(t, newTestRouter(t, &fakeReader{panic: true}, nil), "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}
