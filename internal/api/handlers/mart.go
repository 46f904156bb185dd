package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fundtrace/internal/mart"
	"github.com/wonny/fundtrace/pkg/logger"
	"github.com/wonny/fundtrace/pkg/redis"
)

// MartReader is the read side of the traceability mart
type MartReader interface {
	Dashboard(ctx context.Context) (*mart.DashboardCard, error)
	TopHoldings(ctx context.Context, all bool) ([]mart.HoldingRow, error)
	Sectors(ctx context.Context, limit int) ([]mart.AllocationRow, error)
	Countries(ctx context.Context, limit int) ([]mart.AllocationRow, error)
	SearchByFund(ctx context.Context, fundCode string, limit int) ([]mart.SearchRow, error)
	SearchByAsset(ctx context.Context, q string, limit int) ([]mart.SearchRow, error)
	LatestRun(ctx context.Context) (*mart.RunLog, error)
}

// MartHandler serves the dashboard views
// ⭐ SSOT: mart 조회 API 핸들러는 이 구조체에서만
type MartHandler struct {
	reader MartReader
	cache  *redis.Cache // nil → 캐시 없이 직접 조회
	logger *logger.Logger
}

// NewMartHandler creates a new mart handler
func NewMartHandler(reader MartReader, cache *redis.Cache, log *logger.Logger) *MartHandler {
	return &MartHandler{
		reader: reader,
		cache:  cache,
		logger: log,
	}
}

// cached serves key from the response cache, loading it with fn on a miss
func cached[T any](ctx context.Context, c *redis.Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if c == nil {
		return fn()
	}
	var out T
	err := c.GetOrSet(ctx, key, &out, ttl, func() (interface{}, error) {
		return fn()
	})
	return out, err
}

// fail maps a reader error to a response
func (h *MartHandler) fail(w http.ResponseWriter, what string, err error) {
	if notBuilt(err) {
		respondError(w, http.StatusNotFound, "mart not built yet")
		return
	}
	h.logger.WithError(err).Error("Failed to get " + what)
	respondError(w, http.StatusInternalServerError, "failed to get "+what)
}

// GetDashboard returns the single dashboard card
// GET /api/dashboard
func (h *MartHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	card, err := cached(r.Context(), h.cache, redis.DashboardKey(), redis.TTLLong, func() (*mart.DashboardCard, error) {
		return h.reader.Dashboard(r.Context())
	})
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}

	respondJSON(w, http.StatusOK, card)
}

// GetAllocation returns a ranked allocation
// GET /api/allocation/{dimension}?limit=N    (dimension: sectors | countries)
// GET /api/allocation/holdings?all=true      (top-N by default)
func (h *MartHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dimension := mux.Vars(r)["dimension"]

	if dimension == "holdings" {
		all, err := queryBool(r, "all")
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit := 0 // top-N
		if all {
			limit = -1
		}
		rows, err := cached(ctx, h.cache, redis.AllocationKey("holdings", limit), redis.TTLLong, func() ([]mart.HoldingRow, error) {
			return h.reader.TopHoldings(ctx, all)
		})
		if err != nil {
			h.fail(w, "holdings", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"dimension": dimension,
			"rows":      rows,
		})
		return
	}

	var load func(context.Context, int) ([]mart.AllocationRow, error)
	var key string
	switch dimension {
	case "sectors":
		load, key = h.reader.Sectors, "sector"
	case "countries":
		load, key = h.reader.Countries, "country"
	default:
		respondError(w, http.StatusBadRequest, "invalid dimension (valid: holdings, sectors, countries)")
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := cached(ctx, h.cache, redis.AllocationKey(key, limit), redis.TTLLong, func() ([]mart.AllocationRow, error) {
		return load(ctx, limit)
	})
	if err != nil {
		h.fail(w, dimension, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dimension": dimension,
		"rows":      rows,
	})
}

// SearchByFund returns the look-through holdings of a fund
// GET /api/search/fund/{code}?limit=N
func (h *MartHandler) SearchByFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := strings.TrimSpace(mux.Vars(r)["code"])
	if code == "" {
		respondError(w, http.StatusBadRequest, "fund code is required")
		return
	}

	limit, err := queryInt(r, "limit", mart.MaxSearchRows)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := redis.FundExposureKey(fmt.Sprintf("%s:%d", code, limit))
	rows, err := cached(ctx, h.cache, key, redis.TTLMedium, func() ([]mart.SearchRow, error) {
		return h.reader.SearchByFund(ctx, code, limit)
	})
	if err != nil {
		h.fail(w, "fund exposure", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fund_code": code,
		"count":     len(rows),
		"rows":      rows,
	})
}

// SearchByAsset returns the funds exposed to matching holdings
// GET /api/search/asset?q=apple&limit=N
func (h *MartHandler) SearchByAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit, err := queryInt(r, "limit", mart.MaxSearchRows)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := redis.AssetExposureKey(fmt.Sprintf("%s:%d", strings.ToUpper(q), limit))
	rows, err := cached(ctx, h.cache, key, redis.TTLMedium, func() ([]mart.SearchRow, error) {
		return h.reader.SearchByAsset(ctx, q, limit)
	})
	if err != nil {
		h.fail(w, "asset exposure", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query": q,
		"count": len(rows),
		"rows":  rows,
	})
}

// GetLatestRun returns the most recent build
// GET /api/runs/latest
func (h *MartHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := cached(r.Context(), h.cache, redis.LatestRunKey(), redis.TTLShort, func() (*mart.RunLog, error) {
		return h.reader.LatestRun(r.Context())
	})
	if err != nil {
		h.fail(w, "latest run", err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}
