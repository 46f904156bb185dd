package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundtrace/pkg/config"
	"github.com/wonny/fundtrace/pkg/httputil"
	"github.com/wonny/fundtrace/pkg/logger"
)

// Example_getJSON fetches a JSON document with retry and a local rate limit
func Example_getJSON() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
	}
	log := logger.New(cfg)

	client := httputil.NewWithTimeout(cfg, log, 10*time.Second).
		WithRetry(2, 500*time.Millisecond).
		WithLocalRateLimit(1, 1)

	var payload struct {
		Result string             `json:"result"`
		Rates  map[string]float64 `json:"rates"`
	}

	ctx := context.Background()
	if err := client.GetJSON(ctx, "https://open.er-api.com/v6/latest/USD", &payload); err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("THB per USD: %.4f\n", payload.Rates["THB"])
}

// Example_disableRetry shows a single-shot request
func Example_disableRetry() {
	cfg := &config.Config{Env: "development", LogLevel: "error"}
	log := logger.New(cfg)

	client := httputil.New(cfg, log).DisableRetry()

	resp, err := client.Get(context.Background(), "https://open.er-api.com/v6/latest/USD")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("Status: %d\n", resp.StatusCode)
}
