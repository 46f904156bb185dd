package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// fxCmd represents the fx command
var fxCmd = &cobra.Command{
	Use:   "fx",
	Short: "FX 환율 테이블 관리",
}

// fxFetchCmd represents the fx fetch command
var fxFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "최신 환율을 받아 FX 테이블에 upsert",
	Long: `USD 기준 최신 환율을 받아 기준통화 환산율(rate_to_base)로 변환 후 FX 테이블에 upsert 합니다.

rate_to_base = (base / USD) ÷ (ccy / USD), 기준통화 자신은 1.

API 호출이 실패해도 FX 테이블의 최신 일자가 FX_STALE_MAX_DAYS 이내면 성공으로 처리합니다.

Example:
  go run ./cmd/trace fx fetch
  FX_SYMBOLS=THB,USD,EUR go run ./cmd/trace fx fetch`,
	RunE: runFXFetch,
}

func init() {
	rootCmd.AddCommand(fxCmd)
	fxCmd.AddCommand(fxFetchCmd)
}

func runFXFetch(cmd *cobra.Command, args []string) error {
	a, err := loadApp(0)
	if err != nil {
		return err
	}
	if err := a.connect(); err != nil {
		return err
	}
	if err := a.connectRedis(); err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	res, err := a.fxFetcher().Run(ctx)
	if err != nil {
		return fmt.Errorf("fx fetch failed: %w", err)
	}

	if res.Stale {
		fmt.Printf("⚠️  FX API unavailable; using stored rates date=%s age_days=%d (max %d)\n",
			res.Date.Format("2006-01-02"), res.AgeDays, a.cfg.FX.StaleMaxDays)
		return nil
	}
	fmt.Printf("✅ FX upsert done. date=%s rows=%d table=%s source=%s\n",
		res.Date.Format("2006-01-02"), res.Rows, a.engine.Currency.FxTable, res.Provider)
	return nil
}
