package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/fundtrace/internal/brain"
	"github.com/wonny/fundtrace/pkg/redis"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "트레이서빌리티 마트 빌드 (S0-S5)",
	Long: `원천 데이터를 읽어 look-through 익스포저를 계산하고 마트를 전체 교체합니다.

Stages:
  S0 Source     원천 로딩 (펀드/NAV/feeder/master/holdings/FX)
  S1 Bridge     feeder fund → master fund 매핑
  S2 FX         NAV/AUM 기준통화 환산
  S3 Exposure   종목/섹터/지역 실효 익스포저
  S4 Aggregate  순위/커버리지/대시보드
  S5 Mart       단일 트랜잭션으로 테이블 + 뷰 교체

필수 원천 테이블/컬럼이 없으면 exit code 2 로 종료합니다.

Example:
  go run ./cmd/trace build
  go run ./cmd/trace build --config config/trace/fundtrace.yaml --top-n 20
  go run ./cmd/trace build --dry-run`,
	RunE: runBuild,
}

var (
	buildTopN   int
	buildDryRun bool
	buildStrict bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntVar(&buildTopN, "top-n", 0, "top-N ranking size (overrides config)")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "compute everything but skip the mart write")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "abort before the write when in-memory checks fail")
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := loadApp(buildTopN)
	if err != nil {
		return err
	}
	if err := a.connect(); err != nil {
		return err
	}
	defer a.close()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	result, err := orch.Run(ctx, brain.RunConfig{
		DryRun: buildDryRun,
		Strict: buildStrict,
	})
	if result != nil {
		brain.PrintSummary(os.Stdout, result)
		if result.Sanity != nil && !result.Sanity.Passed() {
			result.Sanity.Print(os.Stdout)
		}
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	// 빌드 후 API 캐시 무효화
	if !buildDryRun {
		invalidateCache(ctx, a)
	}
	return nil
}

// invalidateCache drops cached API responses; failures only warn
func invalidateCache(ctx context.Context, a *app) {
	if err := a.connectRedis(); err != nil {
		a.log.WithError(err).Warn("Skipping cache invalidation")
		return
	}
	n, err := a.cache().DeletePrefix(ctx, redis.MartPrefix)
	if err != nil {
		a.log.WithError(err).Warn("Failed to invalidate mart cache")
		return
	}
	a.log.WithField("deleted", n).Debug("Mart cache invalidated")
}
