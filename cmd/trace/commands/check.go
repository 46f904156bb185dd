package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundtrace/internal/s0_source"
	"github.com/wonny/fundtrace/internal/sanity"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "마트 수용 검사 (sanity + smoke)",
	Long: `빌드된 마트에 대해 SQL 수용 검사를 실행합니다.

Sanity:
  - 필수 테이블 존재
  - 종목 익스포저 음수 없음
  - 펀드별 true weight 합계 ≤ 100.5
  - coverage ratio ∈ [0, 1]
  - top-N 순위 중복 없음
  - 대시보드 합계 = 종목 fact 합계 (±1.0)
  - 대시보드 행 수 = 1
Smoke:
  - 핵심 테이블 행 수 ≥ 1

하나라도 실패하면 exit code 1.

Example:
  go run ./cmd/trace check
  go run ./cmd/trace check --skip-smoke`,
	RunE: runCheck,
}

// sourceCheckCmd represents the source-check command
var sourceCheckCmd = &cobra.Command{
	Use:   "source-check",
	Short: "원천 테이블 행 수 / 최신 일자 조회",
	Long: `원천 데이터베이스의 각 입력 테이블 행 수와 최신 일자를 출력합니다.
빌드 전에 원천 적재 상태를 확인하는 용도입니다.

Example:
  go run ./cmd/trace source-check`,
	RunE: runSourceCheck,
}

var checkSkipSmoke bool

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(sourceCheckCmd)

	checkCmd.Flags().BoolVar(&checkSkipSmoke, "skip-smoke", false, "run only the sanity checks")
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := loadApp(0)
	if err != nil {
		return err
	}
	if err := a.connect(); err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	checker := sanity.NewChecker(a.mart.Pool, a.log.WithComponent("sanity"))

	reports := []*sanity.Report{checker.RunChecks(ctx)}
	if !checkSkipSmoke {
		reports = append(reports, checker.RunSmoke(ctx))
	}

	var errs []error
	for _, r := range reports {
		r.Print(os.Stdout)
		fmt.Println()
		if err := r.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runSourceCheck(cmd *cobra.Command, args []string) error {
	a, err := loadApp(0)
	if err != nil {
		return err
	}
	if err := a.connect(); err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stats, err := a.loader().Inventory(ctx)
	if err != nil {
		return fmt.Errorf("source inventory: %w", err)
	}

	s0_source.PrintInventory(os.Stdout, stats)
	return nil
}
