package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/wonny/fundtrace/internal/contracts"
)

// Exit codes
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInputShape = 2 // 필수 원천 테이블/컬럼 누락
)

var (
	// Global flags
	engineConfigPath string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trace",
	Short: "fundtrace - 펀드 look-through 익스포저 엔진",
	Long: `fundtrace Unified CLI

Feeder fund → master fund → 실제 보유 종목/섹터/국가까지 추적하는 배치 엔진.
6단계 파이프라인 (S0 Source → S5 Mart) 으로 대시보드 마트를 빌드합니다.

Usage:
  go run ./cmd/trace [command]

Examples:
  go run ./cmd/trace build
  go run ./cmd/trace build --top-n 20 --strict
  go run ./cmd/trace check
  go run ./cmd/trace fx fetch
  go run ./cmd/trace export --format xlsx --out dashboard.xlsx
  go run ./cmd/trace api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var shape *contracts.InputShapeError
	if errors.As(err, &shape) {
		return ExitInputShape
	}
	return ExitFailure
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&engineConfigPath, "config", "", "engine config YAML (default: TRACE_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
