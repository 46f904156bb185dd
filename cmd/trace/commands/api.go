package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundtrace/internal/api"
	"github.com/wonny/fundtrace/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "대시보드 API 서버 시작 (읽기 전용)",
	Long: `마트 뷰를 읽는 REST API 서버를 시작합니다.
REDIS_ENABLED=true 면 응답을 Redis 에 캐시하고, build 완료 시 무효화됩니다.

Endpoints:
  GET  /health                              - Health check (DB ping)
  GET  /api/dashboard                       - 대시보드 카드
  GET  /api/allocation/holdings?all=true    - 종목 순위 (기본 top-N)
  GET  /api/allocation/sectors?limit=N      - 섹터 배분
  GET  /api/allocation/countries?limit=N    - 국가 배분
  GET  /api/search/fund/{code}?limit=N      - 펀드별 look-through 보유
  GET  /api/search/asset?q=apple&limit=N    - 종목을 보유한 펀드
  GET  /api/runs/latest                     - 최근 빌드 정보

Example:
  go run ./cmd/trace api
  go run ./cmd/trace api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := loadApp(0)
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.appName = api.ServiceName
	if err := a.connect(); err != nil {
		return err
	}
	if err := a.connectRedis(); err != nil {
		return err
	}
	defer a.close()

	log := a.log.WithComponent("api")

	health := handlers.NewHealthHandler(api.ServiceName, a.mart)
	martHandler := handlers.NewMartHandler(a.reader(), a.cache(), log)
	server := api.New(a.cfg, a.log, api.NewRouter(health, martHandler, log))

	fmt.Printf("\n✅ Server running on http://localhost:%s (cache: %v)\n", a.cfg.Port, a.rdb.Enabled())
	fmt.Println("\nPress Ctrl+C to stop")

	ctx, stop := signalContext()
	defer stop()

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
