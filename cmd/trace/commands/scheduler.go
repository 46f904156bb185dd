package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundtrace/internal/scheduler"
	"github.com/wonny/fundtrace/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (동기)

Example:
  go run ./cmd/trace scheduler start
  go run ./cmd/trace scheduler list
  go run ./cmd/trace scheduler run mart_build`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- fx_fetch:   매일 (FX_SCHEDULE, 기본 05:30:00)
- mart_build: 6시간마다 (BUILD_SCHEDULE) FX 갱신 → 빌드 → 캐시 무효화 → export

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var (
	schedulerStrict bool
	schedulerExport string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().BoolVar(&schedulerStrict, "strict", false, "abort builds when in-memory checks fail")
	schedulerCmd.PersistentFlags().StringVar(&schedulerExport, "export", "", "write the dashboard payload here after each build (.json|.xlsx)")
}

// initScheduler wires the FX and build jobs
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	orch, err := a.orchestrator()
	if err != nil {
		return nil, err
	}

	log := a.log.WithComponent("jobs")
	fetcher := a.fxFetcher()

	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewFXFetchJob(fetcher, a.cfg.Schedule.FXFetch, log)); err != nil {
		return nil, err
	}

	build := jobs.NewBuildJob(jobs.BuildJobConfig{
		Schedule: a.cfg.Schedule.Build,
		Strict:   schedulerStrict,
		Pipeline: orch,
		FX:       fetcher,
		Cache:    a.cache(),
		Export:   scheduledExport(a, schedulerExport, log),
	}, log)
	if err := sched.AddJob(build); err != nil {
		return nil, err
	}

	return sched, nil
}

// bootScheduler loads config and connects everything a job needs
func bootScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := loadApp(0)
	if err != nil {
		return nil, nil, err
	}
	a.appName = "fundtrace-scheduler"
	if err := a.connect(); err != nil {
		a.close()
		return nil, nil, err
	}
	if err := a.connectRedis(); err != nil {
		a.close()
		return nil, nil, err
	}

	sched, err := initScheduler(a)
	if err != nil {
		a.close()
		return nil, nil, fmt.Errorf("init scheduler: %w", err)
	}
	return a, sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== fundtrace Scheduler ===")

	a, sched, err := bootScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := bootScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, sched, err := bootScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	jobName := args[0]
	fmt.Printf("Running job: %s\n", jobName)

	res, err := sched.RunNow(ctx, jobName)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s completed in %s (attempts: %d)\n", jobName, res.Duration.Round(time.Millisecond), res.Attempts)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSCHEDULE\tNEXT RUN\tLAST SUCCESS\tFAIL STREAK")
	for _, name := range sched.GetAllJobs() {
		st := stats[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", name, st.Schedule, formatTime(st.NextRun), formatTime(st.LastSuccess), st.FailStreak)
	}
	tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
