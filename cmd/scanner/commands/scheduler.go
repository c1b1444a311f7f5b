package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/insight/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/scanner scheduler start
  go run ./cmd/scanner scheduler list
  go run ./cmd/scanner scheduler run daily_insight_scan`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- daily_insight_scan: 평일 18:30 (스크리닝 유니버스 스캔)

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

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// initScheduler wires the app and registers every job
func initScheduler(ctx context.Context) (*app, *scheduler.Scheduler, error) {
	a, err := bootstrap(ctx)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	if err := sched.AddJob(a.daily); err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("add job %s: %w", a.daily.Name(), err)
	}
	return a, sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	a.log.Info("Stopping scheduler...")
	sched.Stop()
	a.log.Info("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	PrintHeader("Registered Jobs")
	widths := []int{22, 18, 20}
	PrintTableHeader([]string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)
	for _, st := range sched.Stats() {
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Format("2006-01-02 15:04")
		}
		PrintTableRow([]string{st.JobName, st.Schedule, next}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	jobName := args[0]
	PrintInfo(fmt.Sprintf("Running job: %s", jobName))

	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		return err
	}

	PrintKeyValue("Duration", result.Duration.Round(time.Millisecond).String(), 10)
	PrintKeyValue("Attempts", fmt.Sprintf("%d", result.Attempts), 10)
	if result.Summary != "" {
		PrintKeyValue("Summary", result.Summary, 10)
	}
	if !result.Success {
		PrintError(result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess("Job completed")
	return nil
}

// showStatus reports schedule and next run; history lives in the running daemon
func showStatus(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	PrintHeader("Job Status")
	for _, st := range sched.Stats() {
		fmt.Printf("📋 %s\n", st.JobName)
		PrintKeyValue("Schedule", st.Schedule, 12)
		if st.NextRun != nil {
			PrintKeyValue("Next run", st.NextRun.Format(time.RFC3339), 12)
		}
		PrintKeyValue("Total runs", fmt.Sprintf("%d", st.TotalRuns), 12)
		PrintKeyValue("Failures", fmt.Sprintf("%d", st.FailureCount), 12)
		PrintKeyValue("Success", fmt.Sprintf("%.0f%%", st.SuccessRate*100), 12)
		if st.LastRun != nil {
			PrintKeyValue("Last run", st.LastRun.StartTime.Format(time.RFC3339), 12)
		}
		PrintSeparator()
	}
	return nil
}
