package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/s2_signals"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [symbols...]",
	Short: "심볼 스캔 실행",
	Long: `지정한 심볼(또는 스크리닝 유니버스 전체)을 스캔합니다.

각 심볼에 대해:
- 최근 캔들 윈도우 로드
- 등록된 디텍터 실행 (EMA cross, RSI, breakout, cup & handle)
- 신호 및 종합점수 저장

Example:
  go run ./cmd/scanner scan INFY TCS
  go run ./cmd/scanner scan INFY --date 2024-03-01
  go run ./cmd/scanner scan --all`,
	RunE: runScan,
}

var (
	scanDate string
	scanAll  bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanDate, "date", "", "거래일 (YYYY-MM-DD, 기본: 오늘)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "스크리닝 유니버스 전체 스캔")
}

func parseScanDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
	}
	return d, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	if !scanAll && len(args) == 0 {
		return errors.New("give at least one symbol or --all")
	}

	date, err := parseScanDate(scanDate)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var report *s2_signals.BatchReport
	var symbols []string
	if scanAll {
		report, err = a.daily.Scan(ctx, date)
	} else {
		for _, s := range args {
			symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
		}
		report, err = a.batch.Run(ctx, symbols, date)
	}
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if len(symbols) > 0 {
		printScores(ctx, a.store.Insights(), symbols, date)
	}
	return nil
}

func printReport(r *s2_signals.BatchReport) {
	PrintHeader(fmt.Sprintf("Scan Report %s", r.Date.Format("2006-01-02")))
	PrintKeyValue("Total", fmt.Sprintf("%d", r.Total), 10)
	PrintKeyValue("Scanned", fmt.Sprintf("%d", r.Scanned), 10)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", r.Skipped), 10)
	PrintKeyValue("Failed", fmt.Sprintf("%d", r.Failed), 10)
	PrintKeyValue("Signals", fmt.Sprintf("%d", r.Signals), 10)
	PrintKeyValue("Scores", fmt.Sprintf("%d", r.Scores), 10)
	PrintKeyValue("Faults", fmt.Sprintf("%d", r.Faults), 10)
	PrintKeyValue("Dropped", fmt.Sprintf("%d", r.Dropped), 10)
	PrintKeyValue("Duration", r.Duration.Round(time.Millisecond).String(), 10)
	PrintSeparator()

	for _, msg := range r.Errors {
		PrintError(msg)
	}
	switch {
	case r.Cancelled > 0:
		PrintWarning(fmt.Sprintf("%d symbols cancelled", r.Cancelled))
	case r.Failed > 0:
		PrintWarning(fmt.Sprintf("%d symbols failed", r.Failed))
	default:
		PrintSuccess("Scan completed")
	}
}

func printScores(ctx context.Context, insights contracts.InsightRepository, symbols []string, date time.Time) {
	fmt.Println()
	widths := []int{12, 10, 40}
	PrintTableHeader([]string{"SYMBOL", "COMBINED", "INSIGHTS"}, widths)

	for _, symbol := range symbols {
		score, err := insights.GetCompositeScore(ctx, symbol, date)
		if err != nil {
			if !errors.Is(err, contracts.ErrNotFound) {
				PrintError(fmt.Sprintf("%s: %v", symbol, err))
				continue
			}
			PrintTableRow([]string{symbol, "-", "no signals"}, widths)
			continue
		}

		parts := make([]string, 0, len(score.Details.Insights))
		for _, c := range score.Details.Insights {
			parts = append(parts, fmt.Sprintf("%s(%+.2f)", c.Type, c.Score))
		}
		PrintTableRow([]string{
			symbol,
			fmt.Sprintf("%+.4f", score.Combined),
			strings.Join(parts, " "),
		}, widths)
	}
}
