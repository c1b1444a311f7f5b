package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/insight/internal/api"
	"github.com/wonny/insight/internal/api/handlers"
	"github.com/wonny/insight/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                - Health check
  GET  /metrics               - Prometheus metrics
  GET  /api/ohlc              - 일봉 조회
  GET  /api/insights          - 인사이트 조회
  GET  /api/stock_score       - 종합점수 조회
  POST /api/run_scanner       - 스캔 실행
  POST /api/upload-screened   - 스크리닝 CSV 업로드
  GET  /ws/scores             - 종합점수 스트림 (WebSocket)

Example:
  go run ./cmd/scanner api
  go run ./cmd/scanner api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := redis.NewRateLimiter(a.redis, "insight")

	routes := api.Routes{
		Health:   handlers.NewHealthHandler(a.store, a.log),
		Insights: handlers.NewInsightHandler(a.store, a.log),
		Scanner:  handlers.NewScannerHandler(a.store.Symbols(), a.scanner, a.daily, limiter, a.cfg.Scan.RunLimit, a.log),
		Feed:     a.hub,
	}
	if a.cfg.MetricsEnabled {
		routes.Metrics = a.metrics
	}

	server := api.New(a.cfg, apiPort, a.log, api.NewRouter(routes, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running (port %s)\n", firstNonEmpty(apiPort, a.cfg.Port))
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
