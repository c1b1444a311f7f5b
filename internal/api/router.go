package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/insight/internal/api/handlers"
	"github.com/wonny/insight/pkg/logger"
)

// Routes bundles the handlers mounted by NewRouter
type Routes struct {
	Health   *handlers.HealthHandler
	Insights *handlers.InsightHandler
	Scanner  *handlers.ScannerHandler
	Feed     http.Handler             // nil disables /ws/scores
	Metrics  HTTPMetrics              // nil disables /metrics
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", routes.Health.Health).Methods(http.MethodGet)
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics.Handler()).Methods(http.MethodGet)
	}
	if routes.Feed != nil {
		r.Handle("/ws/scores", routes.Feed).Methods(http.MethodGet)
	}

	// /api 라우트는 루트 라우터에 직접 등록 (메서드 불일치 시 405)
	// 조회
	r.HandleFunc("/api/ohlc", routes.Insights.GetOHLC).Methods(http.MethodGet)
	r.HandleFunc("/api/insights", routes.Insights.GetInsights).Methods(http.MethodGet)
	r.HandleFunc("/api/stock_score", routes.Insights.GetStockScore).Methods(http.MethodGet)

	// 실행
	r.HandleFunc("/api/run_scanner", routes.Scanner.RunScanner).Methods(http.MethodPost)
	r.HandleFunc("/api/upload-screened", routes.Scanner.UploadScreened).Methods(http.MethodPost)

	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log, routes.Metrics))

	return r
}
