package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/sessionview/internal/metrics"
	"github.com/hitoshi/sessionview/internal/middleware"
	"github.com/hitoshi/sessionview/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler

	// セッション表示
	SessionService SessionServiceInterface
	Templates      *template.Template
	MarkupDetector security.MarkupDetector
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → RequestID → Logging → Recovery → Metrics → SecurityHeaders → RateLimit
//
// /health、/metrics、/static/* はレート制限の外に配置する。
// CORSは /api/* にのみ適用する。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	static, err := StaticHandler()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	sessionHandler := NewSessionHandler(deps.SessionService, deps.Templates, deps.MarkupDetector, deps.Metrics, deps.Logger)

	// --- レート制限なしのルート ---
	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/static/*", static)

	// --- レート制限ありのルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		r.Get("/", sessionHandler.Index)
		r.Get("/session", sessionHandler.Lookup)
		r.Get("/session/{sessionId}", sessionHandler.ShowSession)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
			r.Get("/sessions/{sessionId}", sessionHandler.GetSessionSummary)
		})
	})

	return r, nil
}
