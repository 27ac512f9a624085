package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tripman/internal/middleware"
)

// HealthPinger はヘルスチェックで使用するDB疎通確認のインターフェース。
type HealthPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// イベント
	EventService EventServiceInterface

	// ユーザー
	UserService UserServiceInterface
	UserFinder  UserFinder

	// 運用
	HealthPinger   HealthPinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → CORS → (Session → CSRF → RateLimit)
//
// 認証ルート（/auth/*）、/health、/metrics はセッション必須のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	eventHandler := NewEventHandler(deps.EventService, deps.UserFinder)
	userHandler := NewUserHandler(deps.UserService, deps.UserFinder)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthPinger))

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// イベント管理
		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)

			// POST /api/events - イベント作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.EventCreateMiddleware()).Post("/", eventHandler.CreateEvent)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvent)
				r.Patch("/", eventHandler.UpdateEvent)
				r.Delete("/", eventHandler.DeleteEvent)

				// 共有・インポート
				r.Get("/share", eventHandler.ShareEvent)
				r.Post("/import", eventHandler.ImportEvent)
			})
		})

		// 参加者一覧
		r.Get("/api/participants", eventHandler.ListParticipants)

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)

			// 管理者専用
			r.Get("/", userHandler.ListUsers)
			r.Patch("/{id}", userHandler.UpdateUserRole)
			r.Delete("/{id}", userHandler.DeleteUser)
		})
	})

	return r
}

// newHealthHandler はDB疎通確認付きのヘルスチェックハンドラーを返す。
func newHealthHandler(pinger HealthPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if pinger != nil {
			if err := pinger.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
