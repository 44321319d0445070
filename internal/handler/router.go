package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kararman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 決定閲覧
	DecisionService DecisionServiceInterface
	PageSize        int

	// クレジット
	CreditService CreditServiceInterface

	// 申立書
	PetitionService    PetitionServiceInterface
	AttachmentMaxBytes int64

	// アシスタント
	AssistantService AssistantServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Identity → RateLimit(General)
//
// 決定一覧・詳細・カテゴリは匿名アクセス可（未解錠コンテンツはマスク表示）。
// それ以外のAPIは認証済みユーザーを必須とする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewIdentityMiddleware())
	r.Use(deps.RateLimiter.GeneralMiddleware())

	decisionHandler := NewDecisionHandler(deps.DecisionService, deps.PageSize)
	creditHandler := NewCreditHandler(deps.CreditService)
	petitionHandler := NewPetitionHandler(deps.PetitionService, deps.AttachmentMaxBytes)
	assistantHandler := NewAssistantHandler(deps.AssistantService)

	// --- 匿名アクセス可のルート ---

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/decisions", func(r chi.Router) {
		r.Get("/", decisionHandler.ListDecisions)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", decisionHandler.GetDecision)

			// POST /api/decisions/{id}/unlock - 閲覧権購入（購入専用レート制限を追加）
			r.With(middleware.RequireUser(), deps.RateLimiter.UnlockMiddleware()).
				Post("/unlock", creditHandler.Unlock)
		})
	})

	r.Get("/api/categories", decisionHandler.ListCategories)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser())

		// クレジット
		r.Route("/api/credits", func(r chi.Router) {
			r.Get("/balance", creditHandler.Balance)
			r.Post("/grant", creditHandler.Grant)
		})

		// 申立書起草
		r.Route("/api/petitions", func(r chi.Router) {
			r.Post("/", petitionHandler.Create)
			r.Get("/", petitionHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", petitionHandler.Get)
				r.Put("/", petitionHandler.Update)
				r.Delete("/", petitionHandler.Delete)
				r.Post("/generate", petitionHandler.Generate)
				r.Post("/attachments", petitionHandler.UploadAttachment)
				r.Get("/attachments", petitionHandler.ListAttachments)
			})
		})

		// AIアシスタント
		r.Route("/api/assistant", func(r chi.Router) {
			r.Post("/chat", assistantHandler.Chat)
			r.Get("/history", assistantHandler.History)
		})
	})

	return r
}
