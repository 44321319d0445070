// Package app はアプリケーションの起動とワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kararman/internal/assistant"
	"github.com/hitoshi/kararman/internal/config"
	"github.com/hitoshi/kararman/internal/credit"
	"github.com/hitoshi/kararman/internal/database"
	"github.com/hitoshi/kararman/internal/decision"
	"github.com/hitoshi/kararman/internal/gemini"
	"github.com/hitoshi/kararman/internal/handler"
	"github.com/hitoshi/kararman/internal/logger"
	"github.com/hitoshi/kararman/internal/metrics"
	"github.com/hitoshi/kararman/internal/middleware"
	"github.com/hitoshi/kararman/internal/petition"
	"github.com/hitoshi/kararman/internal/repository"
	"github.com/hitoshi/kararman/internal/security"
	"github.com/hitoshi/kararman/internal/worker/cleanup"
	"github.com/hitoshi/kararman/internal/worker/courtlink"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	decisionRepo := repository.NewPostgresDecisionRepo(db)
	purchaseRepo := repository.NewPostgresPurchaseRepo(db)
	courtCaseRepo := repository.NewPostgresCourtCaseRepo(db)
	petitionRepo := repository.NewPostgresPetitionRepo(db)
	chatRepo := repository.NewPostgresChatRepo(db)

	// 3. セキュリティ・メトリクスの初期化
	sanitizer := security.NewContentSanitizer()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. Geminiクライアントの初期化
	geminiClient, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer geminiClient.Close()

	// 5. ドメインサービスの初期化
	decisionService := decision.NewDecisionService(
		decisionRepo, purchaseRepo, courtCaseRepo, sanitizer, collector,
	)
	creditService := credit.NewCreditService(
		decisionRepo, purchaseRepo, collector, slog.Default(),
	)
	petitionService := petition.NewPetitionService(
		petitionRepo, decisionRepo, geminiClient, collector, slog.Default(),
		cfg.AttachmentMaxPages, cfg.AttachmentMaxBytes,
	)
	assistantService := assistant.NewAssistantService(
		chatRepo, geminiClient, collector, slog.Default(), cfg.ChatContextLength,
	)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitUnlock),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		DecisionService: decisionService,
		PageSize:        cfg.PageSize,

		CreditService: creditService,

		PetitionService:    petitionService,
		AttachmentMaxBytes: cfg.AttachmentMaxBytes,

		AssistantService: assistantService,
	})

	// /metrics はAPIルーターの外側でマウントする（ミドルウェアチェーンを通さない）
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.Handle("/", router)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、判例リンクバッチと対話履歴クリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	decisionRepo := repository.NewPostgresDecisionRepo(db)
	courtCaseRepo := repository.NewPostgresCourtCaseRepo(db)
	chatRepo := repository.NewPostgresChatRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 判例リンクバッチジョブの初期化
	courtlinkJob := courtlink.NewBatchJob(
		courtCaseRepo, decisionRepo, collector, slog.Default(),
		courtlink.BatchConfig{
			BatchInterval: cfg.CourtlinkInterval,
			ItemInterval:  cfg.CourtlinkItemInterval,
			BatchSize:     cfg.CourtlinkBatchSize,
			MaxPerCycle:   cfg.CourtlinkMaxPerCycle,
		},
	)

	// 5. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(chatRepo, collector, slog.Default())
	cleanupJob.Retention = cfg.ChatRetention
	cleanupJob.Interval = cfg.CleanupInterval

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("courtlink_interval", cfg.CourtlinkInterval),
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
	)

	// Prometheusスクレイプ用の/metricsをバックグラウンドで提供
	metricsServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      metrics.SetupMetricsRoute(registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()
	defer metricsServer.Close()

	// クリーンアップジョブをバックグラウンドで起動
	go cleanupJob.Start(ctx)

	// 判例リンクバッチをメインgoroutineで実行（ブロッキング）
	courtlinkJob.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
