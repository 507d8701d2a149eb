package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nova/config"
	"nova/controllers"
	"nova/middlewares"
	"nova/routes"
	"nova/services/connmon"
	"nova/services/offline"
	"nova/services/session"
	"nova/services/suggest"
	"nova/sources/psql"
	"nova/sources/psql/dao"
	"nova/utils/logging"
)

func main() {
	// No .env is fine; the system environment wins either way.
	_ = godotenv.Load()
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	resourceDAO := dao.NewResourceDAO(db.DB)

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	monitor := connmon.NewMonitor(nil)

	assets := cfg.ShellAssets
	if discovered, err := offline.DiscoverAssets(ctx, httpClient, cfg.BackendURL+"/"); err == nil && len(discovered) > 0 {
		assets = append(assets, discovered...)
	}

	gateway, err := offline.NewGateway(resourceDAO, cfg.BackendURL, cfg.CacheVersion, assets, httpClient)
	if err != nil {
		logging.ErrorLogger.Error("gateway setup error", zap.Error(err))
		os.Exit(1)
	}
	if err := gateway.Install(ctx); err != nil {
		// A cold warm set is not fatal: the gateway still serves live
		// content, and prior versions keep their entries until a
		// successful install activates the new one.
		logging.ErrorLogger.Error("offline cache install failed", zap.Error(err))
	} else if err := gateway.Activate(ctx); err != nil {
		logging.ErrorLogger.Error("offline cache activation failed", zap.Error(err))
	}

	static := make([]suggest.Suggestion, 0, len(cfg.Suggestions))
	for _, s := range cfg.Suggestions {
		static = append(static, suggest.Suggestion{Text: s.Text, Icon: s.Icon, Category: s.Category})
	}
	if len(static) == 0 {
		static = suggest.DefaultSuggestions()
	}
	ranker := suggest.NewRanker(cfg.BackendURL+"/api/v1/chat/suggestions", httpClient, cfg.SuggestionTTL, static)

	asker := &session.HTTPAsker{Endpoint: cfg.BackendURL + "/api/v1/chat/ask", Client: httpClient}
	manager := session.NewManager(asker, ranker, monitor)
	chatCtrl := controllers.NewChatController(manager, ranker, monitor)
	healthCtrl := controllers.NewHealthController(monitor, manager)

	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()
	session.StartHealthLoop(loopCtx, httpClient, cfg.BackendURL+"/health", cfg.HealthInterval, monitor)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CORS([]string{"*"}))

	r.Mount("/api/v1/chat", routes.ChatRoutes(chatCtrl))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	// Everything else is the page shell, served network-first with the
	// durable cache as fallback.
	r.Handle("/*", gateway)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("gateway listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
