package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/catalog"
	"studio/internal/credits"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/remote"
	"studio/internal/workspace"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	cat, err := catalog.Load(cfg.EngineCatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load engine catalog")
	}

	remoteOpts := remote.Options{
		BaseURL:        cfg.PlatformBaseURL,
		APIKey:         cfg.PlatformAPIKey,
		Logger:         &logger,
		RequestTimeout: cfg.RemoteTimeout,
	}
	direct, err := remote.NewDirectClient(remoteOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build direct client")
	}
	jobs, err := remote.NewJobClient(remoteOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build job client")
	}
	media, err := remote.NewMediaClient(remoteOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build media client")
	}
	session, err := remote.NewSessionClient(remoteOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build session client")
	}

	orchestrator := workspace.New(workspace.Options{
		Logger:       logger,
		Catalog:      cat,
		Ledger:       credits.NewLedger(0),
		Direct:       direct,
		Jobs:         jobs,
		Media:        media,
		Session:      session,
		PollInterval: cfg.JobPollInterval,
		PollTimeout:  cfg.JobPollTimeout,
	})
	defer orchestrator.Close()

	// Seed the ledger from the platform before serving. A failure here is
	// tolerated: the balance stays zero until the next resync.
	orchestrator.ResyncBalance(context.Background())

	app := handlers.NewApp(logger, orchestrator, cat)
	router := httpapi.NewRouter(app, *cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("studio listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("studio stopped")
}
