package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ennygo-server/internal/config"
	"ennygo-server/internal/database"
	"ennygo-server/internal/handlers"
	"ennygo-server/internal/metrics"
	"ennygo-server/internal/middleware"
	"ennygo-server/internal/oauth"
	"ennygo-server/internal/processor"
	"ennygo-server/internal/strava"
	"ennygo-server/internal/titles"
)

func main() {
	listSubs := flag.Bool("list-subscriptions", false, "list webhook subscriptions and exit")
	createSub := flag.Bool("create-subscription", false, "register the webhook subscription and exit")
	deleteSub := flag.Int("delete-subscription", 0, "delete the webhook subscription with the given id and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	if *listSubs || *createSub || *deleteSub != 0 {
		if err := runCLI(cfg, *listSubs, *createSub, *deleteSub); err != nil {
			slog.Error("subscription command failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// runCLI manages the Strava webhook subscription from the command line
func runCLI(cfg *config.Config, list, create bool, deleteID int) error {
	client := strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret)

	switch {
	case list:
		subs, err := client.ListSubscriptions()
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Println("no subscriptions")
			return nil
		}
		for _, sub := range subs {
			fmt.Printf("id=%d callback=%s\n", sub.ID, sub.CallbackURL)
		}
		return nil

	case create:
		if cfg.Domain == "" {
			return fmt.Errorf("DOMAIN must be set to register a subscription")
		}
		callbackURL := fmt.Sprintf("https://%s/webhook", cfg.Domain)
		sub, err := client.CreateSubscription(callbackURL, cfg.StravaVerifyToken)
		if err != nil {
			return err
		}
		fmt.Printf("created subscription id=%d callback=%s\n", sub.ID, sub.CallbackURL)
		return nil

	default:
		if err := client.DeleteSubscription(deleteID); err != nil {
			return err
		}
		fmt.Printf("deleted subscription id=%d\n", deleteID)
		return nil
	}
}

func runServer(cfg *config.Config) error {
	slog.Info("starting ennygo server",
		"host", cfg.Host,
		"port", cfg.Port,
		"environment", cfg.Environment)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	client := strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret)
	gen := titles.NewGenerator()
	proc := processor.New(db, client, gen)
	manager := oauth.NewManager(cfg.StravaClientID, client, db)

	redirectURI := fmt.Sprintf("http://%s:%d/oauth/callback", cfg.Host, cfg.Port)
	if cfg.Domain != "" {
		redirectURI = fmt.Sprintf("https://%s/oauth/callback", cfg.Domain)
	}

	webhookHandler := handlers.NewWebhookHandler(cfg.StravaVerifyToken, proc)
	activitiesHandler := handlers.NewActivitiesHandler(db, client, manager)
	athleteHandler := handlers.NewAthleteHandler(db, client, manager)
	oauthHandler := handlers.NewOAuthHandler(manager, redirectURI)
	healthHandler := handlers.NewHealthHandler(db, cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/webhook", middleware.MetricsMiddleware(metrics.EndpointWebhook)(webhookHandler))
	mux.Handle("/activities", middleware.MetricsMiddleware(metrics.EndpointActivities)(activitiesHandler))
	mux.Handle("/athlete", middleware.WrapHandler(metrics.EndpointAthlete, athleteHandler.HandleProfile))
	mux.Handle("/athlete/activities", middleware.WrapHandler(metrics.EndpointAthleteActivity, athleteHandler.HandleActivities))
	mux.Handle("/oauth/start", middleware.WrapHandler(metrics.EndpointOAuthStart, oauthHandler.HandleStart))
	mux.Handle("/oauth/callback", middleware.WrapHandler(metrics.EndpointOAuthCallback, oauthHandler.HandleCallback))
	mux.Handle("/oauth/disconnect", middleware.WrapHandler(metrics.EndpointOAuthDisconnect, oauthHandler.HandleDisconnect))
	mux.Handle("/health", middleware.MetricsMiddleware(metrics.EndpointHealth)(healthHandler))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort),
			Handler: metricsMux,
		}
		go func() {
			slog.Info("metrics server listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
