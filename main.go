package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/api"
	"buildmatrix/internal/auth"
	"buildmatrix/internal/config"
	"buildmatrix/internal/logger"
	"buildmatrix/internal/store"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	envFile := flag.String("env", ".env", "dotenv file loaded when present")
	flag.Parse()

	cfg, err := config.Load(config.WithConfigFile(*configFile), config.WithEnvFile(*envFile))
	if err != nil {
		logger.New(logger.Config{Level: "info", Format: "json"}).
			WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Log)
	gin.SetMode(cfg.Server.GinMode)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := store.Open(startCtx, cfg.Database, log)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	ttl, err := cfg.Auth.TokenTTL()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, ttl)
	if err != nil {
		return err
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	if err := api.EnsureAdmin(ctx, db, hasher, cfg.Admin, log); err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(api.Options{
			Store:       db,
			Tokens:      tokens,
			Hasher:      hasher,
			Logger:      log,
			CORSOrigins: cfg.Server.AllowedOrigins(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          stdlog.New(log.WithComponent("http").Zerolog(), "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", map[string]interface{}{"addr": srv.Addr, "driver": string(db.Dialect())})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
