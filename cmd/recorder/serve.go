package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/recorder/internal/config"
	"github.com/ehr/recorder/internal/domain/biospecimen"
	"github.com/ehr/recorder/internal/domain/patient"
	"github.com/ehr/recorder/internal/platform/auth"
	"github.com/ehr/recorder/internal/platform/db"
	"github.com/ehr/recorder/internal/platform/events"
	"github.com/ehr/recorder/internal/platform/middleware"
)

const version = "0.1.0"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the patient collection and the query relay over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			return runServer(a)
		},
	}
}

// serverDeps are the collaborators newServer wires into routes.
type serverDeps struct {
	repo      patient.Repository
	dbHealth  db.Pinger
	backend   biospecimen.Backend
	publisher events.Publisher
}

func newServer(cfg *config.Config, logger zerolog.Logger, deps serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"X-Total-Count", echo.HeaderContentDisposition},
	}))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"version": version,
		})
	})
	if deps.dbHealth != nil {
		e.GET("/health/db", db.HealthHandler(deps.dbHealth))
	}

	var writeMW []echo.MiddlewareFunc
	if cfg.AuthSigningKey != "" {
		writeMW = append(writeMW, auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	} else {
		logger.Warn().Msg("AUTH_SIGNING_KEY not set: patient mutations are unauthenticated")
	}

	svc := patient.NewService(deps.repo, deps.publisher, logger)
	patient.NewHandler(svc).RegisterRoutes(e.Group(""), writeMW...)

	if deps.backend != nil {
		biospecimen.NewHandler(deps.backend).RegisterRoutes(e.Group("/api"))
	}

	return e
}

func runServer(a *app) error {
	ctx := context.Background()

	repo, pool, closeRepo, err := a.repository(ctx)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("failed to open patient store")
	}
	defer closeRepo()
	a.logger.Info().Str("store", a.cfg.PatientStore).Msg("patient store ready")

	pub := a.publisher()
	defer pub.Close()

	deps := serverDeps{
		repo:      repo,
		backend:   a.queryClient(),
		publisher: pub,
	}
	if pool != nil {
		deps.dbHealth = pool
	}
	e := newServer(a.cfg, a.logger, deps)

	go func() {
		addr := ":" + a.cfg.Port
		a.logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}
