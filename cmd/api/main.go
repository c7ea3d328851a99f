package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jhoicas/Respaldo-api/docs"
	"github.com/jhoicas/Respaldo-api/internal/application/auth"
	"github.com/jhoicas/Respaldo-api/internal/bootstrap"
	httpRouter "github.com/jhoicas/Respaldo-api/internal/interfaces/http"
	"github.com/jhoicas/Respaldo-api/pkg/config"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}
	if cfg.Admin.Email == "" || cfg.Admin.PasswordHash == "" {
		log.Warn().Msg("ADMIN_EMAIL/ADMIN_PASSWORD_HASH sin definir: el login de operador quedará deshabilitado")
	}

	ctx := context.Background()
	engine, err := bootstrap.NewEngine(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar motor de respaldos")
	}
	defer engine.Close()

	// Archivos sin entrada de catálogo tras una caída previa
	reconcileCtx, cancelReconcile := context.WithTimeout(ctx, time.Minute)
	if res, err := engine.Catalog.ReconcileOrphans(reconcileCtx, cfg.Backup.PurgeOrphans); err != nil {
		log.Error().Err(err).Msg("reconciliación de huérfanos")
	} else if len(res.Orphans) > 0 {
		log.Warn().Int("orphans", len(res.Orphans)).Bool("purged", res.Purged).Msg("archivos de respaldo huérfanos")
	}
	cancelReconcile()

	authUC := auth.NewAdminAuthUseCase(
		auth.Operator{Email: cfg.Admin.Email, PasswordHash: cfg.Admin.PasswordHash},
		auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		},
	)

	// Los respaldos de sistema pueden tardar minutos: el timeout HTTP acompaña al de operación.
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Backup.OperationTimeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Respaldo API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	deps := httpRouter.RouterDeps{
		Auth:             authUC,
		Creator:          engine.Capture,
		Restorer:         engine.Restore,
		Catalog:          engine.Catalog,
		Retention:        engine.Retention,
		JWTSecret:        cfg.JWT.Secret,
		OperationTimeout: cfg.Backup.OperationTimeout,
	}
	if engine.Registry != nil {
		deps.Gatherer = engine.Registry
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
