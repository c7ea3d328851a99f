package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Auth      Authenticator
	Creator   BackupCreator
	Restorer  BackupRestorer
	Catalog   BackupCatalog
	Retention BackupRetention
	JWTSecret string
	// OperationTimeout límite de cada operación de respaldo (0 = sin límite).
	OperationTimeout time.Duration
	// Gatherer si no es nil se expone en GET /metrics.
	Gatherer prometheus.Gatherer
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Documento Swagger registrado por el paquete docs
	api.Get("/docs/doc.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "documento no registrado"})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.SendString(doc)
	})

	// Auth (público)
	authHandler := NewAuthHandler(deps.Auth)
	api.Post("/auth/login", authHandler.Login)

	// Respaldos: solo operador de plataforma
	backups := api.Group("/admin/backups", AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin))
	h := NewBackupHandler(deps.Creator, deps.Restorer, deps.Catalog, deps.Retention, deps.OperationTimeout)

	backups.Get("/", h.List)
	backups.Get("/statistics", h.Statistics)
	backups.Get("/entity/:id", h.ListForEntity)

	backups.Post("/system", h.CreateSystem)
	backups.Post("/tenant/:id", h.CreateTenant)
	backups.Post("/user/:id", h.CreateUser)

	backups.Post("/restore/system/:backupId", h.RestoreSystem)
	backups.Post("/restore/tenant/:id/:backupId", h.RestoreTenant)
	backups.Post("/restore/user/:id/:backupId", h.RestoreUser)

	backups.Post("/cleanup", h.Cleanup)
	backups.Post("/reconcile", h.Reconcile)
	backups.Delete("/:backupId", h.Delete)
}
