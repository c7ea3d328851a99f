// backupctl opera el motor de respaldos desde la línea de comandos, con la misma
// configuración (variables de entorno / .env) que el servicio HTTP.
package main

import (
	"context"
	"os"

	"github.com/jhoicas/Respaldo-api/internal/bootstrap"
	"github.com/jhoicas/Respaldo-api/pkg/config"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
)

func main() {
	if err := newRootCmd(openEngine).Execute(); err != nil {
		// cobra ya imprimió el error
		os.Exit(1)
	}
}

// openEngine carga la configuración y arma el motor. Los logs van a stderr
// para no mezclarse con la salida del comando.
func openEngine(ctx context.Context) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}, os.Stderr)
	engine, err := bootstrap.NewEngine(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &services{
		creator:   engine.Capture,
		restorer:  engine.Restore,
		catalog:   engine.Catalog,
		retention: engine.Retention,
		timeout:   cfg.Backup.OperationTimeout,
		close:     engine.Close,
	}, nil
}
