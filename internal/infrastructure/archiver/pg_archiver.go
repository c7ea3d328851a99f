// Package archiver implementa el volcado y la restauración de la base completa con las
// herramientas nativas de PostgreSQL (pg_dump y psql).
package archiver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Respaldo-api/internal/application/backup"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/pkg/config"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
)

var _ backup.SystemArchiver = (*PgArchiver)(nil)

// Runner ejecuta un proceso externo. Devuelve stderr y el código de salida (-1 si no arrancó).
type Runner func(ctx context.Context, name string, args, env []string) (stderr string, exitCode int, err error)

// step un comando de la secuencia de restauración.
type step struct {
	name string
	bin  string
	args []string
}

// PgArchiver SystemArchiver sobre pg_dump/psql. La contraseña viaja en PGPASSWORD,
// nunca en la línea de comandos.
type PgArchiver struct {
	pgDump string
	psql   string
	db     config.DBConfig
	run    Runner
	log    *logger.Logger
}

// NewPgArchiver construye el archivador con los binarios configurados.
func NewPgArchiver(db config.DBConfig, cfg config.BackupConfig, log *logger.Logger) *PgArchiver {
	return &PgArchiver{
		pgDump: cfg.PgDumpPath,
		psql:   cfg.PsqlPath,
		db:     db,
		run:    execRunner,
		log:    log.Component("backup.archiver"),
	}
}

// WithRunner reemplaza la ejecución de procesos (tests).
func (a *PgArchiver) WithRunner(r Runner) *PgArchiver {
	a.run = r
	return a
}

// Dump vuelca la base completa en texto SQL plano.
func (a *PgArchiver) Dump(ctx context.Context, destPath string) error {
	target, env, err := a.target()
	if err != nil {
		return err
	}
	return a.exec(ctx, env, step{
		name: "dump",
		bin:  a.pgDump,
		args: []string{
			"--no-owner",
			"--no-privileges",
			"--format=plain",
			"--file=" + destPath,
			"--dbname=" + target.String(),
		},
	})
}

// Restore elimina la base, la recrea vacía y reproduce el volcado.
// Si falla un paso posterior al DROP, la base queda vacía o parcial.
func (a *PgArchiver) Restore(ctx context.Context, srcPath string) error {
	target, env, err := a.target()
	if err != nil {
		return err
	}
	dbName := strings.TrimPrefix(target.Path, "/")
	maintenance := *target
	maintenance.Path = "/postgres"
	ident := pgx.Identifier{dbName}.Sanitize()

	steps := []step{
		{name: "drop", bin: a.psql, args: []string{"-v", "ON_ERROR_STOP=1", "--dbname=" + maintenance.String(),
			"-c", "DROP DATABASE IF EXISTS " + ident + " WITH (FORCE)"}},
		{name: "create", bin: a.psql, args: []string{"-v", "ON_ERROR_STOP=1", "--dbname=" + maintenance.String(),
			"-c", "CREATE DATABASE " + ident}},
		{name: "replay", bin: a.psql, args: []string{"-v", "ON_ERROR_STOP=1", "--dbname=" + target.String(),
			"--file=" + srcPath}},
	}
	for _, s := range steps {
		if err := a.exec(ctx, env, s); err != nil {
			return err
		}
		a.log.Info().Str("step", s.name).Str("database", dbName).Msg("paso de restauración de sistema completado")
	}
	return nil
}

// target URL de la base sin contraseña y el entorno con PGPASSWORD.
func (a *PgArchiver) target() (*url.URL, []string, error) {
	u, err := url.Parse(a.db.ConnectionString())
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") || strings.Trim(u.Path, "/") == "" {
		return nil, nil, fmt.Errorf("%w: la conexión a la base debe ser una URL postgres:// con nombre de base", domain.ErrInvalidInput)
	}
	var env []string
	if u.User != nil {
		if pass, ok := u.User.Password(); ok {
			env = append(env, "PGPASSWORD="+pass)
		}
		u.User = url.User(u.User.Username())
	}
	return u, env, nil
}

func (a *PgArchiver) exec(ctx context.Context, env []string, s step) error {
	stderr, code, err := a.run(ctx, s.bin, s.args, env)
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s (%s) salió con código %d: %s",
			domain.ErrExternalTool, s.name, filepath.Base(s.bin), code, msg)
	}
	return nil
}

func execRunner(ctx context.Context, name string, args, env []string) (string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	return stderr.String(), code, err
}
