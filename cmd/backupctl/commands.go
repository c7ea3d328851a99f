package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/spf13/cobra"
)

type creator interface {
	Create(ctx context.Context, scope entity.Scope, description string) (*dto.BackupResponse, error)
}

type restorer interface {
	Restore(ctx context.Context, scope entity.Scope, backupID string) (*dto.RestoreResult, error)
}

type catalog interface {
	List(ctx context.Context, typ entity.BackupType) ([]*dto.BackupResponse, error)
	Delete(ctx context.Context, backupID string) (*dto.DeleteBackupResponse, error)
	Statistics(ctx context.Context) (*dto.BackupStatistics, error)
	ReconcileOrphans(ctx context.Context, purge bool) (*dto.ReconcileResult, error)
}

type retention interface {
	Cleanup(ctx context.Context, maxAgeDays int) (*dto.CleanupResult, error)
}

// services lo que necesitan los comandos; se abre una vez por ejecución.
type services struct {
	creator   creator
	restorer  restorer
	catalog   catalog
	retention retention
	timeout   time.Duration
	close     func()
}

type openFunc func(ctx context.Context) (*services, error)

var errNotConfirmed = errors.New("la restauración reemplaza datos vivos: repetir con --yes para confirmar")

// newRootCmd arma el árbol de comandos. open se invoca solo cuando un comando lo necesita.
func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "backupctl",
		Short:        "Respaldo y restauración por sistema, tenant o usuario",
		SilenceUsage: true,
	}

	// run abre los servicios, aplica el timeout de operación y cierra al terminar.
	run := func(cmd *cobra.Command, fn func(ctx context.Context, s *services, out io.Writer) error) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		if s.close != nil {
			defer s.close()
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return fn(ctx, s, cmd.OutOrStdout())
	}

	createCmd := &cobra.Command{
		Use:   "create system | tenant <id> | user <id>",
		Short: "Capturar un respaldo",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(args)
			if err != nil {
				return err
			}
			desc, _ := cmd.Flags().GetString("description")
			return run(cmd, func(ctx context.Context, s *services, out io.Writer) error {
				b, err := s.creator.Create(ctx, scope, desc)
				if err != nil {
					return err
				}
				return printJSON(out, b)
			})
		},
	}
	createCmd.Flags().StringP("description", "d", "", "descripción del respaldo")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar respaldos (más recientes primero)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var typ entity.BackupType
			if t, _ := cmd.Flags().GetString("type"); t != "" {
				parsed, err := entity.ParseBackupType(t)
				if err != nil {
					return err
				}
				typ = parsed
			}
			return run(cmd, func(ctx context.Context, s *services, out io.Writer) error {
				list, err := s.catalog.List(ctx, typ)
				if err != nil {
					return err
				}
				return printBackups(out, list)
			})
		},
	}
	listCmd.Flags().String("type", "", "system | tenant | user")

	restoreCmd := &cobra.Command{
		Use:   "restore system <backupId> | tenant <id> <backupId> | user <id> <backupId>",
		Short: "Restaurar un respaldo sobre la base viva",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(args[:len(args)-1])
			if err != nil {
				return err
			}
			backupID := args[len(args)-1]
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errNotConfirmed
			}
			return run(cmd, func(ctx context.Context, s *services, out io.Writer) error {
				res, err := s.restorer.Restore(ctx, scope, backupID)
				if res != nil {
					if perr := printJSON(out, res); perr != nil && err == nil {
						return perr
					}
				}
				return err
			})
		},
	}
	restoreCmd.Flags().Bool("yes", false, "confirmar la restauración")

	deleteCmd := &cobra.Command{
		Use:   "delete <backupId>",
		Short: "Eliminar un respaldo (archivo y catálogo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *services, out io.Writer) error {
				res, err := s.catalog.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(out, res)
			})
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Eliminar respaldos más antiguos que --days (por defecto BACKUP_RETENTION_DAYS)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days < 0 {
				return fmt.Errorf("--days debe ser positivo")
			}
			return run(cmd, func(ctx context.Context, s *services, out io.Writer) error {
				res, err := s.retention.Cleanup(ctx, days)
				if err != nil {
					return err
				}
				return printJSON(out, res)
			})
		},
	}
	cleanupCmd.Flags().Int("days", 0, "días a conservar")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Estadísticas del catálogo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, s *services, out io.Writer) error {
				st, err := s.catalog.Statistics(ctx)
				if err != nil {
					return err
				}
				return printJSON(out, st)
			})
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Listar archivos de respaldo sin entrada en el catálogo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			purge, _ := cmd.Flags().GetBool("purge")
			return run(cmd, func(ctx context.Context, s *services, out io.Writer) error {
				res, err := s.catalog.ReconcileOrphans(ctx, purge)
				if err != nil {
					return err
				}
				return printJSON(out, res)
			})
		},
	}
	reconcileCmd.Flags().Bool("purge", false, "eliminar los archivos huérfanos")

	root.AddCommand(createCmd, listCmd, restoreCmd, deleteCmd, cleanupCmd, statsCmd, reconcileCmd)
	return root
}

// parseScope interpreta "system", "tenant <id>" o "user <id>".
func parseScope(args []string) (entity.Scope, error) {
	if len(args) == 0 {
		return entity.Scope{}, fmt.Errorf("falta el tipo de respaldo")
	}
	typ, err := entity.ParseBackupType(args[0])
	if err != nil {
		return entity.Scope{}, err
	}
	scope := entity.Scope{Type: typ}
	if len(args) > 1 {
		scope.ID = args[1]
	}
	if len(args) > 2 {
		return entity.Scope{}, fmt.Errorf("demasiados argumentos")
	}
	if err := scope.Validate(); err != nil {
		return entity.Scope{}, err
	}
	return scope, nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func printBackups(out io.Writer, list []*dto.BackupResponse) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No hay respaldos.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIPO\tENTIDAD\tTAMAÑO\tCREADO\tDESCRIPCIÓN")
	for _, b := range list {
		entityCol := b.EntityName
		if entityCol == "" {
			entityCol = b.EntityID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			b.ID, b.Type, entityCol, b.SizeBytes, b.CreatedAt.Format(time.RFC3339), b.Description)
	}
	return w.Flush()
}
