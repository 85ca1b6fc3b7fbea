package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/precatorio/internal/adapter/http/dto"
	fileRepo "github.com/iho/precatorio/internal/adapter/repository/file"
	postgresRepo "github.com/iho/precatorio/internal/adapter/repository/postgres"
	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/infrastructure/postgres"
	"github.com/iho/precatorio/internal/usecase"
)

func tablesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Index table operations",
	}

	cmd.AddCommand(tablesListCmd(opts), tablesImportCmd(opts), tablesExportCmd(opts))

	return cmd
}

func tablesListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tables of the index file",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadStore(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := store.Current()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.IndexListFromDomain(snap))
		},
	}
}

func tablesImportCmd(opts *options) *cobra.Command {
	var (
		databaseURL    string
		migrationsPath string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the PostgreSQL index tables with the tables of the index file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := opts.logger()

			repo, err := fileRepository(opts.indexFile)
			if err != nil {
				return err
			}
			tables, err := repo.LoadTables(ctx)
			if err != nil {
				return err
			}

			if migrationsPath != "" {
				if err := postgres.RunMigrations(databaseURL, migrationsPath, log); err != nil {
					return err
				}
			}

			pool, err := postgres.NewPool(ctx, databaseURL, 2, 1)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := importTables(ctx, postgresRepo.NewIndexRepository(pool), postgresRepo.NewRetrier(log), tables)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tables\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.Flags().StringVar(&migrationsPath, "migrations", "", "Run migrations from this path before importing")

	return cmd
}

// importTables replaces each table in turn. A table is replaced atomically;
// a failure leaves earlier tables imported.
func importTables(ctx context.Context, w usecase.IndexWriter, retrier usecase.Retrier, tables []*domain.IndexTable) (int, error) {
	for i, table := range tables {
		op := func() error { return w.ReplaceTable(ctx, table) }

		var err error
		if retrier != nil {
			err = retrier.Retry(ctx, op)
		} else {
			err = op()
		}
		if err != nil {
			return i, fmt.Errorf("failed to import table %s: %w", table.Name, err)
		}
	}
	return len(tables), nil
}

func tablesExportCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tables of the index file as YAML or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := fileRepository(opts.indexFile)
			if err != nil {
				return err
			}
			tables, err := repo.LoadTables(cmd.Context())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			switch strings.ToLower(filepath.Ext(out)) {
			case ".yaml", ".yml":
				data, err := fileRepo.MarshalYAML(tables)
				if err != nil {
					return err
				}
				buf.Write(data)
			case ".xlsx":
				if err := fileRepo.WriteXLSX(&buf, tables); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported output %q, expected .yaml, .yml or .xlsx", out)
			}

			return os.WriteFile(out, buf.Bytes(), 0o644)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (.yaml, .yml or .xlsx)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func healthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check readiness of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: opts.timeout}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, opts.baseURL+"/ready", nil)
			if err != nil {
				return err
			}

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("error making request: %w", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server not ready (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ready: %s\n", strings.TrimSpace(string(body)))
			return nil
		},
	}
}

func migrateCmd(opts *options) *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the index table schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "migrations", "Migrations directory")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrations(databaseURL, migrationsPath, opts.logger())
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrationsDown(databaseURL, migrationsPath, opts.logger())
			},
		},
	)

	return cmd
}
