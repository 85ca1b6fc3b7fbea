package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	fileRepo "github.com/iho/precatorio/internal/adapter/repository/file"
	postgresRepo "github.com/iho/precatorio/internal/adapter/repository/postgres"
	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/infrastructure/logger"
	"github.com/iho/precatorio/internal/usecase"
)

// options holds the persistent flags.
type options struct {
	indexFile        string
	minimumWageTable string
	baseURL          string
	timeout          time.Duration
	logLevel         string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "precatorio",
		Short:         "Precatório calculation tool",
		Long:          `Monetary correction, withholding and unit-equivalence calculations over index tables kept in a YAML or XLSX file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.indexFile, "index-file", os.Getenv("INDEX_FILE"), "Index tables file (.yaml, .yml or .xlsx)")
	flags.StringVar(&opts.minimumWageTable, "minimum-wage-table", usecase.DefaultMinimumWageTable, "Value table used for unit equivalence")
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the precatorio API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(
		factorCmd(opts),
		correctCmd(opts),
		apportionCmd(),
		unitsCmd(opts),
		calcCmd(opts),
		tablesCmd(opts),
		migrateCmd(opts),
		healthCmd(opts),
	)

	return rootCmd
}

func (o *options) logger() zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: o.logLevel, Format: "console"}, os.Stderr)
}

// fileRepository picks the loader by file extension.
func fileRepository(path string) (usecase.IndexRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("--index-file is required")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return fileRepo.NewYAMLRepository(path), nil
	case ".xlsx":
		return fileRepo.NewXLSXRepository(path), nil
	default:
		return nil, fmt.Errorf("unsupported index file %q, expected .yaml, .yml or .xlsx", path)
	}
}

// loadStore publishes the tables of the index file as a snapshot.
func (o *options) loadStore(ctx context.Context) (*usecase.IndexStore, error) {
	repo, err := fileRepository(o.indexFile)
	if err != nil {
		return nil, err
	}

	store := usecase.NewIndexStore(usecase.IndexStoreConfig{
		Repository:  repo,
		IDGenerator: postgresRepo.NewULIDGenerator(),
	})
	if _, err := store.Refresh(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// calculator returns a use case over a freshly loaded snapshot.
func (o *options) calculator(ctx context.Context) (*usecase.CalculationUseCase, error) {
	store, err := o.loadStore(ctx)
	if err != nil {
		return nil, err
	}

	return usecase.NewCalculationUseCase(usecase.CalculationConfig{
		Snapshots:        store,
		IDGenerator:      postgresRepo.NewULIDGenerator(),
		MinimumWageTable: o.minimumWageTable,
	}), nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func parseDecimal(flag, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return d, nil
}

func parseDate(flag, value string) (civil.Date, error) {
	if value == "" {
		return civil.Date{}, fmt.Errorf("--%s is required", flag)
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return d, nil
}
