package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AnTengye/projectbrief/config"
	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/AnTengye/projectbrief/service"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "projectbrief",
	Short: "Project brief intake service",
	Long: `projectbrief collects project submissions, drafts summaries and use cases
with an LLM, renders each submission to PDF, uploads it to object storage
and records it for administrators.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply record store migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the config, then installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.Info("configuration loaded successfully", "path", configPath)
	return cfg, nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := service.MigratePostgres(cfg.Store.DSN); err != nil {
			return err
		}
	case config.DriverSQLite:
		db, err := service.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := service.NewSQLiteRecordStore(db); err != nil {
			return err
		}
	default:
		slog.Info("nothing to migrate", "driver", cfg.Store.Driver)
		return nil
	}

	slog.Info("migrations applied", "driver", cfg.Store.Driver)
	return nil
}
