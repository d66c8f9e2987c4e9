package main

import (
	"database/sql"
	"field-route-service/internal/config"
	"field-route-service/internal/platform/db"
	"field-route-service/internal/platform/obs"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	databaseURL string
	dbPath      string
)

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Manage the branch and client database",
	Long: `dbtool creates the schema and loads branch/client seed data.
PostgreSQL is used when --database-url (or DATABASE_URL) is set,
otherwise the SQLite file at --db-path.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		obs.SetupLogger(config.Get("LOG_LEVEL", "info"), config.Get("LOG_FORMAT", "console"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", config.Get("DATABASE_URL", ""), "PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", config.Get("DB_PATH", "data/app.db"), "SQLite database file")
}

func openDatabase() (*sql.DB, db.Dialect, error) {
	conn, dialect, err := db.OpenFromEnv(databaseURL, dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	return conn, dialect, nil
}
