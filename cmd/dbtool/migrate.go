package main

import (
	"field-route-service/internal/adapters/repositories"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, dialect, err := openDatabase()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := repositories.InitSchema(cmd.Context(), conn, dialect); err != nil {
			return err
		}
		cmd.Printf("Schema ready (%s).\n", dialect)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
