package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mentor/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		// Open runs the schema migration.
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		if err := s.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		fmt.Printf("Schema up to date (%s, %s)\n", s.Dialect(), redactDSN(dbPath))
		return nil
	},
}
