package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/linkvault/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Move the backend's link table between databases",
	Long: `The db commands talk to the backend database directly (DATABASE_URL),
not to the endpoint. Use them to migrate between a local SQLite file and a
remote libsql database.`,
}

var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every link row as JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer repo.Close()

		rows, err := repo.Dump(cmd.Context())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	},
}

var dbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert link rows from a JSON export, skipping URLs already present",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer repo.Close()

		count, err := importRows(cmd.Context(), repo, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d links\n", count)
		return nil
	},
}

func importRows(ctx context.Context, repo *sqlite.SQLiteRepository, filename string) (int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var rows []domain.LinkRow
	if err := json.NewDecoder(f).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decoding %s: %w", filename, err)
	}

	existing, err := repo.Dump(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.Link] = true
	}

	count := 0
	for _, row := range rows {
		if seen[row.Link] {
			logger.Info().Str("link", row.Link).Msg("Skipping existing link")
			continue
		}
		// Ids are reassigned; created_time and clicks carry over.
		row.ID = 0
		if err := repo.Create(ctx, &row); err != nil {
			logger.Warn().Err(err).Str("link", row.Link).Msg("Failed to import")
			continue
		}
		seen[row.Link] = true
		count++
	}
	return count, nil
}

func init() {
	dbImportCmd.Flags().String("file", "", "JSON file to import")
	dbImportCmd.MarkFlagRequired("file")

	dbCmd.AddCommand(dbExportCmd, dbImportCmd)
	rootCmd.AddCommand(dbCmd)
}
