package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediamap/internal/database/migration"
	"mediamap/internal/repository/file"
)

func (a *app) importCommand() *cobra.Command {
	var (
		table   string
		sheet   string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Copy a CSV or XLSX table into Postgres",
		Long: `Creates a Postgres table with one text column per header cell and copies
the rows into it, so later runs can read it with generate --table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if table == "" {
				return errors.New("--table is required")
			}
			ctx := cmd.Context()

			src, err := file.Open(args[0])
			if err != nil {
				return err
			}
			tbl, err := src.WithSheet(sheet).Load(ctx)
			if err != nil {
				return err
			}

			db, err := a.openDB(ctx, a.cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			n, err := migration.ImportTable(ctx, db, table, tbl, migration.Options{Replace: replace})
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d rows from %s into %s\n", n, src.Name(), table)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "destination table, optionally schema qualified")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name for spreadsheet inputs")
	cmd.Flags().BoolVar(&replace, "replace", false, "drop the table first instead of appending")
	return cmd
}
