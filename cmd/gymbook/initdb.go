package main

import (
	"fmt"

	"github.com/2beens/gymbook/internal/db"
	"github.com/2beens/gymbook/internal/file_box"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database schema and the uploads directory",
	Long: `Create the database tables (if missing) and the uploads directory.
Safe to run more than once; existing data is left untouched. The serve
command does the same on every start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := db.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()

		if err := store.InitSchema(ctx); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}

		diskApi, err := file_box.NewDiskApi(cfg.UploadsDir)
		if err != nil {
			return fmt.Errorf("uploads dir: %w", err)
		}

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		fmt.Fprintln(out, color.GreenString("✓ Database ready"), faint.Sprint(store.Path()))
		fmt.Fprintln(out, color.GreenString("✓ Uploads dir ready"), faint.Sprint(diskApi.RootPath()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
