package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"homepros/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the starter category tree and bootstrap admin",
	Long: `Apply migrations, then load the starter category taxonomy. When
ADMIN_EMAIL and ADMIN_PASSWORD are both set, an admin account is created
as well. Running seed again changes nothing that already exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		if err := database.Seed(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		slog.Info("seed complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
