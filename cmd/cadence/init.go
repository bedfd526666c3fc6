// Init and reset commands: schema migration and the destructive rebuild.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database",
	Long: `Initialize creates any missing tables and seeds the default task
types and notification channels. Running it on an initialized database is a
no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Migration already ran in PersistentPreRunE; report the version.
		version, err := manager.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Database initialized (schema version %d)\n", version)
		return nil
	},
}

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy all data and load the sample set",
	Long: `Reset clears every table, reseeds the default task types and
notification channels, and loads five sample tasks covering the cycle states
the list distinguishes. All existing data is lost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			return fmt.Errorf("reset destroys all data; re-run with --force to confirm")
		}
		if err := manager.Reinitialize(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Database reset with sample data")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm the destructive reset")
}
