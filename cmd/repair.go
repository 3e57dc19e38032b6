package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twlnand/nandrestore/internal/driver"
)

var syncOnly bool

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Resynchronize the allocation table pair and fix its signature",
	Long: `repair unlocks the device, rebuilds the backup allocation table from
the primary copy and restores the corruption-signature marker to its
valid value, then relocks. The primary copy always wins.

With --sync-only the marker is left alone and the backup is simply
rewritten from the primary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, _, err := openDevice()
		if err != nil {
			return err
		}
		defer dev.Shutdown()

		if err := dev.UnlockWriting(); err != nil {
			return fmt.Errorf("failed to unlock device for writing: %w", err)
		}
		defer dev.LockWriting()

		if syncOnly {
			err = dev.SynchronizeTables()
		} else {
			err = dev.ForceTableRepair()
		}

		var mirrorErr *driver.PartialMirrorError
		if errors.As(err, &mirrorErr) {
			return fmt.Errorf("device may be inconsistent, rerun repair once writable: %w", err)
		}
		if err != nil {
			return err
		}

		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "Allocation tables repaired.")
		}
		return nil
	},
}

func init() {
	repairCmd.Flags().BoolVar(&syncOnly, "sync-only", false, "resynchronize copies without touching the signature marker")
	rootCmd.AddCommand(repairCmd)
}
