package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "nandrestore",
	Short: "Launcher TMD recovery tool for console NAND storage",
	Long: `nandrestore restores a corrupted system-launcher metadata file (TMD)
on a console's internal NAND storage from a known-good copy, after
integrity verification.

It works against a NAND image dump or a raw device node through an
encrypted sector driver: every sector is ciphered with its index as
tweak, all writes sit behind an explicit write-protection gate, and the
filesystem's dual allocation tables are kept consistent, with a directed
repair for the corruption left behind by historical tools.

Commands:
  info      Show device geometry and allocation table status
  repair    Resynchronize the allocation table pair and fix its signature
  restore   Verify and restore the launcher TMD on a mounted NAND tree`,
	Version: "1.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Only global output control flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
}
