package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twlnand/nandrestore/internal/config"
	"github.com/twlnand/nandrestore/internal/interfaces"
	"github.com/twlnand/nandrestore/internal/services"
)

var (
	sourceTmd string
	targetTmd string
	nandRoot  string
	useDevice bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Verify and restore the launcher TMD on a mounted NAND tree",
	Long: `restore verifies a known-good TMD against its .sha1 sidecar, hashes the
launcher TMD on the mounted NAND tree and rewrites it when they differ.
When source and target are not given explicitly, the launcher title is
discovered from the tree (HWINFO_S.dat and the title content directory).

With --gate-device the encrypted sector device is opened as well and its
write-protection gate brackets the one write the workflow performs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if nandRoot != "" {
			cfg.NandRoot = nandRoot
		}

		target := targetTmd
		if target == "" {
			info, err := services.DiscoverLauncher(cfg.NandRoot)
			if err != nil {
				return err
			}
			target = info.TmdPath()
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "Detected launcher version: v%d\n", info.Version/256)
				fmt.Fprintf(cmd.OutOrStdout(), "Detected launcher region: %s\n", info.Region())
			}
		}
		if sourceTmd == "" {
			return fmt.Errorf("no source TMD given: pass --source")
		}

		var gate interfaces.WriteGate
		if useDevice {
			dev, _, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Shutdown()
			gate = dev
		}

		svc := services.NewRestoreService(services.OSStore{}, gate)
		report, err := svc.Restore(sourceTmd, target)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
		}
		if quiet {
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:      %s\n", report.RunID)
		fmt.Fprintf(out, "Source:   %s (%s)\n", report.SourcePath, report.ExpectedDigest)
		fmt.Fprintf(out, "Target:   %s (%s)\n", report.TargetPath, report.TargetDigest)
		if report.Action == services.ActionNone {
			fmt.Fprintln(out, "The tmd is correct, no further action needed")
		} else {
			fmt.Fprintln(out, "Restored launcher tmd from the known-good copy")
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&sourceTmd, "source", "", "known-good TMD (with .sha1 sidecar next to it)")
	restoreCmd.Flags().StringVar(&targetTmd, "target", "", "launcher TMD to restore (default: discovered from the NAND tree)")
	restoreCmd.Flags().StringVar(&nandRoot, "nand-root", "", "mounted NAND tree (overrides config)")
	restoreCmd.Flags().BoolVar(&useDevice, "gate-device", false, "open the sector device and bracket the write with its gate")
	rootCmd.AddCommand(restoreCmd)
}
