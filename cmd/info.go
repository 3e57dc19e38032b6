package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twlnand/nandrestore/internal/types"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device geometry and allocation table status",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, cfg, err := openDevice()
		if err != nil {
			return err
		}
		defer dev.Shutdown()

		sectorSize, sectorCount := dev.Geometry()
		layout := cfg.TableLayout()

		primary, err := dev.ReadSectors(layout.PrimaryStart, layout.Sectors)
		if err != nil {
			return fmt.Errorf("failed to read primary table: %w", err)
		}
		backup, err := dev.ReadSectors(layout.BackupStart, layout.Sectors)
		if err != nil {
			return fmt.Errorf("failed to read backup table: %w", err)
		}

		synced := bytes.Equal(primary, backup)
		markerOK := true
		if int(cfg.SignatureFixOffset)+len(types.SignatureMarker) <= len(primary) {
			markerOK = bytes.Equal(primary[cfg.SignatureFixOffset:cfg.SignatureFixOffset+4], types.SignatureMarker[:])
		}

		if outputFormat == "json" {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
				"device_tag":    types.DeviceTag,
				"sector_size":   sectorSize,
				"sector_count":  sectorCount,
				"tables_synced": synced,
				"marker_valid":  markerOK,
				"table_primary": layout.PrimaryStart,
				"table_backup":  layout.BackupStart,
				"table_sectors": layout.Sectors,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Device:        %s (%s)\n", cfg.ImagePath, types.DeviceTag)
		fmt.Fprintf(out, "Geometry:      %d sectors x %d bytes\n", sectorCount, sectorSize)
		fmt.Fprintf(out, "Table pair:    primary @%d, backup @%d, %d sectors each\n",
			layout.PrimaryStart, layout.BackupStart, layout.Sectors)
		if synced {
			fmt.Fprintln(out, "Table status:  copies are bit-identical")
		} else {
			fmt.Fprintln(out, "Table status:  COPIES HAVE DIVERGED - run 'nandrestore repair'")
		}
		if !markerOK {
			fmt.Fprintln(out, "Marker:        INVALID signature marker - run 'nandrestore repair'")
		} else if verbose {
			fmt.Fprintln(out, "Marker:        valid")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
