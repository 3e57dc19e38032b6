package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/twlnand/nandrestore/internal/types"
)

// Config holds the tool configuration: where the NAND image and the
// device key material live, and where the allocation-table copies sit
// on the medium.
type Config struct {
	// ImagePath is the NAND image file or raw block device node.
	ImagePath string `mapstructure:"image_path"`

	// KeyFile / KeyHex provide the 16-byte device key; the hex literal
	// wins when both are set.
	KeyFile string `mapstructure:"key_file"`
	KeyHex  string `mapstructure:"key_hex"`

	// CounterFile / CounterHex provide the 16-byte base cipher counter.
	CounterFile string `mapstructure:"counter_file"`
	CounterHex  string `mapstructure:"counter_hex"`

	// TablePrimaryStart, TableBackupStart and TableSectors describe the
	// allocation table pair, in sectors.
	TablePrimaryStart uint64 `mapstructure:"table_primary_start"`
	TableBackupStart  uint64 `mapstructure:"table_backup_start"`
	TableSectors      uint32 `mapstructure:"table_sectors"`

	// SignatureFixOffset is the byte offset of the corruption marker
	// within the table region.
	SignatureFixOffset uint32 `mapstructure:"signature_fix_offset"`

	// NandRoot is the mounted NAND tree the restore workflow operates on.
	NandRoot string `mapstructure:"nand_root"`
}

// Load reads nandrestore.yaml via Viper, with environment overrides
// under the NANDRESTORE prefix. A missing config file is fine; the
// defaults describe the stock console layout.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("nandrestore")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.nandrestore")
	v.AddConfigPath("/etc/nandrestore")

	// Stock layout: FAT16 with one reserved sector and two 32-sector
	// table copies back to back.
	v.SetDefault("table_primary_start", 1)
	v.SetDefault("table_backup_start", 33)
	v.SetDefault("table_sectors", 32)
	v.SetDefault("signature_fix_offset", 0)
	v.SetDefault("nand_root", "nand")

	v.SetEnvPrefix("NANDRESTORE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// TableLayout returns the configured allocation table layout.
func (c *Config) TableLayout() types.TableLayout {
	return types.TableLayout{
		PrimaryStart: c.TablePrimaryStart,
		BackupStart:  c.TableBackupStart,
		Sectors:      c.TableSectors,
	}
}

// KeyMaterial resolves the device key and base counter from the hex
// literals or key files.
func (c *Config) KeyMaterial() (key, counter []byte, err error) {
	key, err = resolveSecret("key", c.KeyHex, c.KeyFile)
	if err != nil {
		return nil, nil, err
	}
	counter, err = resolveSecret("counter", c.CounterHex, c.CounterFile)
	if err != nil {
		return nil, nil, err
	}
	return key, counter, nil
}

func resolveSecret(what, hexLiteral, file string) ([]byte, error) {
	if hexLiteral != "" {
		raw, err := hex.DecodeString(hexLiteral)
		if err != nil {
			return nil, fmt.Errorf("invalid %s hex: %w", what, err)
		}
		if len(raw) != types.AESBlockSize {
			return nil, fmt.Errorf("%s must be %d bytes, got %d", what, types.AESBlockSize, len(raw))
		}
		return raw, nil
	}
	if file == "" {
		return nil, fmt.Errorf("no %s configured: set %s_hex or %s_file", what, what, what)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", what, err)
	}
	if len(raw) != types.AESBlockSize {
		return nil, fmt.Errorf("%s file must hold %d bytes, got %d", what, types.AESBlockSize, len(raw))
	}
	return raw, nil
}
