package cmd

import (
	"fmt"

	"github.com/twlnand/nandrestore/internal/cipher"
	"github.com/twlnand/nandrestore/internal/config"
	"github.com/twlnand/nandrestore/internal/driver"
	"github.com/twlnand/nandrestore/internal/medium"
)

var imagePath string

func init() {
	rootCmd.PersistentFlags().StringVar(&imagePath, "image", "", "NAND image file or raw device node (overrides config)")
}

// openDevice builds the encrypted block device from the configured
// image and key material. The caller owns the returned driver and must
// call Shutdown.
func openDevice() (*driver.Driver, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if imagePath != "" {
		cfg.ImagePath = imagePath
	}
	if cfg.ImagePath == "" {
		return nil, nil, fmt.Errorf("no NAND image configured: pass --image or set image_path")
	}

	key, counter, err := cfg.KeyMaterial()
	if err != nil {
		return nil, nil, err
	}
	engine, err := cipher.New(key, counter)
	if err != nil {
		return nil, nil, err
	}

	med, err := medium.OpenFile(cfg.ImagePath)
	if err != nil {
		return nil, nil, err
	}

	dev, err := driver.New(med, engine, cfg.TableLayout())
	if err != nil {
		med.Close()
		return nil, nil, err
	}
	dev.SetSignatureFixOffset(cfg.SignatureFixOffset)
	return dev, cfg, nil
}
