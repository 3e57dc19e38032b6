package services

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeNandTree lays out the minimal mounted-NAND structure the
// discovery walks: sys/HWINFO_S.dat and the launcher content dir.
func writeNandTree(t *testing.T, titleID uint32, appName string) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sys"), 0o755))
	hwinfo := make([]byte, 0xA8)
	binary.LittleEndian.PutUint32(hwinfo[0xA0:], titleID)
	require.NoError(t, os.WriteFile(filepath.Join(root, "sys", "HWINFO_S.dat"), hwinfo, 0o644))

	contentDir := filepath.Join(root, "title", "00030017", fmt.Sprintf("%08x", titleID), "content")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "title.tmd"), []byte("tmd"), 0o644))
	if appName != "" {
		require.NoError(t, os.WriteFile(filepath.Join(contentDir, appName), []byte("app"), 0o644))
	}
	return root
}

func TestDiscoverLauncher(t *testing.T) {
	const titleID = 0x484e4341 // low byte 'A' is not a known region

	root := writeNandTree(t, titleID, "00000007.app")

	info, err := DiscoverLauncher(root)
	require.NoError(t, err)

	assert.Equal(t, uint32(titleID), info.TitleID)
	assert.Equal(t, "00000007.app", info.AppName)
	assert.Equal(t, uint16(7*256), info.Version)
	assert.Equal(t, filepath.Join(info.ContentDir, "title.tmd"), info.TmdPath())
	assert.Equal(t, filepath.Join(info.ContentDir, "00000007.app"), info.AppPath())
}

func TestDiscoverLauncher_UnsupportedVersion(t *testing.T) {
	root := writeNandTree(t, 0x484e4345, "00000008.app")

	_, err := DiscoverLauncher(root)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported launcher version")
}

func TestDiscoverLauncher_NoApp(t *testing.T) {
	root := writeNandTree(t, 0x484e4345, "")

	_, err := DiscoverLauncher(root)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "launcher app not found")
}

func TestDiscoverLauncher_IgnoresUnrelatedFiles(t *testing.T) {
	const titleID = 0x484e4345
	root := writeNandTree(t, titleID, "00000002.app")

	contentDir := filepath.Join(root, "title", "00030017", fmt.Sprintf("%08x", titleID), "content")
	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "1234.app"), []byte("x"), 0o644))

	info, err := DiscoverLauncher(root)
	require.NoError(t, err)
	assert.Equal(t, "00000002.app", info.AppName)
	assert.Equal(t, uint16(512), info.Version)
}

func TestDiscoverLauncher_MissingHwinfo(t *testing.T) {
	_, err := DiscoverLauncher(t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HWINFO_S.dat")
}

func TestLauncherRegion(t *testing.T) {
	tests := []struct {
		lowByte byte
		region  string
	}{
		{'C', "C"},
		{'E', "U"},
		{'J', "J"},
		{'K', "K"},
		{'P', "E"},
		{'U', "A"},
		{'X', "UNK"},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			info := LauncherInfo{TitleID: 0x484e4300 | uint32(tt.lowByte)}
			assert.Equal(t, tt.region, info.Region())
		})
	}
}
