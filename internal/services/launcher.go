package services

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Launcher title discovery over a mounted NAND tree. The launcher's
// title ID lives in HWINFO_S.dat; its content directory holds the TMD
// to repair and a single versioned application image.

const (
	// hwinfoTitleIDOffset is the byte offset of the launcher title ID
	// within HWINFO_S.dat.
	hwinfoTitleIDOffset = 0xA0

	// launcherTitleHigh is the fixed high word of every launcher title.
	launcherTitleHigh = "00030017"

	// maxLauncherVersion is the highest shipped launcher revision.
	maxLauncherVersion = 7
)

// LauncherInfo describes the launcher title found on the NAND tree.
type LauncherInfo struct {
	// TitleID is the low word of the launcher's title ID.
	TitleID uint32

	// ContentDir is the directory holding title.tmd and the app image.
	ContentDir string

	// AppName is the launcher application file name (0000000v.app).
	AppName string

	// Version is the launcher version encoded in AppName, times 256 as
	// the TMD records it.
	Version uint16
}

// TmdPath returns the path of the title's TMD inside the NAND tree.
func (l LauncherInfo) TmdPath() string {
	return filepath.Join(l.ContentDir, "title.tmd")
}

// AppPath returns the path of the launcher application image.
func (l LauncherInfo) AppPath() string {
	return filepath.Join(l.ContentDir, l.AppName)
}

// Region returns the launcher's region letter, derived from the low
// byte of the title ID, or "UNK" for an unrecognized byte.
func (l LauncherInfo) Region() string {
	switch byte(l.TitleID) {
	case 'C':
		return "C"
	case 'E':
		return "U"
	case 'J':
		return "J"
	case 'K':
		return "K"
	case 'P':
		return "E"
	case 'U':
		return "A"
	}
	return "UNK"
}

// ReadLauncherTitleID pulls the launcher title ID out of HWINFO_S.dat.
func ReadLauncherTitleID(r io.ReaderAt) (uint32, error) {
	var raw [4]byte
	if _, err := r.ReadAt(raw[:], hwinfoTitleIDOffset); err != nil {
		return 0, fmt.Errorf("failed to read launcher title id: %w", err)
	}
	return binary.LittleEndian.Uint32(raw[:]), nil
}

// DiscoverLauncher locates the launcher title under nandRoot, a
// mounted NAND tree containing sys/HWINFO_S.dat and title/.
func DiscoverLauncher(nandRoot string) (*LauncherInfo, error) {
	hwinfo, err := os.Open(filepath.Join(nandRoot, "sys", "HWINFO_S.dat"))
	if err != nil {
		return nil, fmt.Errorf("could not open HWINFO_S.dat: %w", err)
	}
	defer hwinfo.Close()

	titleID, err := ReadLauncherTitleID(hwinfo)
	if err != nil {
		return nil, err
	}

	contentDir := filepath.Join(nandRoot, "title", launcherTitleHigh, fmt.Sprintf("%08x", titleID), "content")
	appName, version, err := findLauncherApp(contentDir)
	if err != nil {
		return nil, err
	}

	return &LauncherInfo{
		TitleID:    titleID,
		ContentDir: contentDir,
		AppName:    appName,
		Version:    version,
	}, nil
}

// findLauncherApp scans the content directory for the versioned app
// image named 0000000v.app, v at most maxLauncherVersion.
func findLauncherApp(contentDir string) (string, uint16, error) {
	entries, err := os.ReadDir(contentDir)
	if err != nil {
		return "", 0, fmt.Errorf("could not open launcher title directory (%s): %w", contentDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) != 12 || !strings.HasSuffix(name, ".app") || !strings.HasPrefix(name, "0000000") {
			continue
		}
		version := uint16(name[7] - '0')
		if version > maxLauncherVersion {
			return "", 0, fmt.Errorf("found an unsupported launcher version: %d", version)
		}
		return name, 256 * version, nil
	}
	return "", 0, fmt.Errorf("launcher app not found in %s", contentDir)
}
