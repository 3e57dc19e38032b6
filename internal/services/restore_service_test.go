package services

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twlnand/nandrestore/internal/types"
)

// recordingGate tracks unlock/lock calls for workflow assertions.
type recordingGate struct {
	unlocked  bool
	unlocks   int
	locks     int
	unlockErr error
}

func (g *recordingGate) UnlockWriting() error {
	if g.unlockErr != nil {
		return g.unlockErr
	}
	g.unlocked = true
	g.unlocks++
	return nil
}

func (g *recordingGate) LockWriting() {
	g.unlocked = false
	g.locks++
}

func (g *recordingGate) Writable() bool {
	return g.unlocked
}

func goodTmd(seed byte) []byte {
	data := make([]byte, types.TmdSize)
	for i := range data {
		data[i] = seed ^ byte(i)
	}
	return data
}

// writeFixture lays out a source TMD, its sidecar and a target file.
func writeFixture(t *testing.T, source, target []byte) (sourcePath, targetPath string) {
	t.Helper()
	dir := t.TempDir()

	sourcePath = filepath.Join(dir, "tmd.7")
	require.NoError(t, os.WriteFile(sourcePath, source, 0o644))
	sidecar := ComputeDigestBytes(source).String() + "\n"
	require.NoError(t, os.WriteFile(sourcePath+".sha1", []byte(sidecar), 0o644))

	targetPath = filepath.Join(dir, "title.tmd")
	require.NoError(t, os.WriteFile(targetPath, target, 0o644))
	return sourcePath, targetPath
}

func TestRestore_RewritesCorruptedTarget(t *testing.T) {
	source := goodTmd(0x5A)
	corrupted := append(goodTmd(0x5A), 0xFF, 0xFF) // oversized and wrong
	corrupted[0] ^= 0xFF
	sourcePath, targetPath := writeFixture(t, source, corrupted)

	gate := &recordingGate{}
	svc := NewRestoreService(OSStore{}, gate)

	report, err := svc.Restore(sourcePath, targetPath)
	require.NoError(t, err)

	assert.Equal(t, ActionRestored, report.Action)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, ComputeDigestBytes(source).String(), report.ExpectedDigest)
	assert.NotEqual(t, report.ExpectedDigest, report.TargetDigest)

	written, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, source, written, "target must be truncated to the canonical size and rewritten")

	assert.Equal(t, 1, gate.unlocks)
	assert.Equal(t, 1, gate.locks)
	assert.False(t, gate.unlocked, "gate must be relocked after the write")
}

func TestRestore_NoActionWhenTargetMatches(t *testing.T) {
	source := goodTmd(0x33)
	sourcePath, targetPath := writeFixture(t, source, source)

	gate := &recordingGate{}
	svc := NewRestoreService(OSStore{}, gate)

	report, err := svc.Restore(sourcePath, targetPath)
	require.NoError(t, err)

	assert.Equal(t, ActionNone, report.Action)
	assert.Equal(t, report.ExpectedDigest, report.TargetDigest)
	assert.Zero(t, gate.unlocks, "a matching target must not unlock the device")
}

func TestRestore_RejectsTamperedSource(t *testing.T) {
	source := goodTmd(0x11)
	sourcePath, targetPath := writeFixture(t, source, goodTmd(0x22))

	// Corrupt the source after its sidecar was computed.
	source[100] ^= 0x01
	require.NoError(t, os.WriteFile(sourcePath, source, 0o644))

	svc := NewRestoreService(OSStore{}, &recordingGate{})
	_, err := svc.Restore(sourcePath, targetPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "digest does not match")

	// The target must be untouched.
	written, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, goodTmd(0x22), written)
}

func TestRestore_RejectsWrongSizeSource(t *testing.T) {
	source := goodTmd(0x44)[:types.TmdSize-8]
	sourcePath, targetPath := writeFixture(t, source, goodTmd(0x22))

	svc := NewRestoreService(OSStore{}, nil)
	_, err := svc.Restore(sourcePath, targetPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("want %d", types.TmdSize))
}

func TestRestore_UnlockFailureAbortsBeforeWrite(t *testing.T) {
	source := goodTmd(0x66)
	target := goodTmd(0x77)
	sourcePath, targetPath := writeFixture(t, source, target)

	gate := &recordingGate{unlockErr: fmt.Errorf("injected unlock failure")}
	svc := NewRestoreService(OSStore{}, gate)

	_, err := svc.Restore(sourcePath, targetPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unlock")

	written, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, target, written)
}

func TestRestore_ClearsReadOnlyTarget(t *testing.T) {
	source := goodTmd(0x10)
	target := goodTmd(0x20)
	sourcePath, targetPath := writeFixture(t, source, target)
	require.NoError(t, os.Chmod(targetPath, 0o444))

	svc := NewRestoreService(OSStore{}, &recordingGate{})
	report, err := svc.Restore(sourcePath, targetPath)
	require.NoError(t, err)
	assert.Equal(t, ActionRestored, report.Action)

	written, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, source, written)
}

func TestRestore_MissingSidecar(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "tmd.7")
	require.NoError(t, os.WriteFile(sourcePath, goodTmd(1), 0o644))

	svc := NewRestoreService(OSStore{}, nil)
	_, err := svc.Restore(sourcePath, filepath.Join(dir, "title.tmd"))
	assert.Error(t, err)
}
