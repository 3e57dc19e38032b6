package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/twlnand/nandrestore/internal/interfaces"
	"github.com/twlnand/nandrestore/internal/types"
)

// Restore actions recorded in a run report.
const (
	ActionNone     = "none"
	ActionRestored = "restored"
)

// Report describes one restore run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	SourcePath string    `json:"source_path"`
	TargetPath string    `json:"target_path"`

	// ExpectedDigest is the digest recorded in the source sidecar.
	ExpectedDigest string `json:"expected_digest"`

	// TargetDigest is the digest of the target before any write.
	TargetDigest string `json:"target_digest"`

	// Action is ActionNone when the target already matched.
	Action string `json:"action"`
}

// RestoreService verifies a known-good TMD against its recorded digest
// and rewrites the corrupted copy on the internal store. The single
// write is bracketed by the device's write gate when one is attached.
type RestoreService struct {
	store FileStore
	gate  interfaces.WriteGate
}

// NewRestoreService creates a restore service over store. gate may be
// nil when the target tree is not backed by a gated device.
func NewRestoreService(store FileStore, gate interfaces.WriteGate) *RestoreService {
	return &RestoreService{store: store, gate: gate}
}

// Restore verifies sourcePath (with its .sha1 sidecar) and rewrites
// targetPath from it unless the target already matches. The returned
// report is valid whenever err is nil.
func (s *RestoreService) Restore(sourcePath, targetPath string) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		SourcePath: sourcePath,
		TargetPath: targetPath,
	}

	expected, err := ReadDigestFile(sourcePath + ".sha1")
	if err != nil {
		return nil, err
	}
	report.ExpectedDigest = expected.String()

	source, err := s.readVerifiedSource(sourcePath, expected)
	if err != nil {
		return nil, err
	}

	actual, err := s.digestTarget(targetPath)
	if err != nil {
		return nil, err
	}
	report.TargetDigest = actual.String()

	if actual.Equal(expected) {
		report.Action = ActionNone
		return report, nil
	}

	if err := s.writeTarget(targetPath, source); err != nil {
		return nil, err
	}
	report.Action = ActionRestored
	return report, nil
}

// readVerifiedSource loads the known-good TMD and proves it against
// the sidecar digest before it is allowed anywhere near the target.
func (s *RestoreService) readVerifiedSource(path string, expected Digest) ([]byte, error) {
	data, err := s.store.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source tmd: %w", err)
	}
	if len(data) != types.TmdSize {
		return nil, fmt.Errorf("source tmd is %d bytes, want %d", len(data), types.TmdSize)
	}
	if !ComputeDigestBytes(data).Equal(expected) {
		return nil, fmt.Errorf("source tmd digest does not match its sidecar")
	}
	return data, nil
}

func (s *RestoreService) digestTarget(path string) (Digest, error) {
	f, err := s.store.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to open target tmd: %w", err)
	}
	defer f.Close()
	return ComputeDigest(f)
}

// writeTarget performs the one mutating step of the workflow: unlock,
// clear the stale read-only attribute, rewrite, relock.
func (s *RestoreService) writeTarget(path string, data []byte) error {
	if s.gate != nil {
		if err := s.gate.UnlockWriting(); err != nil {
			return fmt.Errorf("failed to unlock device for writing: %w", err)
		}
		defer s.gate.LockWriting()
	}

	if err := s.store.ClearReadOnly(path); err != nil {
		return fmt.Errorf("failed to mark target tmd writable: %w", err)
	}
	if err := s.store.WriteFileExact(path, data); err != nil {
		return fmt.Errorf("failed to rewrite target tmd: %w", err)
	}

	// Read back and prove the write landed before declaring success.
	written, err := s.store.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to re-read target tmd: %w", err)
	}
	if !bytes.Equal(written, data) {
		return fmt.Errorf("target tmd does not match source after rewrite")
	}
	return nil
}
