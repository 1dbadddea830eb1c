package capture

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Artifact is a temporary file path a capture method writes its image to.
type Artifact struct {
	Path string
}

// ArtifactManager hands out unique temporary paths and removes them again.
// Paths are never reused, so concurrent requests cannot collide.
type ArtifactManager struct {
	// Dir is where artifacts live; empty means os.TempDir().
	Dir string
	// Prefix starts every artifact file name.
	Prefix string
	Logger *slog.Logger

	mu          sync.Mutex
	outstanding map[string]struct{}
}

// NewArtifactManager creates a manager writing under dir.
func NewArtifactManager(dir string) *ArtifactManager {
	return &ArtifactManager{
		Dir:    dir,
		Prefix: "hostshot-",
	}
}

// Acquire returns a fresh path. No file is created.
func (m *ArtifactManager) Acquire() *Artifact {
	dir := m.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	a := &Artifact{Path: filepath.Join(dir, m.Prefix+uuid.NewString()+".png")}

	m.mu.Lock()
	if m.outstanding == nil {
		m.outstanding = make(map[string]struct{})
	}
	m.outstanding[a.Path] = struct{}{}
	m.mu.Unlock()
	return a
}

// Release removes the artifact's file if it exists. It is idempotent and
// never fails: removal errors are logged and swallowed.
func (m *ArtifactManager) Release(a *Artifact) {
	if a == nil {
		return
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger().Warn("failed to remove capture artifact", "path", a.Path, "error", err)
	}

	m.mu.Lock()
	delete(m.outstanding, a.Path)
	m.mu.Unlock()
}

// Outstanding returns the number of acquired artifacts not yet released.
func (m *ArtifactManager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outstanding)
}

func (m *ArtifactManager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// verifyOutput checks that a method left a non-empty, readable file at path.
func verifyOutput(method, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &CaptureError{Method: method, Reason: "no output file", Err: err}
	}
	if info.Size() == 0 {
		return &CaptureError{Method: method, Reason: "output file is empty"}
	}
	f, err := os.Open(path)
	if err != nil {
		return &CaptureError{Method: method, Reason: "output file unreadable", Err: err}
	}
	return f.Close()
}
