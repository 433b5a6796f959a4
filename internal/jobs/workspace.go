package jobs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Workspace addresses the per-job input and output artifacts inside one
// working directory.
type Workspace struct {
	dir       string
	outputExt string
}

// NewWorkspace resolves dir against the current directory, so artifact paths
// stay valid for processes started with the workspace as their cwd.
func NewWorkspace(dir, outputExt string) *Workspace {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Workspace{dir: dir, outputExt: outputExt}
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Check fails unless the working directory exists.
func (w *Workspace) Check() error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return errors.Wrapf(err, "working directory %q", w.dir)
	}
	if !info.IsDir() {
		return errors.Errorf("working directory %q is not a directory", w.dir)
	}
	return nil
}

func (w *Workspace) InputPath(id uuid.UUID) string {
	return filepath.Join(w.dir, id.String())
}

func (w *Workspace) OutputPath(id uuid.UUID) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s.%s", id, w.outputExt))
}

// RemoveInput deletes the input artifact. A missing file is not an error.
func (w *Workspace) RemoveInput(id uuid.UUID) error {
	return removeIfExists(w.InputPath(id))
}

// Remove deletes both artifacts of a job. Missing files are not an error.
func (w *Workspace) Remove(id uuid.UUID) error {
	inErr := removeIfExists(w.InputPath(id))
	outErr := removeIfExists(w.OutputPath(id))
	if inErr != nil {
		return inErr
	}
	return outErr
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
