package taskdoc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskerr"
)

const (
	// cloudCodeDir is the workspace subdirectory holding both
	// documents: "{workspace}/.cloud-code/".
	cloudCodeDir  = ".cloud-code"
	taskingFile   = "tasking"
	reportingFile = "reporting"
)

// CloudCodeDir returns the "{workspace}/.cloud-code" directory path for
// a workspace root.
func CloudCodeDir(workspacePath string) string {
	return filepath.Join(workspacePath, cloudCodeDir)
}

// EnsureCloudCodeDir creates the .cloud-code directory if absent.
// Invariant: the directory must exist before any task is dispatched
// into the workspace.
func EnsureCloudCodeDir(workspacePath string) error {
	return os.MkdirAll(CloudCodeDir(workspacePath), 0o750)
}

func taskingPath(workspacePath string) string {
	return filepath.Join(CloudCodeDir(workspacePath), taskingFile)
}

func reportingPath(workspacePath string) string {
	return filepath.Join(CloudCodeDir(workspacePath), reportingFile)
}

// atomicWriteYAML serializes v and writes it to path via a sibling temp
// file, fsync, then rename over the target. Writers must never
// truncate-in-place: a reader racing a writer always sees either the
// old or the new complete document, never a partial one.
func atomicWriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	// On any early return, remove the leftover temp file.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	return nil
}

// readYAML reads and parses path into v. A missing file is not an
// error: readers must tolerate the document not existing yet and treat
// it as empty — callers pass a zero-valued v and detect emptiness via
// the returned notFound flag. Parse failures are reported as
// taskerr.DocumentCorrupt.
func readYAML(path string, v any) (notFound bool, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is workspace-relative, not user request input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("read document: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		log.ErrorErr(log.CatTaskDoc, "document failed to parse", err, "path", path)
		return false, taskerr.New(taskerr.DocumentCorrupt, fmt.Sprintf("parse %s", path), err)
	}
	return false, nil
}
