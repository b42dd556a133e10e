// Package codingtool implements the coding-tool adapter: a uniform
// Execute(prompt, workspace, timeout) contract over six heterogeneous
// coding-CLI binaries, plus the registry and handoff-phrase scanner
// the agent loop consults after each run.
package codingtool

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cloudcode/orchestrator/internal/log"
)

// ErrExecutableNotFound is returned when a tool's binary cannot be
// located in its known install directories or on PATH.
var ErrExecutableNotFound = errors.New("executable not found")

// LocateBinary finds a CLI binary. Lookup order: the envOverride
// variable, if set and pointing at an executable file; binName inside
// each known install directory ("~" expands to the current home); then
// PATH. The worker containers are Linux-only, so there is no
// platform-specific suffix or path handling.
func LocateBinary(binName, envOverride string, knownDirs []string) (string, error) {
	var checked []string

	if envOverride != "" {
		if p := os.Getenv(envOverride); p != "" {
			if isExecutableFile(p) {
				log.Debug(log.CatCodingTool, "located binary via env override", "bin", binName, "path", p)
				return p, nil
			}
			checked = append(checked, p+" (from $"+envOverride+")")
		}
	}

	for _, dir := range knownDirs {
		p := filepath.Join(expandHome(dir), binName)
		if isExecutableFile(p) {
			log.Debug(log.CatCodingTool, "located binary in known dir", "bin", binName, "path", p)
			return p, nil
		}
		checked = append(checked, p)
	}

	if p, err := exec.LookPath(binName); err == nil {
		log.Debug(log.CatCodingTool, "located binary via PATH", "bin", binName, "path", p)
		return p, nil
	}
	checked = append(checked, "PATH")

	return "", fmt.Errorf("%w: %s (checked %s)", ErrExecutableNotFound, binName, strings.Join(checked, ", "))
}

func expandHome(dir string) string {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, dir[1:])
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
