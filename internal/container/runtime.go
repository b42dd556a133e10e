// Package container implements the worker-container provisioner: a
// pool of worker containers keyed by agent type, a small Runtime
// contract over the external container engine, and a sqlite-backed
// registry so the pool survives an orchestrator restart.
package container

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cloudcode/orchestrator/internal/codingtool"
	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// Handle identifies a running container to the Runtime. It carries
// nothing beyond an opaque id — callers keep their own Worker records.
type Handle struct {
	ID string
}

// InspectResult reports a container's observed state.
type InspectResult struct {
	Running bool
	Status  string
}

// Runtime abstracts the external container engine. The create/exec/
// stop primitives live behind this interface; the one implementation
// here shells out to whatever container CLI is on PATH (docker or
// podman), the same external-binary contract codingtool uses.
type Runtime interface {
	Run(ctx context.Context, image, name, network string, envs []string, volumes []Volume, memLimit string, cpuLimit float64, cmd []string) (Handle, error)
	Exec(ctx context.Context, h Handle, cmd []string, workdir string) (exitCode int, stdout, stderr string, err error)
	Inspect(ctx context.Context, h Handle) (InspectResult, error)
	Stop(ctx context.Context, h Handle, graceSeconds int) error
	Remove(ctx context.Context, h Handle, force bool) error
	List(ctx context.Context, nameFilter string) ([]Handle, error)
}

// Volume is a single bind mount, (host path, container path, mode).
type Volume struct {
	HostPath      string
	ContainerPath string
	Mode          string // "rw" or "ro"
}

// CLIRuntime drives a container runtime CLI (docker/podman) via
// os/exec, resolving the binary through the same lookup the coding
// tools use.
type CLIRuntime struct {
	binName     string
	envOverride string
}

// NewCLIRuntime returns a CLIRuntime that looks for binName (e.g.
// "docker" or "podman") via an optional env override, then PATH.
func NewCLIRuntime(binName, envOverride string) *CLIRuntime {
	return &CLIRuntime{binName: binName, envOverride: envOverride}
}

func (r *CLIRuntime) bin() (string, error) {
	bin, err := codingtool.LocateBinary(r.binName, r.envOverride, nil)
	if err != nil {
		return "", taskerr.New(taskerr.ContainerProvisionFailed, "container runtime binary not found", err)
	}
	return bin, nil
}

func (r *CLIRuntime) run(ctx context.Context, args ...string) (string, error) {
	bin, err := r.bin()
	if err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec // bin resolved via LocateBinary, args built by this package
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args, " "), err, stderr.String())
	}
	return out.String(), nil
}

func (r *CLIRuntime) Run(ctx context.Context, image, name, network string, envs []string, volumes []Volume, memLimit string, cpuLimit float64, cmd []string) (Handle, error) {
	args := []string{"run", "--detach", "--name", name, "--network", network}
	if memLimit != "" {
		args = append(args, "--memory", memLimit)
	}
	if cpuLimit > 0 {
		args = append(args, "--cpus", fmt.Sprintf("%g", cpuLimit))
	}
	for _, e := range envs {
		args = append(args, "--env", e)
	}
	for _, v := range volumes {
		mode := v.Mode
		if mode == "" {
			mode = "rw"
		}
		args = append(args, "--volume", fmt.Sprintf("%s:%s:%s", v.HostPath, v.ContainerPath, mode))
	}
	args = append(args, image)
	args = append(args, cmd...)

	out, err := r.run(ctx, args...)
	if err != nil {
		return Handle{}, taskerr.New(taskerr.ContainerProvisionFailed, fmt.Sprintf("run container %s", name), err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		id = name
	}
	log.Info(log.CatContainer, "container started", "name", name, "image", image, "id", id)
	return Handle{ID: id}, nil
}

func (r *CLIRuntime) Exec(ctx context.Context, h Handle, cmd []string, workdir string) (int, string, string, error) {
	args := []string{"exec"}
	if workdir != "" {
		args = append(args, "--workdir", workdir)
	}
	args = append(args, h.ID)
	args = append(args, cmd...)

	bin, err := r.bin()
	if err != nil {
		return -1, "", "", err
	}
	execCmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec // bin resolved via LocateBinary, args built by this package
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr
	runErr := execCmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(runErr, &exitErr); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return -1, stdout.String(), stderr.String(), runErr
		}
	}
	return exitCode, stdout.String(), stderr.String(), nil
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

func (r *CLIRuntime) Inspect(ctx context.Context, h Handle) (InspectResult, error) {
	out, err := r.run(ctx, "inspect", "--format", "{{.State.Running}}", h.ID)
	if err != nil {
		return InspectResult{Running: false, Status: "not_found"}, nil //nolint:nilerr // absent container just reports not-running
	}
	running := strings.TrimSpace(out) == "true"
	status := "exited"
	if running {
		status = "running"
	}
	return InspectResult{Running: running, Status: status}, nil
}

func (r *CLIRuntime) Stop(ctx context.Context, h Handle, graceSeconds int) error {
	_, err := r.run(ctx, "stop", "--time", fmt.Sprintf("%d", graceSeconds), h.ID)
	return err
}

func (r *CLIRuntime) Remove(ctx context.Context, h Handle, force bool) error {
	args := []string{"rm"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, h.ID)
	_, err := r.run(ctx, args...)
	return err
}

func (r *CLIRuntime) List(ctx context.Context, nameFilter string) ([]Handle, error) {
	out, err := r.run(ctx, "ps", "--all", "--filter", "name="+nameFilter, "--format", "{{.ID}}")
	if err != nil {
		return nil, taskerr.New(taskerr.ContainerProvisionFailed, "list containers", err)
	}
	var handles []Handle
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		handles = append(handles, Handle{ID: line})
	}
	return handles, nil
}

var _ Runtime = (*CLIRuntime)(nil)
