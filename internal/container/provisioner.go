package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// AgentConfig is the per-type container configuration.
type AgentConfig struct {
	AgentType  string
	CodingTool string
	Image      string
	MemLimit   string
	CPULimit   float64
	ExtraEnv   map[string]string
}

// DefaultAgentConfigs is the built-in agent-type table: six
// domain-specific agents that default to claude-code, plus one
// per-tool-only variant for handoff dispatch.
func DefaultAgentConfigs() map[string]AgentConfig {
	domainAgents := []struct {
		agentType string
		mem       string
		cpu       float64
	}{
		{"frontend", "2g", 2.0},
		{"backend", "2g", 2.0},
		{"reviewer", "1g", 1.0},
		{"testing", "4g", 2.0},
		{"devops", "2g", 2.0},
		{"database", "1g", 1.0},
	}
	configs := make(map[string]AgentConfig, len(domainAgents)+5)
	for _, a := range domainAgents {
		configs[a.agentType] = AgentConfig{
			AgentType:  a.agentType,
			CodingTool: "claude-code",
			Image:      fmt.Sprintf("cloud-code/%s-agent:latest", a.agentType),
			MemLimit:   a.mem,
			CPULimit:   a.cpu,
		}
	}
	for _, tool := range []string{"aider", "codex", "gemini", "continue", "cursor"} {
		configs[tool] = AgentConfig{
			AgentType:  "general",
			CodingTool: tool,
			Image:      fmt.Sprintf("cloud-code/%s-agent:latest", tool),
			MemLimit:   "2g",
			CPULimit:   2.0,
		}
	}
	return configs
}

// Worker is a provisioned agent container, owned by the Provisioner's
// registry.
type Worker struct {
	ContainerID   string
	Name          string
	AgentType     string
	CodingTool    string
	WorkspacePath string
	Busy          bool
}

// Provisioner manages the container pool keyed by agent type. It is
// the process-level owner of Worker.Busy: the flag is set before an
// exec and cleared in a guaranteed-release wrapper around it.
type Provisioner struct {
	mu       sync.Mutex
	runtime  Runtime
	registry *Registry
	network  string
	configs  map[string]AgentConfig
	secrets  func(tool string) (string, error)
	workers  map[string]*Worker // keyed by container name
	seq      int
}

// NewProvisioner returns a Provisioner. secretFor resolves a coding
// tool's API key for env injection; it may be nil, in which case no
// secret is injected (ToolUnavailable surfaces downstream instead).
func NewProvisioner(runtime Runtime, registry *Registry, network string, configs map[string]AgentConfig, secretFor func(tool string) (string, error)) *Provisioner {
	if configs == nil {
		configs = DefaultAgentConfigs()
	}
	return &Provisioner{
		runtime:  runtime,
		registry: registry,
		network:  network,
		configs:  configs,
		secrets:  secretFor,
		workers:  make(map[string]*Worker),
	}
}

// ProvisionAgent starts a new container for agentType. name defaults
// to "cloud-code-{agentType}-{n}" if empty.
func (p *Provisioner) ProvisionAgent(ctx context.Context, agentType, name, workspacePath string, extraEnv map[string]string) (*Worker, error) {
	p.mu.Lock()
	cfg, ok := p.configs[agentType]
	if !ok {
		p.mu.Unlock()
		return nil, taskerr.New(taskerr.ContainerProvisionFailed, fmt.Sprintf("unknown agent type %q", agentType), nil)
	}
	p.seq++
	if name == "" {
		name = fmt.Sprintf("cloud-code-%s-%d", agentType, p.seq)
	}
	p.mu.Unlock()

	envs := []string{"AGENT_TYPE=" + cfg.AgentType, "CODING_CLI=" + cfg.CodingTool}
	if p.secrets != nil {
		if key, err := p.secrets(cfg.CodingTool); err == nil && key != "" {
			envs = append(envs, secretEnvVar(cfg.CodingTool)+"="+key)
		}
	}
	for k, v := range cfg.ExtraEnv {
		envs = append(envs, k+"="+v)
	}
	for k, v := range extraEnv {
		envs = append(envs, k+"="+v)
	}

	var volumes []Volume
	if workspacePath != "" {
		volumes = append(volumes, Volume{HostPath: workspacePath, ContainerPath: "/workspace", Mode: "rw"})
	}

	handle, err := p.runtime.Run(ctx, cfg.Image, name, p.network, envs, volumes, cfg.MemLimit, cfg.CPULimit, []string{"tail", "-f", "/dev/null"})
	if err != nil {
		return nil, err
	}

	w := &Worker{
		ContainerID:   handle.ID,
		Name:          name,
		AgentType:     agentType,
		CodingTool:    cfg.CodingTool,
		WorkspacePath: workspacePath,
	}

	p.mu.Lock()
	p.workers[name] = w
	p.mu.Unlock()

	if p.registry != nil {
		if err := p.registry.Upsert(ctx, w); err != nil {
			log.Warn(log.CatContainer, "failed to persist worker to registry", "name", name, "error", err.Error())
		}
	}

	log.Info(log.CatContainer, "agent provisioned", "name", name, "agent_type", agentType, "container_id", handle.ID)
	return w, nil
}

// GetOrCreateAgent returns an idle worker of agentType if one exists,
// else provisions a new one. If workspacePath differs from the
// returned worker's current binding, the worker is stopped and
// re-provisioned against the new workspace — mutating a running
// container's bind mount isn't portable across engines.
func (p *Provisioner) GetOrCreateAgent(ctx context.Context, agentType, workspacePath string) (*Worker, error) {
	p.mu.Lock()
	var idle *Worker
	for _, w := range p.workers {
		if w.AgentType == agentType && !w.Busy {
			idle = w
			break
		}
	}
	p.mu.Unlock()

	if idle == nil {
		return p.ProvisionAgent(ctx, agentType, "", workspacePath, nil)
	}
	if idle.WorkspacePath == workspacePath {
		return idle, nil
	}

	log.Info(log.CatContainer, "workspace changed, re-provisioning worker", "name", idle.Name, "old_workspace", idle.WorkspacePath, "new_workspace", workspacePath)
	if err := p.StopAgent(ctx, idle); err != nil {
		log.Warn(log.CatContainer, "failed to stop worker before re-provision", "name", idle.Name, "error", err.Error())
	}
	return p.ProvisionAgent(ctx, agentType, idle.Name, workspacePath, nil)
}

// Acquire marks w busy and returns a release function that clears the
// flag unconditionally — callers defer the release so a panicking or
// erroring exec never leaves a worker stuck busy.
func (p *Provisioner) Acquire(w *Worker) (release func()) {
	p.mu.Lock()
	w.Busy = true
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		w.Busy = false
		p.mu.Unlock()
	}
}

// ExecuteInAgent execs cmd inside w's container, scoped by Acquire/release.
func (p *Provisioner) ExecuteInAgent(ctx context.Context, w *Worker, cmd []string, workdir string) (exitCode int, stdout, stderr string, err error) {
	release := p.Acquire(w)
	defer release()
	return p.runtime.Exec(ctx, Handle{ID: w.ContainerID}, cmd, workdir)
}

// HealthCheck reports whether w's container is running.
func (p *Provisioner) HealthCheck(ctx context.Context, w *Worker) bool {
	res, err := p.runtime.Inspect(ctx, Handle{ID: w.ContainerID})
	if err != nil {
		return false
	}
	return res.Running
}

// StopAgent stops w's container and drops it from the in-memory pool.
func (p *Provisioner) StopAgent(ctx context.Context, w *Worker) error {
	err := p.runtime.Stop(ctx, Handle{ID: w.ContainerID}, 10)
	p.mu.Lock()
	delete(p.workers, w.Name)
	p.mu.Unlock()
	if p.registry != nil {
		if dErr := p.registry.Delete(ctx, w.Name); dErr != nil {
			log.Warn(log.CatContainer, "failed to remove worker from registry", "name", w.Name, "error", dErr.Error())
		}
	}
	return err
}

// RemoveAgent stops and force-removes w's container.
func (p *Provisioner) RemoveAgent(ctx context.Context, w *Worker) error {
	if err := p.StopAgent(ctx, w); err != nil {
		log.Warn(log.CatContainer, "stop before remove failed, continuing", "name", w.Name, "error", err.Error())
	}
	return p.runtime.Remove(ctx, Handle{ID: w.ContainerID}, true)
}

// CleanupAll stops and removes every tracked worker.
func (p *Provisioner) CleanupAll(ctx context.Context) error {
	p.mu.Lock()
	workers := make([]*Worker, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.mu.Unlock()

	var firstErr error
	for _, w := range workers {
		if err := p.RemoveAgent(ctx, w); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RestoreFromRegistry repopulates the in-memory pool from the
// persisted registry, for recovery after an orchestrator restart.
func (p *Provisioner) RestoreFromRegistry(ctx context.Context) error {
	if p.registry == nil {
		return nil
	}
	workers, err := p.registry.List(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range workers {
		wCopy := w
		p.workers[w.Name] = &wCopy
	}
	return nil
}

func secretEnvVar(tool string) string {
	switch tool {
	case "codex":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GOOGLE_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}
