package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudcode/orchestrator/internal/config"
	"github.com/cloudcode/orchestrator/internal/container"
	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/orchestrator"
	"github.com/cloudcode/orchestrator/internal/secretstore"
	"github.com/cloudcode/orchestrator/internal/telemetry"
	"github.com/cloudcode/orchestrator/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the supervisor loop until interrupted",
	RunE:  runServe,
}

// providerEnvByCLI maps each coding-CLI credential path to the
// environment variable that backs it when no external secret store is
// reachable.
var providerEnvByCLI = map[string]string{
	"cloud-code/cli/claude-code": "ANTHROPIC_API_KEY",
	"cloud-code/cli/codex":       "OPENAI_API_KEY",
	"cloud-code/cli/gemini":      "GOOGLE_API_KEY",
}

func runServe(cmd *cobra.Command, args []string) error {
	v := viper.New()
	settings, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := log.Init(filepath.Join(os.TempDir(), "orchestratord.log"), 500)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	log.SetEnabled(true)
	if settings.Debug {
		log.SetMinLevel(log.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		ServiceName:  settings.AppName + "-orchestratord",
		OTLPEndpoint: settings.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	git := workspace.SubprocessGitRunner{}
	workspaces, err := workspace.NewManager(settings.WorkspacesPath, git)
	if err != nil {
		return fmt.Errorf("init workspace manager: %w", err)
	}

	registry, err := container.OpenRegistry(settings.DBPath)
	if err != nil {
		return fmt.Errorf("open worker registry: %w", err)
	}
	defer func() { _ = registry.Close() }()

	secretFn := buildSecretFunc(settings)
	runtime := container.NewCLIRuntime("docker", "")
	provisioner := container.NewProvisioner(runtime, registry, "cloud-code", container.DefaultAgentConfigs(), secretFn)

	if err := provisioner.RestoreFromRegistry(ctx); err != nil {
		log.Warn(log.CatOrchestrator, "restoring worker registry", "error", err)
	}

	auditDir := settings.WorkspacesPath + "/.cloud-code-audit"
	audit, err := orchestrator.NewAuditLog(auditDir)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = audit.Close() }()

	tracer := provider.Tracer("cloudcode/orchestrator")
	o := orchestrator.New(workspaces, provisioner, audit, tracer, settings.PollInterval())
	o.StartMonitoring(ctx)

	log.Info(log.CatOrchestrator, "orchestratord started", "workspaces_path", settings.WorkspacesPath)
	<-ctx.Done()
	log.Info(log.CatOrchestrator, "orchestratord shutting down")

	o.StopMonitoring()

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := provisioner.CleanupAll(cleanupCtx); err != nil {
		log.Warn(log.CatOrchestrator, "cleanup on shutdown", "error", err)
	}
	return nil
}

// buildSecretFunc wires the env-var fallback directly rather than
// dialing settings.SecretStoreAddr: this bootstrap targets a
// single-host run with no Vault-style store deployed alongside it.
func buildSecretFunc(settings config.Settings) func(tool string) (string, error) {
	fallback := secretstore.NewEnvFallback(providerEnvByCLI, os.LookupEnv)
	store := secretstore.NewCachedStore(fallback, 5*time.Minute)
	return store.CLICredential
}
