package agentloop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudcode/orchestrator/internal/codingtool"
	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// Config configures a Loop.
type Config struct {
	WorkspacePath       string
	AgentType           string
	AgentID             string
	Tool                codingtool.Tool
	Git                 GitRunner
	IdlePollInterval    time.Duration
	AgentTimeoutSeconds int
}

// Loop is the in-worker control loop: single-threaded cooperative,
// either idle (sleeping between document reads) or executing exactly
// one task through one blocking coding-tool call.
type Loop struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Loop. Call Start to launch its goroutine.
func New(cfg Config) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{cfg: cfg, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Start initializes the reporting document and launches the loop
// goroutine.
func (l *Loop) Start() error {
	if err := taskdoc.InitializeAgent(l.cfg.WorkspacePath, l.cfg.AgentType, l.cfg.AgentID); err != nil {
		return fmt.Errorf("initialize agent: %w", err)
	}
	go l.run()
	return nil
}

// Stop cancels the loop's context and blocks until the loop goroutine
// has exited. An idle loop exits at once. A task mid-execution is cut
// short: its coding-tool call runs under the same context, so the
// subprocess is killed and the task's report records that killed run's
// result (normally failed) before the loop exits.
func (l *Loop) Stop() {
	l.cancel()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	log.Info(log.CatAgent, "agent loop starting", "agent_id", l.cfg.AgentID, "agent_type", l.cfg.AgentType)

	for {
		select {
		case <-l.ctx.Done():
			log.Info(log.CatAgent, "agent loop stopped", "agent_id", l.cfg.AgentID)
			return
		default:
		}

		executed, err := l.tick()
		if err != nil {
			log.ErrorErr(log.CatAgent, "error in agent loop tick", err)
		}
		if !executed {
			select {
			case <-l.ctx.Done():
				return
			case <-time.After(l.cfg.IdlePollInterval):
			}
		}
	}
}

// tick runs one iteration: pick the next eligible task if any and
// execute it. Returns executed=true if a task was run (the caller
// should not idle-sleep before trying again).
func (l *Loop) tick() (executed bool, err error) {
	pending, err := taskdoc.GetPendingTasks(l.cfg.WorkspacePath)
	if err != nil {
		return false, fmt.Errorf("get pending tasks: %w", err)
	}
	report, err := taskdoc.ReadReport(l.cfg.WorkspacePath)
	if err != nil {
		return false, fmt.Errorf("read report: %w", err)
	}

	task, ok := SelectNextTask(pending, report)
	if !ok {
		return false, nil
	}

	l.executeTask(task)
	return true, nil
}

// executeTask runs one task end to end: status transitions, prompt
// construction, tool invocation, commit, terminal report. Every error
// is absorbed here — the task is marked failed and the outer loop
// continues.
func (l *Loop) executeTask(t taskdoc.Task) {
	log.Info(log.CatAgent, "starting task", "task_id", t.ID, "title", t.Title)

	if err := l.runTransitions(t); err != nil {
		l.fail(t.ID, err.Error())
		return
	}

	prompt := BuildPrompt(t)
	timeout := l.cfg.AgentTimeoutSeconds
	if timeout <= 0 {
		timeout = 3600
	}

	result, err := l.cfg.Tool.Execute(l.ctx, prompt, l.cfg.WorkspacePath, timeout)
	if err != nil {
		l.fail(t.ID, err.Error())
		return
	}

	outcome := classifyResult(result)
	switch outcome.Kind {
	case OutcomeSuccess:
		l.handleSuccess(t, result)
	case OutcomeNeedsHandoff:
		l.handleHandoff(t)
	case OutcomeTimedOut, OutcomeFailed:
		l.fail(t.ID, outcome.ErrMessage)
	}
}

func (l *Loop) runTransitions(t taskdoc.Task) error {
	if err := taskdoc.UpdateStatus(l.cfg.WorkspacePath, t.ID, taskdoc.ReportReceived, "Task acknowledged", ""); err != nil {
		return err
	}
	if err := taskdoc.UpdateStatus(l.cfg.WorkspacePath, t.ID, taskdoc.ReportPlanning, "Analyzing task requirements", ""); err != nil {
		return err
	}
	return taskdoc.UpdateStatus(l.cfg.WorkspacePath, t.ID, taskdoc.ReportInProgress, "Starting implementation", "")
}

func (l *Loop) handleSuccess(t taskdoc.Task, result codingtool.Result) {
	changes, err := changedFiles(l.ctx, l.cfg.Git, l.cfg.WorkspacePath)
	if err != nil {
		log.ErrorErr(log.CatAgent, "failed to list changed files", err, "task_id", t.ID)
	}
	filesModified := annotateLineStats(l.ctx, l.cfg.Git, l.cfg.WorkspacePath, changes, l.readWorkspaceFile)

	commits, err := commitChanges(l.ctx, l.cfg.Git, l.cfg.WorkspacePath, t)
	if err != nil {
		log.ErrorErr(log.CatAgent, "failed to commit changes", err, "task_id", t.ID)
	}

	summary := extractSummary(result.Output, result.StructuredSummary)
	changesSummary := fmt.Sprintf("Implemented %s", t.Title)

	if err := taskdoc.SetTaskCompleted(l.cfg.WorkspacePath, t.ID, summary, changesSummary, filesModified, commits); err != nil {
		log.ErrorErr(log.CatAgent, "failed to record task completion", err, "task_id", t.ID)
	}
	log.Info(log.CatAgent, "task completed", "task_id", t.ID, "commits", len(commits), "files_modified", len(filesModified))
}

func (l *Loop) handleHandoff(t taskdoc.Task) {
	alternative := codingtool.SuggestAlternative(l.cfg.Tool.Name())
	reason := fmt.Sprintf("recommend_handoff:%s", alternative)
	if err := taskdoc.SetTaskBlocked(l.cfg.WorkspacePath, t.ID, reason); err != nil {
		log.ErrorErr(log.CatAgent, "failed to record handoff", err, "task_id", t.ID)
	}
	log.Info(log.CatAgent, "task requesting handoff", "task_id", t.ID, "alternative", alternative)
}

func (l *Loop) fail(taskID, message string) {
	if err := taskdoc.SetTaskFailed(l.cfg.WorkspacePath, taskID, message); err != nil {
		log.ErrorErr(log.CatAgent, "failed to record task failure", err, "task_id", taskID)
	}
	log.Warn(log.CatAgent, "task failed", "task_id", taskID, "error", message)
}

// readWorkspaceFile reads path relative to the workspace root, for the
// file-change line-stat annotator.
func (l *Loop) readWorkspaceFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(l.cfg.WorkspacePath, path)) //nolint:gosec // path is workspace-relative, reported by git status
	if err != nil {
		return "", err
	}
	return string(data), nil
}
