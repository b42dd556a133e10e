package orchestrator

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// StartMonitoring launches the polling loop if it isn't already
// running. A fsnotify watch on each active workspace's .cloud-code
// directory provides a fast path — a reporting write triggers an
// immediate check — with the fixed-interval ticker as the backstop for
// filesystems or environments where fsnotify can't be set up. Polling
// stays the source of truth; the watcher is only a latency
// optimization.
func (o *Orchestrator) StartMonitoring(ctx context.Context) {
	if o.monitorCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	o.monitorCancel = cancel
	o.monitorDone = make(chan struct{})

	go o.monitorLoop(ctx)
}

// StopMonitoring stops the polling loop and waits for it to exit.
func (o *Orchestrator) StopMonitoring() {
	if o.monitorCancel == nil {
		return
	}
	o.monitorCancel()
	<-o.monitorDone
	o.monitorCancel = nil
}

func (o *Orchestrator) monitorLoop(ctx context.Context) {
	defer close(o.monitorDone)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn(log.CatOrchestrator, "fsnotify unavailable, falling back to ticker-only polling", "error", err.Error())
		watcher = nil
	} else {
		defer watcher.Close()
	}
	watched := make(map[string]bool)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		o.syncWatches(watcher, watched)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.checkTasks(ctx)
		case event := <-watcherEvents(watcher):
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				o.checkTasks(ctx)
			}
		case err := <-watcherErrors(watcher):
			if err != nil {
				log.Warn(log.CatOrchestrator, "fsnotify watch error", "error", err.Error())
			}
		}
	}
}

// syncWatches adds a watch for any active workspace not already
// watched. Failures are logged and left for the ticker to cover.
func (o *Orchestrator) syncWatches(watcher *fsnotify.Watcher, watched map[string]bool) {
	if watcher == nil {
		return
	}
	o.mu.Lock()
	paths := make([]string, 0, len(o.active))
	for _, at := range o.active {
		paths = append(paths, taskdoc.CloudCodeDir(at.WorkspacePath))
	}
	o.mu.Unlock()

	for _, p := range paths {
		if watched[p] {
			continue
		}
		if err := watcher.Add(p); err != nil {
			log.Warn(log.CatOrchestrator, "failed to watch workspace", "path", p, "error", err.Error())
			continue
		}
		watched[p] = true
	}
}

func watcherEvents(w *fsnotify.Watcher) <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

func watcherErrors(w *fsnotify.Watcher) <-chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}

// checkTasks reads every active task's report and dispatches terminal
// ones to the completion handler, then stops tracking them.
func (o *Orchestrator) checkTasks(ctx context.Context) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.poll_tick")
	defer span.End()

	o.mu.Lock()
	snapshot := make(map[string]*ActiveTask, len(o.active))
	for id, at := range o.active {
		snapshot[id] = at
	}
	o.mu.Unlock()

	var finished int
	for taskID, at := range snapshot {
		report, err := taskdoc.GetTaskStatus(at.WorkspacePath, taskID)
		if err != nil {
			if taskerr.Is(err, taskerr.DocumentCorrupt) {
				log.ErrorErr(log.CatOrchestrator, "reporting document corrupt, aborting task", err, "task_id", taskID)
				o.removeActive(taskID)
			}
			continue
		}

		switch report.Status {
		case taskdoc.ReportCompleted, taskdoc.ReportFailed, taskdoc.ReportBlocked:
			finished++
			o.handleTaskCompletion(ctx, taskID, at, report)
		}
	}
	span.SetAttributes(attribute.Int("tasks.checked", len(snapshot)), attribute.Int("tasks.finished", finished))
}

func (o *Orchestrator) removeActive(taskID string) {
	o.mu.Lock()
	delete(o.active, taskID)
	o.mu.Unlock()
}
