package alert

import "log"

// DefaultTimeoutMs is the default per-hook execution timeout.
const DefaultTimeoutMs = 5000

// Runner dispatches notifications to every subscribed hook. Hook
// failures are logged and never propagate back into the pipeline.
type Runner struct {
	manager  *Manager
	executor *Executor
}

// NewRunner creates a Runner over the given hook directory.
func NewRunner(hookDir string, timeoutMs int) *Runner {
	if timeoutMs <= 0 {
		timeoutMs = DefaultTimeoutMs
	}
	return &Runner{
		manager:  NewManager(hookDir),
		executor: NewExecutor(timeoutMs),
	}
}

// Discover scans the hook directory for hooks.
func (r *Runner) Discover() error {
	return r.manager.Discover()
}

// Manager returns the underlying hook manager.
func (r *Runner) Manager() *Manager {
	return r.manager
}

// Dispatch runs every hook subscribed to the notification's event.
// Hooks execute sequentially in the caller's goroutine; callers on the
// frame path should invoke this from a separate goroutine.
func (r *Runner) Dispatch(n *Notification) {
	for _, hook := range r.manager.Subscribed(n.Event) {
		resp, err := r.executor.Execute(hook, n)
		if err != nil {
			log.Printf("Hook %s failed for %s: %v", hook.Manifest.Name, n.Event, err)
			continue
		}
		if !resp.Success {
			log.Printf("Hook %s rejected %s: %s", hook.Manifest.Name, n.Event, resp.Error)
		}
	}
}
