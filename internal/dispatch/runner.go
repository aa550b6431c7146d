// Package dispatch runs the trigger sequence: one workflow_dispatch POST,
// a fixed delay, then one best-effort poll of the latest run. Only the POST
// can fail the invocation; everything after it is advisory.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"ghdispatch/internal/github"
	"ghdispatch/internal/logbook"
	"ghdispatch/internal/notify"
)

// API is the slice of the GitHub client the runner needs.
type API interface {
	Dispatch(ctx context.Context, req github.DispatchRequest) (string, error)
	LatestRun(ctx context.Context) (github.WorkflowRun, bool, error)
}

// Runner orchestrates a single trigger invocation.
type Runner struct {
	Client   API
	Out      io.Writer
	Log      *logbook.Logbook
	Notifier *notify.Notifier

	// ID correlates console output, log lines and the notification.
	ID string

	// PollDelay is the fixed wait between dispatch and poll.
	PollDelay time.Duration

	// SkipPoll suppresses the post-dispatch poll (watch mode polls on its
	// own schedule instead).
	SkipPoll bool

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// Run performs the sequence. A non-nil error means the dispatch itself was
// rejected and the process should exit non-zero; poll and notification
// failures only produce warnings.
func (r *Runner) Run(ctx context.Context, req github.DispatchRequest) error {
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	fmt.Fprintf(r.Out, "Dispatching workflow (action=%s, ref=%s, id=%s)...\n",
		req.Inputs.Action, req.Ref, r.ID)
	r.Log.Info("dispatch action=%s ref=%s", req.Inputs.Action, req.Ref)

	body, err := r.Client.Dispatch(ctx, req)
	if err != nil {
		r.Log.Error("dispatch failed: %v", err)
		return fmt.Errorf("dispatch workflow: %w", err)
	}
	fmt.Fprintln(r.Out, "Workflow dispatch accepted.")
	if trimmed := strings.TrimSpace(body); trimmed != "" {
		fmt.Fprintln(r.Out, trimmed)
	}
	r.Log.Info("dispatch accepted")

	r.notify(ctx, req)

	if r.SkipPoll {
		return nil
	}
	fmt.Fprintf(r.Out, "Waiting %s before checking run status...\n", r.PollDelay)
	sleep(r.PollDelay)

	run, found, err := r.Client.LatestRun(ctx)
	if err != nil {
		fmt.Fprintf(r.Out, "Warning: could not fetch run status: %v\n", err)
		r.Log.Warn("status poll failed: %v", err)
		return nil
	}
	if !found {
		r.Log.Info("status poll: no runs yet")
		return nil
	}
	fmt.Fprint(r.Out, FormatRun(run))
	r.Log.Info("latest run id=%d status=%s conclusion=%s", run.ID, run.Status, run.Conclusion)
	return nil
}

func (r *Runner) notify(ctx context.Context, req github.DispatchRequest) {
	if !r.Notifier.Enabled() {
		return
	}
	content := fmt.Sprintf("**Workflow dispatched**\n> action: %s\n> ref: %s\n> id: %s",
		req.Inputs.Action, req.Ref, r.ID)
	if err := r.Notifier.Send(ctx, content); err != nil {
		fmt.Fprintf(r.Out, "Warning: notification failed: %v\n", err)
		r.Log.Warn("notification failed: %v", err)
		return
	}
	r.Log.Info("notification sent")
}

// FormatRun renders the run fields the tool reports, one per line.
func FormatRun(run github.WorkflowRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run ID:      %d\n", run.ID)
	fmt.Fprintf(&b, "Status:      %s\n", run.Status)
	fmt.Fprintf(&b, "Conclusion:  %s\n", displayConclusion(run.Conclusion))
	fmt.Fprintf(&b, "Created:     %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "URL:         %s\n", run.HTMLURL)
	return b.String()
}

func displayConclusion(conclusion string) string {
	if conclusion == "" {
		return "(pending)"
	}
	return conclusion
}
