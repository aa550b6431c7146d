package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ghdispatch/internal/github"
	"ghdispatch/internal/logbook"
	"ghdispatch/internal/notify"
)

type stubAPI struct {
	dispatchBody string
	dispatchErr  error
	run          github.WorkflowRun
	runFound     bool
	runErr       error

	dispatched  int
	polled      int
	gotDispatch github.DispatchRequest
}

func (s *stubAPI) Dispatch(_ context.Context, req github.DispatchRequest) (string, error) {
	s.dispatched++
	s.gotDispatch = req
	return s.dispatchBody, s.dispatchErr
}

func (s *stubAPI) LatestRun(context.Context) (github.WorkflowRun, bool, error) {
	s.polled++
	return s.run, s.runFound, s.runErr
}

func newTestRunner(t *testing.T, api API) (*Runner, *strings.Builder) {
	t.Helper()
	out := &strings.Builder{}
	book, err := logbook.New(filepath.Join(t.TempDir(), "test.log"), "test-id")
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	return &Runner{
		Client:    api,
		Out:       out,
		Log:       book,
		ID:        "test-id",
		PollDelay: 5 * time.Second,
		sleep:     func(time.Duration) {},
	}, out
}

func TestRunDispatchThenPoll(t *testing.T) {
	api := &stubAPI{
		runFound: true,
		run: github.WorkflowRun{
			ID:        7001,
			Status:    "queued",
			CreatedAt: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
			HTMLURL:   "https://github.com/octo/collector/actions/runs/7001",
		},
	}
	r, out := newTestRunner(t, api)
	req := github.NewDispatchRequest("main", "ck", "account", `{"max_pages":3}`)
	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if api.dispatched != 1 || api.polled != 1 {
		t.Fatalf("expected one dispatch and one poll, got %d/%d", api.dispatched, api.polled)
	}
	if api.gotDispatch.Inputs.Kwargs != `{"max_pages":3}` {
		t.Fatalf("kwargs not forwarded verbatim: %q", api.gotDispatch.Inputs.Kwargs)
	}
	text := out.String()
	for _, want := range []string{"accepted", "7001", "queued", "(pending)", "runs/7001"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunDispatchFailureIsFatal(t *testing.T) {
	api := &stubAPI{dispatchErr: &github.APIError{StatusCode: 422, Body: "bad inputs"}}
	r, _ := newTestRunner(t, api)
	err := r.Run(context.Background(), github.NewDispatchRequest("main", "ck", "nope", "{}"))
	if err == nil {
		t.Fatal("expected error when dispatch is rejected")
	}
	var apiErr *github.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped *APIError, got %v", err)
	}
	if api.polled != 0 {
		t.Fatal("must not poll after a failed dispatch")
	}
}

func TestRunPollFailureIsNotFatal(t *testing.T) {
	api := &stubAPI{runErr: errors.New("boom")}
	r, out := newTestRunner(t, api)
	if err := r.Run(context.Background(), github.NewDispatchRequest("main", "ck", "detail", "{}")); err != nil {
		t.Fatalf("poll failure must not fail the run: %v", err)
	}
	if !strings.Contains(out.String(), "Warning") {
		t.Fatalf("expected a warning in output:\n%s", out.String())
	}
}

func TestRunZeroRunsPrintsNoDetails(t *testing.T) {
	api := &stubAPI{runFound: false}
	r, out := newTestRunner(t, api)
	if err := r.Run(context.Background(), github.NewDispatchRequest("main", "ck", "detail", "{}")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(out.String(), "Run ID") {
		t.Fatalf("no run details expected for an empty runs list:\n%s", out.String())
	}
}

func TestRunSkipPoll(t *testing.T) {
	api := &stubAPI{runFound: true}
	r, _ := newTestRunner(t, api)
	r.SkipPoll = true
	if err := r.Run(context.Background(), github.NewDispatchRequest("main", "ck", "detail", "{}")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if api.polled != 0 {
		t.Fatal("SkipPoll must suppress the status poll")
	}
}

func TestRunNotificationFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	api := &stubAPI{}
	r, out := newTestRunner(t, api)
	r.Notifier = notify.New(server.URL, "k")
	if err := r.Run(context.Background(), github.NewDispatchRequest("main", "ck", "detail", "{}")); err != nil {
		t.Fatalf("notification failure must not fail the run: %v", err)
	}
	if !strings.Contains(out.String(), "notification failed") {
		t.Fatalf("expected a notification warning:\n%s", out.String())
	}
}
