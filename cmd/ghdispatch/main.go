// cmd/ghdispatch/main.go
//
// ghdispatch triggers a GitHub Actions workflow_dispatch event for the
// configured repository, forwarding cookie/action/kwargs inputs to the
// downstream collection job, then reports the workflow's most recent run.
//
// Exit codes: 0 dispatch accepted, 1 dispatch failed, 2 usage error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"ghdispatch/internal/config"
	"ghdispatch/internal/dispatch"
	"ghdispatch/internal/github"
	"ghdispatch/internal/kwargs"
	"ghdispatch/internal/logbook"
	"ghdispatch/internal/notify"
	"ghdispatch/internal/tui"
)

const (
	logFileName       = "ghdispatch.log"
	watchPollInterval = 3 * time.Second
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration file")
	initConfig := flag.Bool("init", false, "write a default configuration file and exit")
	action := flag.String("action", "", "downstream action tag (e.g. detail, account, comment)")
	cookie := flag.String("cookie", "", "cookie string forwarded to the workflow")
	rawKwargs := flag.String("kwargs", "", "JSON-encoded kwargs forwarded verbatim to the workflow")
	ref := flag.String("ref", "", "branch to run the workflow on (overrides the config file)")
	watch := flag.Bool("watch", false, "keep polling the run until it completes")
	noPoll := flag.Bool("no-poll", false, "skip the post-dispatch status poll")
	sets := pairListFlag{}
	flag.Var(&sets, "set", "kwargs entry (key=value, repeatable; alternative to -kwargs)")
	flag.Parse()

	if *initConfig {
		if err := config.WriteDefault(*configPath); err != nil {
			die("%v", err)
		}
		fmt.Printf("Wrote %s — fill in owner, repo and workflow_file.\n", *configPath)
		return
	}

	if strings.TrimSpace(*action) == "" {
		usage("-action is required")
	}
	if strings.TrimSpace(*cookie) == "" {
		usage("-cookie is required")
	}
	if *rawKwargs != "" && len(sets) > 0 {
		usage("-kwargs and -set are mutually exclusive")
	}

	kw := *rawKwargs
	if kw == "" {
		if len(sets) > 0 {
			built, err := kwargs.Build(sets)
			if err != nil {
				usage("%v", err)
			}
			kw = built
		} else {
			kw = "{}"
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		die("%v (run with -init to create one)", err)
	}
	if err := cfg.Validate(); err != nil {
		die("%v", err)
	}
	branch := cfg.Ref
	if strings.TrimSpace(*ref) != "" {
		branch = *ref
	}

	id := uuid.NewString()
	book, err := logbook.New(logFileName, id)
	if err != nil {
		die("open log file: %v", err)
	}

	client := github.NewClient(cfg.APIBaseURL, cfg.Owner, cfg.Repo, cfg.WorkflowFile, cfg.Token, cfg.UserAgent)
	runner := &dispatch.Runner{
		Client:    client,
		Out:       os.Stdout,
		Log:       book,
		Notifier:  notify.New(cfg.Notify.WebhookURL, cfg.Notify.Key),
		ID:        id,
		PollDelay: time.Duration(cfg.PollDelaySeconds) * time.Second,
		SkipPoll:  *noPoll || *watch,
	}

	req := github.NewDispatchRequest(branch, *cookie, *action, kw)
	if err := runner.Run(context.Background(), req); err != nil {
		die("%v", err)
	}

	if *watch {
		program := tea.NewProgram(tui.NewWatch(client, watchPollInterval))
		model, err := program.Run()
		if err != nil {
			// Watch is a convenience on top of an already accepted
			// dispatch; it never changes the exit code.
			fmt.Fprintf(os.Stderr, "Warning: watch mode failed: %v\n", err)
			book.Warn("watch mode failed: %v", err)
			return
		}
		if w, ok := model.(tui.Watch); ok && w.Done() {
			fmt.Println("Run completed.")
		}
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func usage(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	flag.Usage()
	os.Exit(2)
}

// pairListFlag collects repeatable key=value flags in argument order.
type pairListFlag []string

func (p *pairListFlag) String() string {
	return strings.Join(*p, ", ")
}

func (p *pairListFlag) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	*p = append(*p, value)
	return nil
}
