package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyloom/internal/book"
	"storyloom/internal/llm"
	"storyloom/internal/pipeline"
	"storyloom/internal/story"
)

type runArgs struct {
	specPath     string
	outDir       string
	runID        string
	model        string
	baseURL      string
	mock         bool
	maxAttempts  int
	maxChapters  int
	chapterDelay time.Duration
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{model: "gpt-4o-mini"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--mock":
			ra.mock = true
		case "--spec":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--spec requires a value")
			}
			ra.specPath = args[i]
		case "--out":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--out requires a value")
			}
			ra.outDir = args[i]
		case "--run-id":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--run-id requires a value")
			}
			ra.runID = args[i]
		case "--model":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--model requires a value")
			}
			ra.model = args[i]
		case "--base-url":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--base-url requires a value")
			}
			ra.baseURL = args[i]
		case "--max-attempts":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--max-attempts requires a value")
			}
			n := 0
			if _, err := fmt.Sscanf(args[i], "%d", &n); err != nil || n < 1 {
				return ra, fmt.Errorf("--max-attempts: invalid value %q", args[i])
			}
			ra.maxAttempts = n
		case "--chapters":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--chapters requires a value")
			}
			n := 0
			if _, err := fmt.Sscanf(args[i], "%d", &n); err != nil || n < 1 {
				return ra, fmt.Errorf("--chapters: invalid value %q", args[i])
			}
			ra.maxChapters = n
		case "--chapter-delay":
			i++
			if i >= len(args) {
				return ra, fmt.Errorf("--chapter-delay requires a value")
			}
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return ra, fmt.Errorf("--chapter-delay: %w", err)
			}
			ra.chapterDelay = d
		default:
			return ra, fmt.Errorf("unknown arg: %s", args[i])
		}
	}
	if ra.specPath == "" || ra.outDir == "" {
		return ra, fmt.Errorf("--spec and --out are required")
	}
	return ra, nil
}

func runCommand(args []string) {
	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}

	bk, err := story.LoadBookFile(ra.specPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var exec pipeline.Executor
	if ra.mock {
		exec = &llm.MockExecutor{TargetWords: bk.Spec.TargetWordsPerChapter}
	} else {
		client, err := llm.NewOpenAIClient(llm.Settings{
			Model:   ra.model,
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: ra.baseURL,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		exec = llm.NewStageExecutor(client)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &book.Runner{
		Book:              bk,
		Exec:              exec,
		OutDir:            ra.outDir,
		RunID:             ra.runID,
		MaxAttempts:       ra.maxAttempts,
		MaxChapters:       ra.maxChapters,
		Backoff:           pipeline.DefaultBackoffConfig(),
		InterChapterDelay: ra.chapterDelay,
	}
	summary, err := runner.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("run %s: %s (%d passed, %d failed)\n", summary.RunID, summary.Status, summary.Passed, summary.Failed)
	fmt.Printf("artifacts: %s\n", summary.OutDir)
	if summary.Failed > 0 {
		os.Exit(2)
	}
}
