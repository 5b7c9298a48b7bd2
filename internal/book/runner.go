package book

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"storyloom/internal/pipeline"
	"storyloom/internal/story"
)

// Runner generates a whole book: chapters run strictly one at a time, each
// with its own generation state, and the continuity bible produced by one
// chapter becomes the next chapter's read-only input.
type Runner struct {
	Book *story.Book
	Exec pipeline.Executor

	// OutDir is the parent for per-run directories. Required.
	OutDir string

	// RunID defaults to a fresh ULID.
	RunID string

	MaxAttempts int
	Backoff     pipeline.BackoffConfig

	// MaxChapters truncates the outline for short test runs. Zero means all.
	MaxChapters int

	// InterChapterDelay spaces out chapters so per-minute token budgets
	// recover between them. Zero disables the pause.
	InterChapterDelay time.Duration

	// Sleep is injectable for tests; nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ChapterSummary is one chapter's line in the final run summary.
type ChapterSummary struct {
	Chapter  int    `json:"chapter"`
	Title    string `json:"title,omitempty"`
	Attempts int    `json:"attempts"`
	Passed   bool   `json:"passed"`
	Words    int    `json:"words,omitempty"`
}

// RunSummary is the terminal outcome document for a run.
type RunSummary struct {
	RunID    string           `json:"run_id"`
	Status   string           `json:"status"`
	OutDir   string           `json:"-"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
	Chapters []ChapterSummary `json:"chapters"`
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run generates every chapter in outline order and writes all run artifacts
// (per-chapter files, progress.ndjson, manifest.json, book.md, book.html,
// final.json) under OutDir/RunID.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	if r.Book == nil {
		return nil, fmt.Errorf("runner: book is required")
	}
	if r.Exec == nil {
		return nil, fmt.Errorf("runner: executor is required")
	}
	if r.OutDir == "" {
		return nil, fmt.Errorf("runner: out dir is required")
	}
	runID := r.RunID
	if runID == "" {
		runID = ulid.Make().String()
	}
	runDir := filepath.Join(r.OutDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, err
	}

	progress, closeProgress, err := newProgressLog(filepath.Join(runDir, "progress.ndjson"))
	if err != nil {
		return nil, err
	}
	defer closeProgress()

	store := NewArtifactStore(runDir)

	specJSON, err := json.Marshal(r.Book.Spec)
	if err != nil {
		return nil, err
	}
	bible := &story.Bible{Genre: r.Book.Spec.Genre}
	bibleJSON, err := bible.JSON()
	if err != nil {
		return nil, err
	}

	outline := append([]story.ChapterOutline(nil), r.Book.Outline...)
	sort.Slice(outline, func(i, j int) bool { return outline[i].ChapterNumber < outline[j].ChapterNumber })
	if r.MaxChapters > 0 && r.MaxChapters < len(outline) {
		outline = outline[:r.MaxChapters]
	}

	summary := &RunSummary{RunID: runID, OutDir: runDir}
	var finished []ChapterText

	progress(map[string]any{
		"event":    "run_started",
		"run_id":   runID,
		"title":    r.Book.Title,
		"chapters": len(outline),
	})

	for i, ch := range outline {
		outlineJSON, err := json.Marshal(ch)
		if err != nil {
			return nil, err
		}
		target := ch.TargetWords
		if target <= 0 {
			target = r.Book.Spec.TargetWordsPerChapter
		}

		ctrl := &pipeline.Controller{
			Exec:        r.Exec,
			MaxAttempts: r.MaxAttempts,
			TargetWords: target,
			Backoff:     r.Backoff,
			RunID:       runID,
			Progress:    progress,
			Sleep:       r.Sleep,
		}
		res, err := ctrl.GenerateChapter(ctx, pipeline.ChapterRequest{
			ChapterNumber: ch.ChapterNumber,
			OutlineJSON:   string(outlineJSON),
			SpecJSON:      string(specJSON),
			BibleJSON:     bibleJSON,
		})
		if err != nil {
			r.writeFinal(store, summary, "fail")
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}

		if err := r.storeChapter(store, ch.ChapterNumber, res); err != nil {
			return nil, err
		}

		if res.Success {
			summary.Passed++
			bibleJSON = res.UpdatedBibleJSON
		} else {
			summary.Failed++
			// A failed chapter still moves the book forward with its best
			// attempt, but its continuity update is not trusted.
		}
		finished = append(finished, ChapterText{Number: ch.ChapterNumber, Title: ch.Title, Text: res.ChapterText})
		summary.Chapters = append(summary.Chapters, ChapterSummary{
			Chapter:  ch.ChapterNumber,
			Title:    ch.Title,
			Attempts: res.Attempts,
			Passed:   res.Success,
			Words:    len(strings.Fields(res.ChapterText)),
		})

		if i < len(outline)-1 && r.InterChapterDelay > 0 {
			progress(map[string]any{
				"event":    "inter_chapter_delay",
				"chapter":  ch.ChapterNumber,
				"delay_ms": r.InterChapterDelay.Milliseconds(),
			})
			if err := r.sleep(ctx, r.InterChapterDelay); err != nil {
				return nil, err
			}
		}
	}

	md := AssembleManuscript(r.Book.Title, finished)
	if err := store.WriteRunFile("book.md", []byte(md)); err != nil {
		return nil, err
	}
	html, err := RenderHTML(md)
	if err != nil {
		return nil, err
	}
	if err := store.WriteRunFile("book.html", []byte(html)); err != nil {
		return nil, err
	}

	status := "success"
	if summary.Failed > 0 {
		status = "partial"
	}
	r.writeFinal(store, summary, status)
	if err := store.WriteManifest(); err != nil {
		return nil, err
	}

	progress(map[string]any{
		"event":  "run_finished",
		"run_id": runID,
		"status": status,
		"passed": summary.Passed,
		"failed": summary.Failed,
	})
	return summary, nil
}

func (r *Runner) storeChapter(store *ArtifactStore, chapter int, res *pipeline.ChapterResult) error {
	if err := store.WriteChapterFile(chapter, "chapter.md", []byte(res.ChapterText)); err != nil {
		return err
	}
	if res.ScenePlanJSON != "" {
		if err := store.WriteChapterFile(chapter, "scene_plan.json", []byte(res.ScenePlanJSON)); err != nil {
			return err
		}
	}
	if res.DraftText != "" {
		if err := store.WriteChapterFile(chapter, "draft.md", []byte(res.DraftText)); err != nil {
			return err
		}
	}
	if res.Verdict != nil {
		b, err := json.MarshalIndent(res.Verdict, "", "  ")
		if err != nil {
			return err
		}
		if err := store.WriteChapterFile(chapter, "verdict.json", b); err != nil {
			return err
		}
	}
	if res.UpdatedBibleJSON != "" {
		if err := store.WriteChapterFile(chapter, "bible.json", []byte(res.UpdatedBibleJSON)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writeFinal(store *ArtifactStore, summary *RunSummary, status string) {
	summary.Status = status
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return
	}
	_ = store.WriteRunFile("final.json", b)
}

// newProgressLog returns an append sink writing one JSON event per line,
// each stamped with a UTC timestamp.
func newProgressLog(path string) (func(map[string]any), func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	var mu sync.Mutex
	sink := func(ev map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := ev["ts"]; !ok {
			ev["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
		}
		b, err := json.Marshal(ev)
		if err != nil {
			return
		}
		_, _ = f.Write(append(b, '\n'))
	}
	closer := func() { _ = f.Close() }
	return sink, closer, nil
}
