package pipeline

import (
	"context"
	"fmt"
	"time"

	"storyloom/internal/judge"
)

const (
	defaultMaxAttempts = 3

	// Consecutive same-level retries allowed before the controller forces
	// the next wider level. Prevents indefinite cosmetic-only looping when
	// deeper issues persist.
	streakEscalationThreshold = 2
)

// Controller drives the attempt loop for one chapter: select a stage plan
// for the current retry level, execute it, absorb outputs, classify the
// verdict, apply escalation policy, and retry or terminate.
type Controller struct {
	Exec Executor

	// MaxAttempts bounds the attempt loop; zero means the default of 3.
	MaxAttempts int

	// Word-budget parameters for preserved scene plans. Zero means the
	// package defaults (3000 / 100).
	TargetWords   int
	WordTolerance int

	Backoff BackoffConfig

	RunID string

	// Progress receives structured events (stage_attempt_start,
	// retry_level_decided, plan_fallback, backoff_sleep, ...). Optional.
	Progress func(map[string]any)

	// Sleep is injectable for tests; nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ChapterRequest carries the per-chapter inputs. Outline, spec, and bible
// are pre-serialized JSON documents: the controller threads them through to
// stages without interpreting them.
type ChapterRequest struct {
	ChapterNumber int
	OutlineJSON   string
	SpecJSON      string
	BibleJSON     string
}

// ChapterResult is always returned to the caller, even on exhaustion; only
// unrecoverable stage errors propagate as hard failures.
type ChapterResult struct {
	ChapterText      string
	ScenePlanJSON    string
	DraftText        string
	UpdatedBibleJSON string
	Verdict          *judge.Verdict
	Attempts         int
	Success          bool
}

func (c *Controller) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return defaultMaxAttempts
}

func (c *Controller) emit(ev map[string]any) {
	if c.Progress == nil {
		return
	}
	c.Progress(ev)
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

// levelToRun selects the level for the coming attempt. Classification
// happens only after a run fails, so the level to run is whatever was
// decided last time; the first attempt and anything after a FullRetry
// decision run the full pipeline.
func levelToRun(state *GenerationState) RetryLevel {
	if state.CurrentAttempt == 0 || state.LastRetryLevel == "" || state.LastRetryLevel == LevelFullRetry {
		return LevelFullRetry
	}
	return state.LastRetryLevel
}

// GenerateChapter runs the chapter pipeline under the selective-retry state
// machine. It returns an error only when a stage execution failure occurs
// with no attempts left; quality-gate exhaustion returns Success=false.
func (c *Controller) GenerateChapter(ctx context.Context, req ChapterRequest) (*ChapterResult, error) {
	if c.Exec == nil {
		return nil, fmt.Errorf("controller: executor is required")
	}

	state := NewGenerationState()
	guidance := ""
	var lastVerdict *judge.Verdict
	lastContinuity := req.BibleJSON

	for {
		level := levelToRun(state)
		decision := PlanFor(level, state, c.TargetWords, c.WordTolerance)
		if decision.Degraded {
			c.emit(map[string]any{
				"event":           "plan_fallback",
				"chapter":         req.ChapterNumber,
				"attempt":         state.CurrentAttempt,
				"requested_level": string(level),
				"level":           string(decision.Level),
				"reason":          decision.Reason,
			})
		}

		c.emit(map[string]any{
			"event":   "attempt_start",
			"chapter": req.ChapterNumber,
			"attempt": state.CurrentAttempt,
			"max":     c.maxAttempts(),
			"level":   string(decision.Level),
		})

		outputs, verdict, continuity, err := c.runStages(ctx, req, decision, guidance)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if state.CurrentAttempt >= c.maxAttempts()-1 {
				return nil, fmt.Errorf("chapter %d: %w", req.ChapterNumber, err)
			}
			// Start the retry clean: stale guidance from the failed attempt
			// would steer a run that never saw its verdict.
			guidance = ""
			delay := DelayForStageError(err, state.CurrentAttempt+1, c.Backoff, backoffSeed(c.RunID, req.ChapterNumber, state.CurrentAttempt+1))
			c.emit(map[string]any{
				"event":      "stage_error",
				"chapter":    req.ChapterNumber,
				"attempt":    state.CurrentAttempt,
				"error":      err.Error(),
				"rate_limit": IsRateLimit(err),
				"backoff_ms": delay.Milliseconds(),
			})
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			state.CurrentAttempt++
			continue
		}

		if err := state.Absorb(decision.Level, outputs); err != nil {
			return nil, err
		}
		lastVerdict = verdict
		if continuity != "" {
			lastContinuity = continuity
		}

		if verdict.Passed {
			c.emit(map[string]any{
				"event":    "chapter_passed",
				"chapter":  req.ChapterNumber,
				"attempts": state.CurrentAttempt + 1,
			})
			return &ChapterResult{
				ChapterText:      state.RevisionText,
				ScenePlanJSON:    state.ScenePlanJSON,
				DraftText:        state.DraftText,
				UpdatedBibleJSON: lastContinuity,
				Verdict:          verdict,
				Attempts:         state.CurrentAttempt + 1,
				Success:          true,
			}, nil
		}

		next := Classify(verdict, state.CurrentAttempt, c.maxAttempts())

		// Escalation guard: only when the classifier wants the same
		// granularity that just ran again.
		if next == decision.Level {
			switch next {
			case LevelEditOnly:
				state.EditRetryStreak++
				if state.EditRetryStreak >= streakEscalationThreshold {
					next = LevelWriteOnly
					state.EditRetryStreak = 0
					c.emit(map[string]any{
						"event":   "streak_escalation",
						"chapter": req.ChapterNumber,
						"from":    string(LevelEditOnly),
						"to":      string(next),
					})
				}
			case LevelWriteOnly:
				state.WriteRetryStreak++
				if state.WriteRetryStreak >= streakEscalationThreshold {
					next = LevelFullRetry
					state.WriteRetryStreak = 0
					c.emit(map[string]any{
						"event":   "streak_escalation",
						"chapter": req.ChapterNumber,
						"from":    string(LevelWriteOnly),
						"to":      string(next),
					})
				}
			}
		} else {
			state.EditRetryStreak = 0
			state.WriteRetryStreak = 0
		}

		state.LastRetryLevel = next
		guidance = verdict.RevisionBlock()

		c.emit(map[string]any{
			"event":       "retry_level_decided",
			"chapter":     req.ChapterNumber,
			"attempt":     state.CurrentAttempt,
			"level_run":   string(decision.Level),
			"next_level":  string(next),
			"issue_count": len(verdict.Issues),
		})

		state.CurrentAttempt++
		if state.CurrentAttempt > c.maxAttempts()-1 {
			c.emit(map[string]any{
				"event":    "chapter_exhausted",
				"chapter":  req.ChapterNumber,
				"attempts": state.CurrentAttempt,
			})
			return &ChapterResult{
				ChapterText:      state.RevisionText,
				ScenePlanJSON:    state.ScenePlanJSON,
				DraftText:        state.DraftText,
				UpdatedBibleJSON: lastContinuity,
				Verdict:          lastVerdict,
				Attempts:         state.CurrentAttempt,
				Success:          false,
			}, nil
		}
	}
}

// runStages executes the decision's stage list in order, chaining each
// stage's output into the next stage's inputs. Preserved inputs stand in
// for the outputs of stages this level skips.
func (c *Controller) runStages(ctx context.Context, req ChapterRequest, decision RetryDecision, guidance string) ([]StageOutput, *judge.Verdict, string, error) {
	scenePlan := decision.PreservedInputs[InputScenePlan]
	draftText := decision.PreservedInputs[InputDraftText]
	revisionText := ""
	continuity := ""
	var verdict *judge.Verdict

	outputs := make([]StageOutput, 0, len(decision.Stages))
	for _, stage := range decision.Stages {
		inputs := map[string]string{
			InputChapterNumber:        fmt.Sprintf("%d", req.ChapterNumber),
			InputChapterOutline:       req.OutlineJSON,
			InputStorySpec:            req.SpecJSON,
			InputStoryBible:           req.BibleJSON,
			InputRevisionInstructions: guidance,
		}
		switch stage {
		case StageDraft:
			inputs[InputScenePlan] = scenePlan
		case StageEdit:
			inputs[InputScenePlan] = scenePlan
			inputs[InputDraftText] = draftText
		case StageJudge:
			inputs[InputScenePlan] = scenePlan
			inputs[InputRevisionText] = revisionText
		case StageContinuity:
			inputs[InputRevisionText] = revisionText
		}

		c.emit(map[string]any{
			"event":   "stage_attempt_start",
			"chapter": req.ChapterNumber,
			"stage":   string(stage),
		})
		out, err := c.Exec.Execute(ctx, stage, inputs)
		if err != nil {
			c.emit(map[string]any{
				"event":   "stage_attempt_end",
				"chapter": req.ChapterNumber,
				"stage":   string(stage),
				"error":   err.Error(),
			})
			return nil, nil, "", err
		}
		c.emit(map[string]any{
			"event":   "stage_attempt_end",
			"chapter": req.ChapterNumber,
			"stage":   string(stage),
			"kind":    string(out.Kind),
		})

		switch stage {
		case StagePlan:
			scenePlan = out.Raw()
		case StageDraft:
			draftText = out.Raw()
		case StageEdit:
			revisionText = out.Raw()
		case StageJudge:
			v, decodeErr := judge.DecodeVerdictJSON([]byte(out.Raw()))
			if decodeErr != nil {
				return nil, nil, "", NewMalformedOutputError(StageJudge, decodeErr.Error())
			}
			verdict = v
		case StageContinuity:
			continuity = out.Raw()
		}
		outputs = append(outputs, out)
	}

	if verdict == nil {
		return nil, nil, "", NewMalformedOutputError(StageJudge, "pipeline produced no verdict")
	}
	return outputs, verdict, continuity, nil
}
