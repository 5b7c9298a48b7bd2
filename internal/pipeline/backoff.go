package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// BackoffConfig configures delays between attempts after a stage execution
// failure. Jitter is deterministic (seeded) so retry timing is reproducible
// per run.
type BackoffConfig struct {
	InitialDelayMS int
	BackoffFactor  float64
	MaxDelayMS     int
	Jitter         bool

	// RateLimitDelayMS is the flat fallback wait for rate-limit failures
	// when the provider supplies no Retry-After hint.
	RateLimitDelayMS int
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelayMS:   500,
		BackoffFactor:    2.0,
		MaxDelayMS:       30_000,
		Jitter:           false,
		RateLimitDelayMS: 20_000,
	}
}

func (c BackoffConfig) sane() BackoffConfig {
	if c.InitialDelayMS < 0 {
		c.InitialDelayMS = 0
	}
	if c.MaxDelayMS < 0 {
		c.MaxDelayMS = 0
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 1.0
	}
	if c.RateLimitDelayMS < 0 {
		c.RateLimitDelayMS = 0
	}
	return c
}

// DelayForAttempt computes the exponential backoff delay for a retry.
// attempt is 1-indexed: the first retry is attempt=1.
func DelayForAttempt(attempt int, cfg BackoffConfig, jitterSeed string) time.Duration {
	cfg = cfg.sane()
	if attempt < 1 {
		attempt = 1
	}
	if cfg.InitialDelayMS <= 0 {
		return 0
	}

	baseMS := float64(cfg.InitialDelayMS) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.MaxDelayMS > 0 {
		baseMS = math.Min(baseMS, float64(cfg.MaxDelayMS))
	}

	// Jitter applies after capping.
	if cfg.Jitter {
		baseMS *= 0.5 + jitterUnit(jitterSeed) // [0.5, 1.5]
	}

	if baseMS < 0 {
		baseMS = 0
	}
	return time.Duration(baseMS * float64(time.Millisecond))
}

// DelayForStageError picks the delay after a failed stage execution:
// rate-limit failures wait for the provider's Retry-After hint (capped) or
// the flat rate-limit delay; everything else uses exponential backoff.
func DelayForStageError(err error, attempt int, cfg BackoffConfig, jitterSeed string) time.Duration {
	cfg = cfg.sane()
	if IsRateLimit(err) {
		if hint := RetryAfterHint(err); hint != nil && *hint > 0 {
			d := *hint
			if cfg.MaxDelayMS > 0 {
				if capd := time.Duration(cfg.MaxDelayMS) * time.Millisecond; d > capd {
					d = capd
				}
			}
			return d
		}
		return time.Duration(cfg.RateLimitDelayMS) * time.Millisecond
	}
	return DelayForAttempt(attempt, cfg, jitterSeed)
}

func jitterUnit(seed string) float64 {
	sum := sha256.Sum256([]byte(seed))
	u := binary.BigEndian.Uint64(sum[:8])
	return float64(u) / float64(^uint64(0))
}

func backoffSeed(runID string, chapter int, attempt int) string {
	return fmt.Sprintf("%s:ch%d:%d", runID, chapter, attempt)
}
