package occ

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// UpdateResult reports the outcome of one conditional update.
type UpdateResult struct {
	Success        bool    `json:"success"`
	Conflict       bool    `json:"conflict"`
	CurrentVersion int64   `json:"currentVersion"`
	Record         *Record `json:"data,omitempty"`
}

// RetryOptions tunes RetryingUpdate. Backoff is exponential with a cap
// and no jitter.
type RetryOptions struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryOptions are applied when a field is unset.
var DefaultRetryOptions = RetryOptions{
	MaxRetries: 3,
	BaseDelay:  100 * time.Millisecond,
	MaxDelay:   time.Second,
}

// Engine drives optimistic-concurrency updates against a Store. The
// engine holds no locks and permits unbounded concurrent contenders;
// capped backoff is the sole livelock mitigation on hot rows.
type Engine struct {
	store  Store
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewEngine constructs an engine over the given store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger, sleep: sleepCtx}
}

// Update attempts a single conditional write. A version mismatch is
// reported as a conflict with the freshly read current state, never as an
// error.
func (e *Engine) Update(ctx context.Context, table, id string, expectedVersion int64, patch map[string]any) (UpdateResult, error) {
	rec, err := e.store.UpdateWithVersion(ctx, table, id, expectedVersion, patch)
	if err == nil {
		return UpdateResult{Success: true, CurrentVersion: rec.Version, Record: rec}, nil
	}
	if !errors.Is(err, ErrVersionMismatch) {
		return UpdateResult{}, err
	}
	return e.conflictState(ctx, table, id)
}

// CheckConflict is a side-effect-free read reporting whether the stored
// version differs from expectedVersion.
func (e *Engine) CheckConflict(ctx context.Context, table, id string, expectedVersion int64) (bool, int64, error) {
	rec, err := e.store.Get(ctx, table, id)
	if err != nil {
		return false, 0, err
	}
	return rec.Version != expectedVersion, rec.Version, nil
}

// RetryingUpdate fetches the current row, derives a patch via computePatch
// and attempts a conditional write, retrying on conflict with capped
// exponential backoff. After exhausting retries it returns the final
// conflict state rather than an error.
func (e *Engine) RetryingUpdate(ctx context.Context, table, id string, computePatch func(current *Record) (map[string]any, error), opts RetryOptions) (UpdateResult, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultRetryOptions.MaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultRetryOptions.BaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultRetryOptions.MaxDelay
	}

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		current, err := e.store.Get(ctx, table, id)
		if err != nil {
			return UpdateResult{}, err
		}
		patch, err := computePatch(current)
		if err != nil {
			return UpdateResult{}, err
		}
		rec, err := e.store.UpdateWithVersion(ctx, table, id, current.Version, patch)
		if err == nil {
			return UpdateResult{Success: true, CurrentVersion: rec.Version, Record: rec}, nil
		}
		if !errors.Is(err, ErrVersionMismatch) {
			return UpdateResult{}, err
		}
		if attempt < opts.MaxRetries-1 {
			delay := opts.BaseDelay << attempt
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
			if err := e.sleep(ctx, delay); err != nil {
				return UpdateResult{}, err
			}
		}
	}

	if e.logger != nil {
		e.logger.Warn("update retries exhausted", slog.String("table", table), slog.String("id", id))
	}
	return e.conflictState(ctx, table, id)
}

// BatchItem is one entry of a batch update.
type BatchItem struct {
	Table   string         `json:"table"`
	ID      string         `json:"id"`
	Version int64          `json:"version"`
	Patch   map[string]any `json:"patch"`
}

// BatchResult carries per-item outcomes plus the indexes that conflicted.
type BatchResult struct {
	Results   []UpdateResult `json:"results"`
	Conflicts []int          `json:"conflicts"`
}

// BatchUpdate applies each item independently and sequentially. The batch
// is not transactional: partial application across items is expected
// behavior, and callers needing all-or-nothing must compensate themselves.
func (e *Engine) BatchUpdate(ctx context.Context, items []BatchItem) (BatchResult, error) {
	result := BatchResult{Results: make([]UpdateResult, 0, len(items))}
	for i, item := range items {
		res, err := e.Update(ctx, item.Table, item.ID, item.Version, item.Patch)
		if err != nil {
			return result, err
		}
		result.Results = append(result.Results, res)
		if res.Conflict {
			result.Conflicts = append(result.Conflicts, i)
		}
	}
	return result, nil
}

func (e *Engine) conflictState(ctx context.Context, table, id string) (UpdateResult, error) {
	current, err := e.store.Get(ctx, table, id)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Conflict: true, CurrentVersion: current.Version, Record: current}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
