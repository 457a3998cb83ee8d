// Package pipeline drives parallel chapter extraction and commits results in
// strict index order.
//
// The coordinator is the only component that ever touches storage or the
// commit buffer: workers are shared-nothing units that hand back one result
// each over a channel, and a single consumer loop serializes commits. Races
// are eliminated by ownership rather than locking.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/creedhall/doctrine/internal/assemble"
	"github.com/creedhall/doctrine/internal/oracle"
	"github.com/creedhall/doctrine/internal/recovery"
	"github.com/creedhall/doctrine/internal/types"
)

// DefaultWorkers bounds the extraction pool when no worker count is configured.
const DefaultWorkers = 4

// Storage is the commit sink the coordinator serializes into. *store.Store
// satisfies it; tests substitute recording implementations.
type Storage interface {
	Commit(bookID string, ch types.Chapter, d *types.Doctrine) error
}

// Config configures a coordinator.
type Config struct {
	Store       Storage
	Gate        *recovery.Gate
	Oracle      oracle.Oracle
	Workers     int // Extraction pool size (default 4)
	WindowBytes int // Chapter size threshold for window sharding
	Logger      *slog.Logger
}

// Coordinator runs the doctrine ingestion pipeline for one book.
type Coordinator struct {
	store  Storage
	gate   *recovery.Gate
	oracle oracle.Oracle
	logger *slog.Logger

	mu          sync.Mutex // guards the tunables below
	workers     int
	windowBytes int
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:       cfg.Store,
		gate:        cfg.Gate,
		oracle:      cfg.Oracle,
		workers:     workers,
		windowBytes: cfg.WindowBytes,
		logger:      logger.With("component", "coordinator"),
	}
}

// Tune adjusts the tunable knobs, typically from a config hot reload. The
// worker count takes effect at the next Run; the window size applies to
// chapters not yet dispatched, including ones later in the current run.
// Non-positive values leave the corresponding knob unchanged.
func (c *Coordinator) Tune(workers, windowBytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if workers > 0 {
		c.workers = workers
	}
	if windowBytes > 0 {
		c.windowBytes = windowBytes
	}
}

func (c *Coordinator) tunables() (workers, windowBytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workers, c.windowBytes
}

// RunResult reports what a run did. There is no partial "ok" status: a run
// containing a failure returns that failure from Run alongside this report.
type RunResult struct {
	BookID      string               `json:"book_id"`
	Committed   []int                `json:"committed"`
	Skipped     []int                `json:"skipped"`
	FailedIndex int                  `json:"failed_index,omitempty"` // 0 when the run succeeded
	Completed   int                  `json:"completed"`
	Total       int                  `json:"total"`
	States      map[int]ChapterState `json:"states,omitempty"`
}

// unitResult is one worker's output for one chapter.
type unitResult struct {
	index    int
	chapter  types.Chapter
	doctrine *types.Doctrine
	stage    ChapterState // stage reached when err occurred
	err      error
}

// Run executes the pipeline over chapters, which must be the splitter's
// output for bookID. Chapters are partitioned through the recovery gate,
// the remainder is extracted in parallel, and results are committed to
// storage in strictly ascending index order regardless of the order workers
// finish.
//
// Failure policy is fail-fast: the first failing unit aborts the run.
// Buffered results stuck behind the failure are discarded and must be
// recomputed on resume; that wasted work is an accepted cost of keeping the
// commit order strict. Already-committed chapters are never rolled back.
func (c *Coordinator) Run(ctx context.Context, bookID string, chapters []types.Chapter) (*RunResult, error) {
	result := &RunResult{
		BookID:    bookID,
		Committed: []int{},
		Skipped:   []int{},
		Total:     len(chapters),
		States:    make(map[int]ChapterState, len(chapters)),
	}
	progress := NewProgress(len(chapters))

	// Partition via the recovery gate. An integrity violation aborts before
	// any workers are spawned.
	var toProcess []types.Chapter
	for _, ch := range chapters {
		result.States[ch.Index] = StateDetected
		dec, err := c.gate.Decide(ch)
		if err != nil {
			result.FailedIndex = ch.Index
			result.States[ch.Index] = StateFailed
			result.Completed = progress.Completed()
			return result, err
		}
		if dec == recovery.Skip {
			progress.Bump()
			result.Skipped = append(result.Skipped, ch.Index)
			result.States[ch.Index] = StateSkipped
			continue
		}
		result.States[ch.Index] = StateQueued
		toProcess = append(toProcess, ch)
	}

	c.logger.Info("partitioned chapters",
		"book_id", bookID,
		"total", len(chapters),
		"skipped", len(result.Skipped),
		"to_process", len(toProcess),
	)

	if len(toProcess) == 0 {
		result.Completed = progress.Completed()
		return result, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Queue and results are sized to the full batch so workers never block
	// on a send, even if the coordinator stops receiving after a failure.
	jobsCh := make(chan types.Chapter, len(toProcess))
	resultsCh := make(chan unitResult, len(toProcess))
	for _, ch := range toProcess {
		jobsCh <- ch
	}
	close(jobsCh)

	workers, _ := c.tunables()
	if workers > len(toProcess) {
		workers = len(toProcess)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ch := range jobsCh {
				if runCtx.Err() != nil {
					return
				}
				res := c.processChapter(runCtx, ch)
				resultsCh <- res
				if res.err != nil {
					// The run is aborting; don't start another unit.
					return
				}
			}
		}()
	}

	// Sorted to-process indices drive the commit cursor: the next index
	// eligible for commit is always pending[cursor].
	pending := make([]int, len(toProcess))
	for i, ch := range toProcess {
		pending[i] = ch.Index
	}
	sort.Ints(pending)

	buffer := make(map[int]unitResult, len(toProcess))
	cursor := 0

	var runErr error
	for received := 0; received < len(toProcess); received++ {
		res := <-resultsCh

		if res.err != nil {
			c.logger.Error("chapter unit failed",
				"book_id", bookID,
				"chapter", res.index,
				"stage", res.stage,
				"error", res.err,
			)
			result.FailedIndex = res.index
			result.States[res.index] = StateFailed
			// Buffered-but-uncommitted results beyond the failure are
			// discarded, not failed: those chapters completed cleanly.
			for idx := range buffer {
				result.States[idx] = StateDiscarded
			}
			runErr = res.err
			break
		}

		buffer[res.index] = res
		result.States[res.index] = StateCommitPending

		// Drain every contiguous run available from the commit cursor.
		for cursor < len(pending) {
			next, ok := buffer[pending[cursor]]
			if !ok {
				break
			}
			delete(buffer, next.index)

			if err := c.store.Commit(bookID, next.chapter, next.doctrine); err != nil {
				result.FailedIndex = next.index
				result.States[next.index] = StateFailed
				runErr = fmt.Errorf("commit failed for chapter %d: %w", next.index, err)
				break
			}
			progress.Bump()
			result.Committed = append(result.Committed, next.index)
			result.States[next.index] = StateCommitted
			cursor++
		}
		if runErr != nil {
			break
		}
	}

	cancel()
	wg.Wait()

	result.Completed = progress.Completed()
	if runErr != nil {
		return result, runErr
	}

	c.logger.Info("run complete",
		"book_id", bookID,
		"committed", len(result.Committed),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// processChapter is one shared-nothing unit of work: windows → oracle →
// assembler → validator for a single chapter. No state is shared with other
// units.
func (c *Coordinator) processChapter(ctx context.Context, ch types.Chapter) unitResult {
	res := unitResult{index: ch.Index, chapter: ch}

	res.stage = StateExtracting
	_, windowBytes := c.tunables()
	windows := oracle.Windows(ch.Text, windowBytes)
	parts := make([]*types.PartialExtraction, 0, len(windows))
	for _, window := range windows {
		pe, err := c.oracle.Extract(ctx, window)
		if err != nil {
			res.err = err
			return res
		}
		parts = append(parts, pe)
	}

	res.stage = StateAssembling
	doctrine := assemble.Assemble(ch, parts)

	res.stage = StateValidating
	if err := assemble.Validate(doctrine); err != nil {
		res.err = err
		return res
	}

	res.stage = StateCommitPending
	res.doctrine = doctrine
	return res
}
