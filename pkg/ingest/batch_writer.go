package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

// Committer persists one batch of entries atomically.
type Committer interface {
	BatchInsert(ctx context.Context, entries []etymology.Entry) (int, error)
}

// BatchWriter commits submitted batches on a single background goroutine so
// fetching of the next listing page overlaps with the previous commit.
type BatchWriter struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	commitCh chan []etymology.Entry
	store    Committer

	// OnCommit is called after each successful commit with the row count.
	OnCommit func(n int)
	// OnError is called for every failed or dropped batch.
	OnError func(error)

	// lastErr stores the first asynchronous error seen by the writer. Protected by errMu.
	errMu   sync.Mutex
	lastErr error
}

// NewBatchWriter creates a new BatchWriter committing to store.
// pending is the number of batches that may queue behind the one being committed.
func NewBatchWriter(store Committer, pending int) *BatchWriter {
	if pending <= 0 {
		pending = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []etymology.Entry, pending),
		store:    store,
	}

	bw.wg.Add(1)
	go bw.committer()
	return bw
}

// Submit enqueues one batch. It blocks while the queue is full. Empty batches
// are ignored and never reach the store.
func (bw *BatchWriter) Submit(entries []etymology.Entry) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	if len(entries) == 0 {
		return nil
	}

	select {
	case bw.commitCh <- entries:
	case <-bw.ctx.Done():
		err := fmt.Errorf("batch writer: dropping batch of %d entries due to cancellation", len(entries))
		bw.recordErr(err)
	}
	return nil
}

// Err returns the first asynchronous commit error, if any.
func (bw *BatchWriter) Err() error {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

func (bw *BatchWriter) recordErr(err error) {
	bw.errMu.Lock()
	if bw.lastErr == nil {
		bw.lastErr = err
	}
	bw.errMu.Unlock()
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		// Once a commit has failed the run is aborting; later batches are dropped.
		if bw.Err() != nil {
			continue
		}
		// Background context: a batch that reached the committer is finished
		// even when the run is being torn down.
		n, err := bw.store.BatchInsert(context.Background(), batch)
		if err != nil {
			bw.recordErr(fmt.Errorf("batch insert (%d entries): %w", len(batch), err))
			continue
		}
		if bw.OnCommit != nil {
			bw.OnCommit(n)
		}
	}
}

// Close stops accepting submissions, waits for queued batches to be committed
// and returns the first error seen.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	close(bw.commitCh)
	bw.mu.Unlock()

	bw.wg.Wait()
	bw.cancel()
	return bw.Err()
}

// Abort drops batches that have not yet reached the committer's queue.
func (bw *BatchWriter) Abort() {
	bw.cancel()
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
