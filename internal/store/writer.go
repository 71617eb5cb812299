package store

import (
	"sync"

	"go.uber.org/zap"
)

// Writer serializes session snapshots onto one goroutine through a
// bounded queue. The flow worker enqueues after every transition;
// enqueueing blocks when the queue is full so writes are never lost,
// and Close waits for the backlog so teardown sees everything flushed.
type Writer struct {
	store *Store
	jobs  chan writeJob
	wg    sync.WaitGroup
	log   *zap.Logger
}

type writeJob struct {
	rec       SessionRecord
	responses []SurveyResponse
}

// NewWriter starts the write goroutine with the given queue bound.
func NewWriter(store *Store, bound int, log *zap.Logger) *Writer {
	if bound <= 0 {
		bound = 64
	}
	w := &Writer{
		store: store,
		jobs:  make(chan writeJob, bound),
		log:   log,
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue schedules one snapshot write, blocking if the queue is full.
func (w *Writer) Enqueue(rec SessionRecord, responses []SurveyResponse) {
	w.jobs <- writeJob{rec: rec, responses: responses}
}

// Close drains the queue and stops the writer.
func (w *Writer) Close() {
	close(w.jobs)
	w.wg.Wait()
}

func (w *Writer) run() {
	defer w.wg.Done()
	for job := range w.jobs {
		if err := w.store.SaveSnapshot(job.rec, job.responses); err != nil {
			w.log.Error("session snapshot write failed",
				zap.String("session", job.rec.SessionID),
				zap.Error(err))
		}
	}
}
