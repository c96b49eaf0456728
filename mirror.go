package portalsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ladupla/portalsync/internal/remote"
)

const mirrorQueueSize = 256

type mirrorOp string

const (
	mirrorOpUpsert mirrorOp = "upsert"
	mirrorOpDelete mirrorOp = "delete"
)

type mirrorJob struct {
	kind    Kind
	op      mirrorOp
	records []remote.Record
	id      string
}

// mirrorPump issues best-effort remote writes on a single worker goroutine,
// preserving the order in which save/delete were called. Failures never roll
// back the local write; the record simply stays mirror-pending until the
// next push or edit.
type mirrorPump struct {
	remote  remote.Client
	store   *Store
	log     *slog.Logger
	timeout time.Duration

	jobs      chan mirrorJob
	done      chan struct{}
	closeOnce sync.Once
}

func newMirrorPump(rc remote.Client, store *Store, log *slog.Logger, timeout time.Duration) *mirrorPump {
	m := &mirrorPump{
		remote:  rc,
		store:   store,
		log:     log,
		timeout: timeout,
		jobs:    make(chan mirrorJob, mirrorQueueSize),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *mirrorPump) run() {
	defer close(m.done)
	for job := range m.jobs {
		m.dispatch(job)
	}
}

func (m *mirrorPump) dispatch(job mirrorJob) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	switch job.op {
	case mirrorOpUpsert:
		if err := m.remote.Upsert(ctx, string(job.kind), job.records); err != nil {
			m.log.Warn("mirror upsert failed; records remain pending",
				"kind", job.kind, "records", len(job.records), "error", err)
			return
		}
		ids := make([]string, len(job.records))
		for i, rec := range job.records {
			ids[i] = rec.ID
		}
		if err := m.store.MarkMirrored(job.kind, ids); err != nil {
			m.log.Warn("mark mirrored failed", "kind", job.kind, "error", err)
		}

	case mirrorOpDelete:
		if err := m.remote.Delete(ctx, string(job.kind), job.id); err != nil {
			m.log.Warn("mirror delete failed", "kind", job.kind, "id", job.id, "error", err)
		}
	}
}

// enqueueUpsert schedules a best-effort remote upsert. Never blocks the
// caller: if the queue is full the records stay pending and are picked up by
// the next push.
func (m *mirrorPump) enqueueUpsert(kind Kind, records []remote.Record) {
	if m == nil {
		return
	}
	select {
	case m.jobs <- mirrorJob{kind: kind, op: mirrorOpUpsert, records: records}:
	default:
		m.log.Warn("mirror queue full; records left pending", "kind", kind, "records", len(records))
	}
}

// enqueueDelete schedules a best-effort remote delete.
func (m *mirrorPump) enqueueDelete(kind Kind, id string) {
	if m == nil {
		return
	}
	select {
	case m.jobs <- mirrorJob{kind: kind, op: mirrorOpDelete, id: id}:
	default:
		m.log.Warn("mirror queue full; delete not mirrored", "kind", kind, "id", id)
	}
}

// close drains the queue and stops the worker, waiting up to the given
// timeout for in-flight writes to finish.
func (m *mirrorPump) close(timeout time.Duration) {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() { close(m.jobs) })
	select {
	case <-m.done:
	case <-time.After(timeout):
		m.log.Warn("mirror pump close timed out; pending writes will retry on next start")
	}
}
