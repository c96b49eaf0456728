package portalsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ladupla/portalsync/internal/remote"
)

// KindResult is the outcome of reconciling one collection.
type KindResult struct {
	Kind    Kind
	Records int
	Err     error
}

// SyncReport summarizes one reconciliation pass across all collections.
type SyncReport struct {
	Results  []KindResult
	Duration time.Duration
	SyncedAt time.Time
}

// Failed returns the kinds whose pull failed this pass.
func (r *SyncReport) Failed() []Kind {
	failed := []Kind{}
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res.Kind)
		}
	}
	return failed
}

// PartialFailure reports whether some, but not all, collections failed.
func (r *SyncReport) PartialFailure() bool {
	n := len(r.Failed())
	return n > 0 && n < len(r.Results)
}

// AllFailed reports whether every collection pull failed.
func (r *SyncReport) AllFailed() bool {
	return len(r.Failed()) == len(r.Results)
}

// TotalRecords returns the number of records pulled across all successful
// collections.
func (r *SyncReport) TotalRecords() int {
	total := 0
	for _, res := range r.Results {
		if res.Err == nil {
			total += res.Records
		}
	}
	return total
}

// Reconciler pulls the remote mirror into the local cache. Collections are
// pulled in parallel and fail independently: a kind whose pull fails keeps
// its cached contents, and the rest of the pass proceeds.
type Reconciler struct {
	remote  remote.Client
	store   *Store
	log     *slog.Logger
	timeout time.Duration
}

func newReconciler(rc remote.Client, store *Store, log *slog.Logger, timeout time.Duration) *Reconciler {
	return &Reconciler{remote: rc, store: store, log: log, timeout: timeout}
}

// SyncFromRemote runs one full reconciliation pass: push locally pending
// writes first so the pull cannot clobber them, then pull every collection
// and replace the cache with the remote state. Pulled records land already
// marked mirrored.
func (r *Reconciler) SyncFromRemote(ctx context.Context) (*SyncReport, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Best effort: a failed push leaves records pending for the next pass.
	if err := r.PushPending(ctx); err != nil {
		r.log.Warn("push of pending writes failed before pull", "error", err)
	}

	kinds := Kinds()
	results := make([]KindResult, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind Kind) {
			defer wg.Done()
			results[i] = r.pullKind(ctx, kind)
		}(i, kind)
	}
	wg.Wait()

	report := &SyncReport{
		Results:  results,
		Duration: time.Since(start),
		SyncedAt: time.Now().UTC(),
	}

	for _, res := range results {
		if res.Err != nil {
			r.log.Warn("collection pull failed; cache kept",
				"kind", res.Kind, "error", res.Err)
		}
	}

	if !report.AllFailed() {
		if err := r.store.SetMetadata(metadataKeyLastSync, report.SyncedAt.Format(time.RFC3339)); err != nil {
			r.log.Warn("recording sync time failed", "error", err)
		}
	}

	r.log.Info("reconciliation pass complete",
		"records", report.TotalRecords(),
		"failed_kinds", len(report.Failed()),
		"duration", report.Duration)
	return report, nil
}

func (r *Reconciler) pullKind(ctx context.Context, kind Kind) KindResult {
	fetched, err := r.remote.FetchAll(ctx, string(kind))
	if err != nil {
		return KindResult{Kind: kind, Err: err}
	}

	records := make([]RawRecord, len(fetched))
	for i, rec := range fetched {
		records[i] = RawRecord{
			ID:           rec.ID,
			Data:         rec.Data,
			MirrorStatus: MirrorSynced,
		}
	}

	if err := r.store.ReplaceCollection(kind, records); err != nil {
		return KindResult{Kind: kind, Err: err}
	}
	return KindResult{Kind: kind, Records: len(records)}
}

// PushPending re-issues the remote upsert for every record still awaiting
// its mirror write, one batch per kind. Stops at the first remote failure so
// an unreachable mirror costs one call, not seven.
func (r *Reconciler) PushPending(ctx context.Context) error {
	for _, kind := range Kinds() {
		pending, err := r.store.Pending(kind)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			continue
		}

		batch := make([]remote.Record, len(pending))
		ids := make([]string, len(pending))
		for i, rec := range pending {
			batch[i] = remote.Record{ID: rec.ID, Data: rec.Data}
			ids[i] = rec.ID
		}

		if err := r.remote.Upsert(ctx, string(kind), batch); err != nil {
			return err
		}
		if err := r.store.MarkMirrored(kind, ids); err != nil {
			return err
		}
		r.log.Debug("pushed pending records", "kind", kind, "records", len(pending))
	}
	return nil
}
