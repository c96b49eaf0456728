package portalsync

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ladupla/portalsync/internal/remote"
	"github.com/oklog/ulid/v2"
)

// repoDeps is the shared plumbing behind every typed repository: the local
// cache (synchronous, authoritative for reads) and the mirror pump
// (asynchronous, best-effort).
type repoDeps struct {
	store *Store
	pump  *mirrorPump
	log   *slog.Logger
}

// newID mints a record identity. Identities are always generated client-side
// before the first save; the remote never assigns them.
func newID() string {
	return ulid.Make().String()
}

func encodeRecord(id string, v any) (RawRecord, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return RawRecord{}, err
	}
	return RawRecord{ID: id, Data: data}, nil
}

func decodeRecord[T any](rec *RawRecord) (T, error) {
	var v T
	err := json.Unmarshal(rec.Data, &v)
	return v, err
}

func decodeCollection[T any](records []RawRecord) ([]T, error) {
	out := make([]T, 0, len(records))
	for i := range records {
		v, err := decodeRecord[T](&records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// saveRecord commits the record to the local cache, then schedules the
// remote leg. The local write is the operation's durability point; the
// mirror write never blocks the caller and never rolls the local write back.
func (d repoDeps) saveRecord(kind Kind, rec RawRecord) error {
	if err := d.store.Upsert(kind, rec); err != nil {
		return err
	}
	d.pump.enqueueUpsert(kind, []remote.Record{{ID: rec.ID, Data: rec.Data}})
	return nil
}

// saveRecordGuarded is saveRecord with an optimistic concurrency check
// against the record's last local write time.
func (d repoDeps) saveRecordGuarded(kind Kind, rec RawRecord, base time.Time) error {
	if err := d.store.UpsertIfUnchanged(kind, rec, base); err != nil {
		return err
	}
	d.pump.enqueueUpsert(kind, []remote.Record{{ID: rec.ID, Data: rec.Data}})
	return nil
}

// saveRecordBatch commits a batch locally, then mirrors it as one remote
// upsert call.
func (d repoDeps) saveRecordBatch(kind Kind, records []RawRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := d.store.UpsertAll(kind, records); err != nil {
		return err
	}
	batch := make([]remote.Record, len(records))
	for i, rec := range records {
		batch[i] = remote.Record{ID: rec.ID, Data: rec.Data}
	}
	d.pump.enqueueUpsert(kind, batch)
	return nil
}

// deleteRecord removes the record locally, then schedules the remote delete.
func (d repoDeps) deleteRecord(kind Kind, id string) error {
	if err := d.store.Remove(kind, id); err != nil {
		return err
	}
	d.pump.enqueueDelete(kind, id)
	return nil
}
