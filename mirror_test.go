package portalsync

import (
	"testing"
	"time"

	"github.com/ladupla/portalsync/internal/remote"
)

func newTestPump(t *testing.T, rc remote.Client) (*mirrorPump, *Store) {
	t.Helper()
	store := newTestStore(t)
	pump := newMirrorPump(rc, store, testLogger(), 5*time.Second)
	return pump, store
}

func TestMirrorPumpMarksSynced(t *testing.T) {
	rc := newFakeRemote()
	pump, store := newTestPump(t, rc)

	rec := rawRecord("c1", `{"id":"c1","name":"Aurora"}`)
	if err := store.Upsert(KindClients, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	pump.enqueueUpsert(KindClients, []remote.Record{{ID: rec.ID, Data: rec.Data}})

	// close drains the queue, so the mirror write has landed afterwards.
	pump.close(5 * time.Second)

	if rc.upserts[string(KindClients)] != 1 {
		t.Fatalf("remote upsert not issued: %d", rc.upserts[string(KindClients)])
	}
	pending, err := store.Pending(KindClients)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("record still pending after mirror ack")
	}
}

func TestMirrorPumpFailureLeavesPending(t *testing.T) {
	rc := newFakeRemote()
	rc.failAll = true
	pump, store := newTestPump(t, rc)

	rec := rawRecord("c1", `{"id":"c1"}`)
	if err := store.Upsert(KindClients, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	pump.enqueueUpsert(KindClients, []remote.Record{{ID: rec.ID, Data: rec.Data}})
	pump.close(5 * time.Second)

	pending, err := store.Pending(KindClients)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed mirror write should leave record pending, got %d", len(pending))
	}

	// The local record is untouched by the failure.
	got, err := store.Get(KindClients, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Data) != `{"id":"c1"}` {
		t.Errorf("local record modified after mirror failure: %s", got.Data)
	}
}

func TestMirrorPumpDelete(t *testing.T) {
	rc := newFakeRemote()
	rc.seed(string(KindUsers), `{"id":"u1"}`)
	pump, _ := newTestPump(t, rc)

	pump.enqueueDelete(KindUsers, "u1")
	pump.close(5 * time.Second)

	if len(rc.deletes) != 1 || rc.deletes[0] != "users/u1" {
		t.Fatalf("delete not mirrored: %v", rc.deletes)
	}
}

func TestMirrorPumpNilIsSafe(t *testing.T) {
	var pump *mirrorPump
	pump.enqueueUpsert(KindUsers, nil)
	pump.enqueueDelete(KindUsers, "u1")
	pump.close(time.Second)
}
