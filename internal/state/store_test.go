package state

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/archiver/internal/archive"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	status := json.RawMessage(`{"status":"ok","pid":123}`)
	chats := []archive.ChatSummary{{GUID: "a", Name: "Alice"}, {GUID: "b"}}

	before := time.Now()
	s.Update(status, chats, nil)

	snap := s.Snapshot()
	if !snap.HasStatus || string(snap.Status) != `{"status":"ok","pid":123}` {
		t.Fatalf("snapshot status = %s, want passthrough with HasStatus=true", snap.Status)
	}
	if len(snap.Chats) != 2 || snap.Chats[0].GUID != "a" {
		t.Fatalf("snapshot chats = %#v, want 2 items", snap.Chats)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Chats[0].GUID = "mutated"
	snap.Status[2] = 'X'
	status[2] = 'Y'
	snap2 := s.Snapshot()
	if snap2.Chats[0].GUID != "a" {
		t.Fatalf("Snapshot should clone chats; got %q want a", snap2.Chats[0].GUID)
	}
	if string(snap2.Status) != `{"status":"ok","pid":123}` {
		t.Fatalf("Snapshot should clone status; got %s", snap2.Status)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(json.RawMessage(`{"pid":1}`), []archive.ChatSummary{{GUID: "a"}}, nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(nil, nil, origErr)

	snap := s.Snapshot()
	if snap.HasStatus != prev.HasStatus || string(snap.Status) != string(prev.Status) {
		t.Fatalf("status changed on error: got %s want %s", snap.Status, prev.Status)
	}
	if len(snap.Chats) != 1 || snap.Chats[0].GUID != "a" {
		t.Fatalf("chats changed on error: got %#v want %#v", snap.Chats, prev.Chats)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_SuccessWithoutStatusClearsIt(t *testing.T) {
	var s Store
	s.Update(json.RawMessage(`{}`), nil, nil)
	s.Update(nil, nil, nil)
	if snap := s.Snapshot(); snap.HasStatus || snap.Status != nil {
		t.Fatalf("snapshot = %#v, want no status", snap)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	// Initially zero failures
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	// First failure
	s.Update(nil, nil, errors.New("fail 1"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}

	// Second failure - now offline
	s.Update(nil, nil, errors.New("fail 2"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 2 {
		t.Fatalf("ConsecutiveFailures = %d, want 2", snap.ConsecutiveFailures)
	}
	if !snap.IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	// Success resets counter
	s.Update(json.RawMessage(`{"status":"ok"}`), nil, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0 after success", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false after success")
	}
}
