package storage

import (
	"testing"

	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/session"
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(config.Default(), nil)
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	return s
}

func TestInMemoryRegistry_PutGet(t *testing.T) {
	r := NewInMemoryRegistry()
	s := newSession(t)

	if err := r.Put(s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := r.Get(s.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Fatalf("Get() returned a different session than was stored")
	}
}

func TestInMemoryRegistry_PutDuplicateRejected(t *testing.T) {
	r := NewInMemoryRegistry()
	s := newSession(t)

	if err := r.Put(s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := r.Put(s); err == nil {
		t.Fatalf("Put() error = nil, want error re-registering the same session id")
	}
}

func TestInMemoryRegistry_GetMissing(t *testing.T) {
	r := NewInMemoryRegistry()
	if _, err := r.Get("sess_does_not_exist"); err == nil {
		t.Fatalf("Get() error = nil, want not-found error")
	}
}

func TestInMemoryRegistry_DeleteAndExists(t *testing.T) {
	r := NewInMemoryRegistry()
	s := newSession(t)
	if err := r.Put(s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if !r.Exists(s.ID()) {
		t.Fatalf("Exists() = false, want true right after Put")
	}
	if err := r.Delete(s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if r.Exists(s.ID()) {
		t.Fatalf("Exists() = true, want false after Delete")
	}
	if err := r.Delete(s.ID()); err == nil {
		t.Fatalf("Delete() error = nil, want not-found error for a second delete")
	}
}

func TestInMemoryRegistry_ListAndTouch(t *testing.T) {
	r := NewInMemoryRegistry()
	a := newSession(t)
	b := newSession(t)
	if err := r.Put(a); err != nil {
		t.Fatalf("Put(a) error = %v", err)
	}
	if err := r.Put(b); err != nil {
		t.Fatalf("Put(b) error = %v", err)
	}

	summaries := r.List()
	if len(summaries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(summaries))
	}

	if err := r.Touch(a.ID()); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if err := r.Touch("sess_does_not_exist"); err == nil {
		t.Fatalf("Touch() error = nil, want not-found error")
	}
}
