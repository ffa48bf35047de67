package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	s2.Close()
}

func TestPut_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := &Document{
		Key:      "employees/1",
		Payload:  json.RawMessage(`{"name":"John","payRate":10}`),
		Metadata: map[string]string{"Content-Type": "application/json"},
	}
	etag, err := s.Put(ctx, doc)
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if etag == "" {
		t.Fatal("Put() returned empty etag")
	}

	got, err := s.Get(ctx, "employees/1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for stored document")
	}
	if got.ETag != etag {
		t.Errorf("etag = %q, want %q", got.ETag, etag)
	}
	if got.Metadata["Content-Type"] != "application/json" {
		t.Errorf("metadata = %v, want Content-Type preserved", got.Metadata)
	}

	var payload struct {
		Name    string  `json:"name"`
		PayRate float64 `json:"payRate"`
	}
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Name != "John" || payload.PayRate != 10 {
		t.Errorf("payload = %+v, want John/10", payload)
	}
}

func TestGet_AbsentIsNilNil(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.Get(context.Background(), "employees/404")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if doc != nil {
		t.Errorf("Get() = %+v, want nil for absent key", doc)
	}
}

func TestNewETag_Unique(t *testing.T) {
	a, b := NewETag(), NewETag()
	if a == b {
		t.Errorf("NewETag() produced duplicate %q", a)
	}
	if len(a) != 36 {
		t.Errorf("NewETag() = %q, want 36-char UUID", a)
	}
}

func TestParseRevisionKey(t *testing.T) {
	docID, n, ok := ParseRevisionKey("employees/1/temporalrevisions/3")
	if !ok || docID != "employees/1" || n != 3 {
		t.Errorf("ParseRevisionKey = (%q, %d, %v), want (employees/1, 3, true)", docID, n, ok)
	}

	for _, key := range []string{"employees/1", "employees/1/temporalrevisions/", "employees/1/temporalrevisions/zero"} {
		if _, _, ok := ParseRevisionKey(key); ok {
			t.Errorf("ParseRevisionKey(%q) ok, want not a revision key", key)
		}
	}

	if got := RevisionKey("employees/1", 3); got != "employees/1/temporalrevisions/3" {
		t.Errorf("RevisionKey = %q", got)
	}
}
