package store

import "testing"

func TestCreateReadUpdateDelete(t *testing.T) {
	s := New()

	if !s.Create("a", "1") {
		t.Fatal("create should succeed on absent key")
	}
	if s.Create("a", "2") {
		t.Fatal("create should fail on existing key")
	}

	v, ok := s.Read("a")
	if !ok || v != "1" {
		t.Fatalf("got (%q, %v), want (1, true)", v, ok)
	}

	if !s.Update("a", "2") {
		t.Fatal("update should succeed on present key")
	}
	v, _ = s.Read("a")
	if v != "2" {
		t.Fatalf("got %q, want 2", v)
	}

	if s.Update("missing", "x") {
		t.Fatal("update should fail on absent key")
	}

	if !s.Delete("a") {
		t.Fatal("delete should succeed on present key")
	}
	if s.Delete("a") {
		t.Fatal("delete should fail on already-absent key")
	}

	if _, ok := s.Read("a"); ok {
		t.Fatal("key should be gone after delete")
	}
}

func TestReadAbsent(t *testing.T) {
	s := New()
	if v, ok := s.Read("nope"); ok || v != "" {
		t.Fatalf("got (%q, %v), want (\"\", false)", v, ok)
	}
}

func TestKeysSnapshot(t *testing.T) {
	s := New()
	s.Create("a", "1")
	s.Create("b", "2")
	keys := s.Keys()
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
}
