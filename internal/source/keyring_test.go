package source

import "testing"

func TestKeyRingRotation(t *testing.T) {
	t.Parallel()

	ring := NewKeyRing([]string{"k1", "k2", "k3"})

	key, ok := ring.Current()
	if !ok || key != "k1" {
		t.Fatalf("expected k1, got %q (%v)", key, ok)
	}

	if !ring.Rotate() {
		t.Fatal("rotation should find k2")
	}
	if key, _ := ring.Current(); key != "k2" {
		t.Fatalf("expected k2, got %q", key)
	}

	if !ring.Rotate() {
		t.Fatal("rotation should find k3")
	}
	if ring.Rotate() {
		t.Fatal("rotating past the last key must report exhaustion")
	}
	if !ring.Exhausted() {
		t.Fatal("ring should be exhausted")
	}
	if _, ok := ring.Current(); ok {
		t.Fatal("no key should be usable after exhaustion")
	}
}

func TestKeyRingReset(t *testing.T) {
	t.Parallel()

	ring := NewKeyRing([]string{"k1", "k2"})
	ring.Rotate()
	ring.Rotate()
	if !ring.Exhausted() {
		t.Fatal("expected exhausted ring")
	}

	ring.Reset()
	if ring.Exhausted() {
		t.Fatal("reset must restore all keys")
	}
	if key, _ := ring.Current(); key != "k1" {
		t.Fatalf("reset must rewind to the first key, got %q", key)
	}
}

func TestKeyRingStatus(t *testing.T) {
	t.Parallel()

	ring := NewKeyRing([]string{"k1", "", "k2"})
	ring.RecordSuccess()
	ring.RecordSuccess()
	ring.Rotate()

	status := ring.Status()
	if status.TotalKeys != 2 {
		t.Fatalf("empty keys must be skipped, got %d", status.TotalKeys)
	}
	if status.FailedKeys != 1 || status.AvailableKeys != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.SuccessfulCalls[0] != 2 {
		t.Fatalf("expected 2 successes on key 0, got %+v", status.SuccessfulCalls)
	}
}

func TestKeyRingEmpty(t *testing.T) {
	t.Parallel()

	ring := NewKeyRing(nil)
	if !ring.Exhausted() {
		t.Fatal("empty ring is exhausted by definition")
	}
	if ring.Rotate() {
		t.Fatal("empty ring cannot rotate")
	}
}
