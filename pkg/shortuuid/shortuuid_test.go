package shortuuid

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

const (
	testShort = "hfDoPxAatD8tiFaSAL3oXh"
	testLong  = "de22bbe0-43bf-448d-9b83-2ee57e663285"
)

func TestConversions(t *testing.T) {
	u1, err := FromShort(testShort)
	if err != nil {
		t.Fatalf("FromShort failed: %v", err)
	}
	u2, err := Parse(testLong)
	if err != nil {
		t.Fatalf("Parse long failed: %v", err)
	}
	u3, err := Parse(testShort)
	if err != nil {
		t.Fatalf("Parse short failed: %v", err)
	}

	if u1 != u2 {
		t.Errorf("expected %s, got %s", u2, u1)
	}
	if u1 != u3 {
		t.Errorf("Parse should accept short strings: %s != %s", u1, u3)
	}
	if got := ToShort(u1); got != testShort {
		t.Errorf("expected %s, got %s", testShort, got)
	}
	if u1.String() != testLong {
		t.Errorf("expected %s, got %s", testLong, u1.String())
	}
}

func TestEdgeValues(t *testing.T) {
	if got := ToShort(uuid.Nil); got != "2222222222222222222222" {
		t.Errorf("unexpected nil uuid short form %s", got)
	}
	u, err := FromShort("2222222222222222222222")
	if err != nil || u != uuid.Nil {
		t.Errorf("expected nil uuid, got %s, %v", u, err)
	}

	var full uuid.UUID
	for i := range full {
		full[i] = 0xff
	}
	back, err := FromShort(ToShort(full))
	if err != nil || back != full {
		t.Errorf("max uuid roundtrip failed: %s, %v", back, err)
	}
}

func TestInvalid(t *testing.T) {
	bad := []string{
		"",
		"hfDoPxAatD8tiFaSAL3oX",
		"hfDoPxAatD8tiFaSAL3oXhh",
		"hfDoPxAatD8tiFaSAL3oX1",
		"zzzzzzzzzzzzzzzzzzzzzz",
	}
	for _, s := range bad {
		if _, err := FromShort(s); !errors.Is(err, ErrInvalidShort) {
			t.Errorf("expected ErrInvalidShort for %q, got %v", s, err)
		}
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid uuid")
	}
}

func TestNew(t *testing.T) {
	s := New()
	if len(s) != ShortLen {
		t.Fatalf("expected length %d, got %d", ShortLen, len(s))
	}
	if _, err := FromShort(s); err != nil {
		t.Errorf("generated short uuid is invalid: %v", err)
	}
}
