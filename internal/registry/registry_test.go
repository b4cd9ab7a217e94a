package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
)

func newConn(id, pair string, at time.Time) *entities.Connection {
	conn := entities.NewConnection(id, "caller", pair)
	conn.ConnectedAt = at
	return conn
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := New()
	conn := entities.NewConnection("es-1", "caller", "")

	if err := reg.Register(conn); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Get("es-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != conn {
		t.Error("Get should return the registered connection")
	}
	if reg.Len() != 1 {
		t.Errorf("Expected 1 connection, got %d", reg.Len())
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := New()
	first := entities.NewConnection("es-1", "caller", "")
	if err := reg.Register(first); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := reg.Register(entities.NewConnection("es-1", "other", ""))
	if !errors.Is(err, repositories.ErrDuplicateConnection) {
		t.Fatalf("Expected ErrDuplicateConnection, got %v", err)
	}

	got, _ := reg.Get("es-1")
	if got != first {
		t.Error("Duplicate registration must not overwrite the existing entry")
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	reg := New()
	if err := reg.Register(entities.NewConnection("", "caller", "")); err == nil {
		t.Error("Register should reject a connection without id")
	}
}

func TestRegistry_RegisterRemoveGet(t *testing.T) {
	reg := New()
	if err := reg.Register(entities.NewConnection("a", "caller", "")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	reg.Remove("a")

	if _, err := reg.Get("a"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after remove, got %v", err)
	}

	// Removing again is a no-op.
	reg.Remove("a")
	reg.Remove("never-registered")
	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Len())
	}
}

func TestRegistry_RemoveIfSame(t *testing.T) {
	reg := New()
	old := entities.NewConnection("a", "caller", "")
	reg.Register(old)
	reg.Remove("a")

	replacement := entities.NewConnection("a", "caller", "")
	reg.Register(replacement)

	if reg.RemoveIfSame(old) {
		t.Error("RemoveIfSame must not remove a newer connection with the same id")
	}
	if !reg.RemoveIfSame(replacement) {
		t.Error("RemoveIfSame should remove the matching connection")
	}
}

func TestRegistry_FindOther_TwoParties(t *testing.T) {
	reg := New()
	reg.Register(entities.NewConnection("A", "caller", ""))
	reg.Register(entities.NewConnection("B", "callee", ""))

	if other, ok := reg.FindOther("A"); !ok || other != "B" {
		t.Errorf("Expected FindOther(A) == B, got %q, %v", other, ok)
	}
	if other, ok := reg.FindOther("B"); !ok || other != "A" {
		t.Errorf("Expected FindOther(B) == A, got %q, %v", other, ok)
	}
}

func TestRegistry_FindOther_Alone(t *testing.T) {
	reg := New()
	reg.Register(entities.NewConnection("A", "caller", ""))

	if other, ok := reg.FindOther("A"); ok {
		t.Errorf("Expected no other participant, got %q", other)
	}
}

func TestRegistry_FindOther_RespectsPair(t *testing.T) {
	reg := New()
	reg.Register(entities.NewConnection("es-1", "caller", "room-1"))
	reg.Register(entities.NewConnection("en-1", "callee", "room-1"))
	reg.Register(entities.NewConnection("es-2", "caller", "room-2"))
	reg.Register(entities.NewConnection("en-2", "callee", "room-2"))

	cases := map[string]string{"es-1": "en-1", "en-1": "es-1", "es-2": "en-2", "en-2": "es-2"}
	for speaker, want := range cases {
		if got, ok := reg.FindOther(speaker); !ok || got != want {
			t.Errorf("FindOther(%s): expected %s, got %q (%v)", speaker, want, got, ok)
		}
	}

	reg.Register(entities.NewConnection("solo", "caller", "room-3"))
	if other, ok := reg.FindOther("solo"); ok {
		t.Errorf("A leg alone in its pair must not be routed to %q", other)
	}
}

// With more than two unpaired legs the relay has no notion of who talks to
// whom. The choice is pinned to the earliest connected leg so that it is at
// least stable, but it is not a meaningful pairing.
func TestRegistry_FindOther_MoreThanTwoIsUnpaired(t *testing.T) {
	reg := New()
	base := time.Now()
	reg.Register(newConn("c", "", base.Add(2*time.Second)))
	reg.Register(newConn("a", "", base))
	reg.Register(newConn("b", "", base.Add(time.Second)))

	if other, _ := reg.FindOther("c"); other != "a" {
		t.Errorf("Expected earliest connected leg a, got %q", other)
	}
	if other, _ := reg.FindOther("a"); other != "b" {
		t.Errorf("Expected earliest remaining leg b, got %q", other)
	}
}

func TestRegistry_FindOther_UnknownSpeaker(t *testing.T) {
	reg := New()
	reg.Register(entities.NewConnection("A", "caller", ""))

	// A speaker removed mid-dispatch still resolves within the empty pair.
	if other, ok := reg.FindOther("gone"); !ok || other != "A" {
		t.Errorf("Expected A, got %q (%v)", other, ok)
	}
}

func TestRegistry_FindOtherInPair(t *testing.T) {
	reg := New()
	reg.Register(entities.NewConnection("en-1", "callee", "room-1"))
	reg.Register(entities.NewConnection("lobby", "caller", ""))

	// es-1 already closed; its pair id still scopes the lookup.
	if other, ok := reg.FindOtherInPair("es-1", "room-1"); !ok || other != "en-1" {
		t.Errorf("Expected en-1, got %q (%v)", other, ok)
	}
	if other, ok := reg.FindOtherInPair("es-1", "room-9"); ok {
		t.Errorf("Expected no participant in room-9, got %q", other)
	}
}

func TestRegistry_List(t *testing.T) {
	reg := New()
	base := time.Now()
	reg.Register(newConn("second", "", base.Add(time.Second)))
	reg.Register(newConn("first", "", base))

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(list))
	}
	if list[0].ID != "first" || list[1].ID != "second" {
		t.Errorf("Expected connect-time order, got %s, %s", list[0].ID, list[1].ID)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i)
			if err := reg.Register(entities.NewConnection(id, "caller", "")); err != nil {
				t.Errorf("Register %s failed: %v", id, err)
				return
			}
			reg.FindOther(id)
			if _, err := reg.Get(id); err != nil {
				t.Errorf("Get %s failed: %v", id, err)
			}
			reg.Remove(id)
		}(i)
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Len())
	}
}
