package credential

import (
	"context"
	"errors"
	"testing"
)

type memStore struct {
	value   string
	present bool
	saves   int
	deletes int
	fail    error
}

func (s *memStore) Load(ctx context.Context) (string, bool, error) {
	_ = ctx
	return s.value, s.present, nil
}

func (s *memStore) Save(ctx context.Context, value string) error {
	_ = ctx
	if s.fail != nil {
		return s.fail
	}
	s.value, s.present = value, true
	s.saves++
	return nil
}

func (s *memStore) Delete(ctx context.Context) error {
	_ = ctx
	if s.fail != nil {
		return s.fail
	}
	s.value, s.present = "", false
	s.deletes++
	return nil
}

func TestGateway_LoadsPersistedValue(t *testing.T) {
	gw, err := NewGateway(context.Background(), &memStore{value: "stored", present: true})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	v, ok := gw.Get()
	if !ok || v != "stored" {
		t.Fatalf("expected stored value, got %q ok=%v", v, ok)
	}
}

func TestGateway_SetTrimsAndPersists(t *testing.T) {
	store := &memStore{}
	gw, _ := NewGateway(context.Background(), store)

	if err := gw.Set(context.Background(), "  key-123  "); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok := gw.Get()
	if !ok || v != "key-123" {
		t.Fatalf("expected trimmed value, got %q", v)
	}
	// persisted synchronously within the call
	if store.saves != 1 || store.value != "key-123" {
		t.Fatalf("expected one persisted save, got %+v", store)
	}
}

func TestGateway_SetRejectsEmpty(t *testing.T) {
	store := &memStore{}
	gw, _ := NewGateway(context.Background(), store)

	if err := gw.Set(context.Background(), "   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, ok := gw.Get(); ok {
		t.Fatalf("empty set must not activate a credential")
	}
	if store.saves != 0 {
		t.Fatalf("empty set must not persist")
	}
}

func TestGateway_ClearRemovesValueAndPersistedCopy(t *testing.T) {
	store := &memStore{value: "k", present: true}
	gw, _ := NewGateway(context.Background(), store)

	if err := gw.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := gw.Get(); ok {
		t.Fatalf("expected absent after clear")
	}
	if store.deletes != 1 || store.present {
		t.Fatalf("expected persisted copy removed, got %+v", store)
	}
}

func TestGateway_PersistFailureLeavesStateUnchanged(t *testing.T) {
	store := &memStore{value: "old", present: true}
	gw, _ := NewGateway(context.Background(), store)

	store.fail = errors.New("disk broke")
	if err := gw.Set(context.Background(), "new"); err == nil {
		t.Fatalf("expected save failure to propagate")
	}
	if v, _ := gw.Get(); v != "old" {
		t.Fatalf("value must not change when persistence fails, got %q", v)
	}
}

func TestGateway_SubscribersNotified(t *testing.T) {
	gw, _ := NewGateway(context.Background(), &memStore{})

	type event struct {
		value   string
		present bool
	}
	var events []event
	gw.Subscribe(func(v string, present bool) {
		events = append(events, event{v, present})
	})

	_ = gw.Set(context.Background(), "k1")
	_ = gw.Clear(context.Background())

	if len(events) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(events))
	}
	if events[0] != (event{"k1", true}) || events[1] != (event{"", false}) {
		t.Fatalf("unexpected events: %+v", events)
	}
}
