package bus

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type testObserver struct {
	mu             sync.Mutex
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_, _ string, _ Event) {
	o.mu.Lock()
	o.publishCount++
	o.mu.Unlock()
}

func (o *testObserver) OnDelivered(_, _ string, handlers int, err error, _ time.Duration) {
	o.mu.Lock()
	o.deliveredCount += handlers
	o.lastErr = err
	o.mu.Unlock()
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	done := make(chan struct{})
	_, err := b.Subscribe("test.event", func(e Event) error {
		if e.Data() != 123 {
			t.Errorf("unexpected payload %v", e.Data())
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("test.event", "tester", 123)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("handler not called")
	}
}

func TestTopicsIsolation(t *testing.T) {
	b := New()
	count1 := 0
	count2 := 0
	_, _ = b.SubscribeTopic("t1", "ev", func(e Event) error { count1++; return nil })
	_, _ = b.SubscribeTopic("t2", "ev", func(e Event) error { count2++; return nil })
	_ = b.PublishToTopic("t1", NewEvent("ev", "src", nil))
	if count1 != 1 || count2 != 0 {
		t.Fatalf("topic isolation failed: %d %d", count1, count2)
	}
}

func TestUnsubscribeAndDropTopic(t *testing.T) {
	b := New()
	calls := 0
	sub, _ := b.SubscribeTopic("room", "ev", func(e Event) error { calls++; return nil })
	other, _ := b.SubscribeTopic("room", "ev", func(e Event) error { calls++; return nil })

	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	_ = b.PublishToTopic("room", NewEvent("ev", "src", nil))
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	if err := b.DropTopic("room"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if other.IsActive() {
		t.Fatal("dropping a topic must cancel its subscriptions")
	}
	_ = b.PublishToTopic("room", NewEvent("ev", "src", nil))
	if calls != 1 {
		t.Fatalf("handler called after drop")
	}
	if err := b.DropTopic("room"); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
	if _, err := b.Subscribe("ev", nil); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}

func TestTopicsSnapshot(t *testing.T) {
	b := New()
	if err := b.CreateTopic("empty"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _ = b.SubscribeTopic("room", "a", func(e Event) error { return nil })
	_, _ = b.SubscribeTopic("room", "b", func(e Event) error { return nil })
	_, _ = b.SubscribeTopic("room", "b", func(e Event) error { return nil })

	got := make(map[string]TopicInfo)
	for _, info := range b.Topics() {
		got[info.Name] = info
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 topics, got %+v", got)
	}
	if info := got["room"]; info.EventTypes != 2 || info.Subs != 3 {
		t.Fatalf("unexpected room info: %+v", info)
	}
	if info := got["empty"]; info.EventTypes != 0 || info.Subs != 0 {
		t.Fatalf("unexpected empty info: %+v", info)
	}

	_ = b.DropTopic("room")
	if topics := b.Topics(); len(topics) != 1 || topics[0].Name != "empty" {
		t.Fatalf("dropped topic still listed: %+v", topics)
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	m := b.Metrics()
	if m.Published != 0 || m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	m2 := b.Metrics()
	if m2.Published != 1 || m2.DeliveredHandlers != 1 || m2.SubscribersActive != 1 {
		t.Fatalf("metrics should update with observer: %+v", m2)
	}
	if obs.publishCount != 1 || obs.deliveredCount != 1 {
		t.Fatalf("observer not called: %+v", obs)
	}

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	if obs.publishCount != 1 {
		t.Fatalf("removed observer still called")
	}
}
