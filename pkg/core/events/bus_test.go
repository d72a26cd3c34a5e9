package events

import (
	"sync"
	"testing"
)

func TestOnDispatchesOnlyMatchingTopic(t *testing.T) {
	b := New()
	var gotA, gotB int
	b.On("a", func(topic Topic, payload Payload) { gotA++ })
	b.On("b", func(topic Topic, payload Payload) { gotB++ })

	b.Emit("a", Payload{"x": 1})

	if gotA != 1 {
		t.Fatalf("expected listener for topic a to fire once, got %d", gotA)
	}
	if gotB != 0 {
		t.Fatalf("expected listener for topic b to not fire, got %d", gotB)
	}
}

func TestOnAnyFiresForEveryTopic(t *testing.T) {
	b := New()
	var seen []Topic
	b.OnAny(func(topic Topic, payload Payload) { seen = append(seen, topic) })

	b.Emit("round:start", Payload{})
	b.Emit("round:completed", Payload{})

	if len(seen) != 2 || seen[0] != "round:start" || seen[1] != "round:completed" {
		t.Fatalf("expected both topics observed in order, got %v", seen)
	}
}

func TestEmitOnUnknownTopicDoesNotPanic(t *testing.T) {
	b := New()
	b.Emit("error", Payload{"err": "boom"})
}

func TestEmitIsConcurrencySafe(t *testing.T) {
	b := New()
	var mu sync.Mutex
	count := 0
	b.On("x", func(topic Topic, payload Payload) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Emit("x", Payload{})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Fatalf("expected 50 deliveries, got %d", count)
	}
}
