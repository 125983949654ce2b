package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type E1 struct{ A int }
type E2 struct{ S string }

func TestBus_SubscribePublish_TypeIsolation(t *testing.T) {
	var c1 int32

	cancel := Subscribe(func(ev E1) {
		atomic.AddInt32(&c1, int32(ev.A))
	})
	defer cancel()

	Publish(E1{A: 1})
	Publish(E1{A: 2})
	Publish(E2{S: "noop"}) // must not reach E1 subscribers

	if got := atomic.LoadInt32(&c1); got != 3 {
		t.Fatalf("want 3, got %d", got)
	}
}

func TestBus_Cancel_Unsubscribe(t *testing.T) {
	var hits int32

	cancel := Subscribe(func(E1) {
		atomic.AddInt32(&hits, 1)
	})
	cancel() // unsubscribe before publishing

	Publish(E1{A: 1})
	time.Sleep(10 * time.Millisecond)

	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Fatalf("want 0 after cancel, got %d", got)
	}
}

func TestBus_CancelFirstOfTwo_KeepsSecond(t *testing.T) {
	var first, second int32

	cancelFirst := Subscribe(func(E1) { atomic.AddInt32(&first, 1) })
	cancelSecond := Subscribe(func(E1) { atomic.AddInt32(&second, 1) })

	// cancelling the earlier registration must not shift the later one out
	cancelFirst()
	Publish(E1{A: 1})

	if got := atomic.LoadInt32(&first); got != 0 {
		t.Fatalf("cancelled subscriber fired %d times", got)
	}
	if got := atomic.LoadInt32(&second); got != 1 {
		t.Fatalf("surviving subscriber: want 1, got %d", got)
	}

	cancelSecond()
	Publish(E1{A: 1})

	if got := atomic.LoadInt32(&second); got != 1 {
		t.Fatalf("second subscriber fired after its own cancel: got %d", got)
	}
}

func TestBus_Concurrency_NoRaces(t *testing.T) {
	var hits int32

	cancel := Subscribe(func(E1) {
		atomic.AddInt32(&hits, 1)
	})
	defer cancel()

	const G = 50
	const N = 100
	var wg sync.WaitGroup
	wg.Add(G)
	for g := 0; g < G; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < N; i++ {
				Publish(E1{A: 1})
			}
		}()
	}
	wg.Wait()

	want := int32(G * N)
	if got := atomic.LoadInt32(&hits); got != want {
		t.Fatalf("want %d, got %d", want, got)
	}
}
