package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan StateChanged, 1)

	unsub := Subscribe(bus, func(e StateChanged) {
		received <- e
	})
	defer unsub()

	Publish(bus, StateChanged{Device: "/dev/video0", From: "null", To: "playing"})

	select {
	case got := <-received:
		if got.To != "playing" {
			t.Errorf("Expected To=playing, got %s", got.To)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan FrameDropped, 1)

	unsub := Subscribe(bus, func(e FrameDropped) {
		received <- e
	})

	Publish(bus, FrameDropped{Seq: 1, Reason: DropSizeMismatch})
	<-received

	unsub()

	Publish(bus, FrameDropped{Seq: 2, Reason: DropSizeMismatch})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	dropped := make(chan bool, 1)
	delivered := make(chan bool, 1)

	unsub1 := Subscribe(bus, func(_ FrameDropped) { dropped <- true })
	defer unsub1()
	unsub2 := Subscribe(bus, func(_ FrameDelivered) { delivered <- true })
	defer unsub2()

	Publish(bus, FrameDropped{Seq: 1})
	<-dropped

	select {
	case <-delivered:
		t.Fatal("FrameDelivered subscriber received FrameDropped")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	Publish(bus, PipelineError{Category: "device"})
	unsub := Subscribe(bus, func(PipelineError) { t.Error("nil bus delivered an event") })
	unsub()
}

func TestBus_ThreadSafety(t *testing.T) {
	bus := New()
	const goroutines, perGoroutine = 8, 50

	ch := make(chan FrameDelivered, goroutines*perGoroutine)
	unsub := Subscribe(bus, func(e FrameDelivered) { ch <- e })
	defer unsub()

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perGoroutine {
				Publish(bus, FrameDelivered{Seq: uint64(i)})
			}
		}()
	}
	wg.Wait()

	deadline := time.After(2 * time.Second)
	for got := 0; got < goroutines*perGoroutine; got++ {
		select {
		case <-ch:
		case <-deadline:
			t.Fatalf("received %d of %d events", got, goroutines*perGoroutine)
		}
	}
}
