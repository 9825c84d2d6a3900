package uiloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueue_PostAndDrain(t *testing.T) {
	q := New(4)

	var order []int
	for i := range 3 {
		if !q.Post(func() { order = append(order, i) }) {
			t.Fatalf("Post(%d) rejected", i)
		}
	}

	if ran := q.Drain(); ran != 3 {
		t.Fatalf("Drain() = %d, want 3", ran)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
}

func TestQueue_PostNeverBlocks(t *testing.T) {
	q := New(2)

	start := time.Now()
	accepted := 0
	for range 100 {
		if q.Post(func() {}) {
			accepted++
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Post blocked: %v", elapsed)
	}
	if accepted != 2 {
		t.Errorf("accepted = %d, want 2 (capacity)", accepted)
	}
}

func TestQueue_CloseRejects(t *testing.T) {
	q := New(4)
	if !q.Post(func() {}) {
		t.Fatal("Post before Close rejected")
	}

	q.Close()
	q.Close()

	if q.Post(func() {}) {
		t.Error("Post after Close accepted")
	}
	if ran := q.Drain(); ran != 1 {
		t.Errorf("Drain after Close = %d, want 1 (already queued)", ran)
	}
}

func TestQueue_DrainDefersNestedPosts(t *testing.T) {
	q := New(4)
	q.Post(func() { q.Post(func() {}) })

	if ran := q.Drain(); ran != 1 {
		t.Fatalf("first Drain = %d, want 1", ran)
	}
	if ran := q.Drain(); ran != 1 {
		t.Fatalf("second Drain = %d, want 1", ran)
	}
}

func TestQueue_RunUntilCancelled(t *testing.T) {
	q := New(8)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	var count atomic.Int32
	executed := make(chan struct{})
	q.Post(func() { count.Add(1) })
	q.Post(func() { count.Add(1); close(executed) })

	select {
	case <-executed:
	case <-time.After(time.Second):
		t.Fatal("Run did not execute tasks")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if count.Load() != 2 {
		t.Errorf("executed %d tasks, want 2", count.Load())
	}
}
