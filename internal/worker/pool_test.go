package worker

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(4, 64)
	var n atomic.Int32
	for i := 0; i < 50; i++ {
		if !p.TrySubmit(func() { n.Add(1) }) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	p.Stop()
	if got := n.Load(); got != 50 {
		t.Fatalf("ran %d tasks, want 50", got)
	}
}

func TestPoolRejectsWhenFull(t *testing.T) {
	p := NewPool(1, 1)
	block := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	p.TrySubmit(func() { once.Do(func() { close(started) }); <-block })
	<-started
	if !p.TrySubmit(func() {}) {
		t.Fatal("queue slot should be free")
	}
	if p.TrySubmit(func() {}) {
		t.Fatal("expected rejection on a full queue")
	}
	close(block)
	p.Stop()

	if p.TrySubmit(func() {}) {
		t.Fatal("stopped pool must reject tasks")
	}
}

func TestPoolSurvivesPanics(t *testing.T) {
	p := NewPool(1, 4)
	var ran atomic.Bool
	p.TrySubmit(func() { panic("boom") })
	p.TrySubmit(func() { ran.Store(true) })
	p.Stop()
	if !ran.Load() {
		t.Fatal("task after a panic did not run")
	}
}
