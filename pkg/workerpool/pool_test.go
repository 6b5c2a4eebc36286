package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitBeforeStartRunsOnCaller(t *testing.T) {
	p := New()

	var ran atomic.Bool
	p.Submit(context.Background(), func(context.Context) {
		ran.Store(true)
	})

	if !ran.Load() {
		t.Fatalf("task must run synchronously before Start")
	}
}

func TestTasksRunOnWorkers(t *testing.T) {
	p := New(WithWorkers(2), WithQueueSize(16))
	p.Start(context.Background())
	defer p.Stop()

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		p.Submit(context.Background(), func(context.Context) {
			count.Add(1)
		})
	}
	p.Wait()

	if got := count.Load(); got != 10 {
		t.Fatalf("expected 10 completions, got %d", got)
	}
}

func TestQueueOverflowRunsOnCaller(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(1))
	p.Start(context.Background())
	defer p.Stop()

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(context.Background(), func(context.Context) {
		defer wg.Done()
		<-block
	})

	// Wait until the worker picks the blocker up, then fill the queue.
	time.Sleep(20 * time.Millisecond)
	p.Submit(context.Background(), func(context.Context) {})

	// Queue is now full; this task must execute on the calling goroutine
	// instead of blocking or being dropped.
	var overflow atomic.Bool
	done := make(chan struct{})
	go func() {
		p.Submit(context.Background(), func(context.Context) {
			overflow.Store(true)
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("overflow submit must not block")
	}
	if !overflow.Load() {
		t.Fatalf("overflow task must run on the caller")
	}

	close(block)
	wg.Wait()
	p.Wait()
}

func TestWaitBlocksUntilCompletion(t *testing.T) {
	p := New(WithWorkers(2))
	p.Start(context.Background())
	defer p.Stop()

	var count atomic.Int32
	for i := 0; i < 4; i++ {
		p.Submit(context.Background(), func(context.Context) {
			time.Sleep(10 * time.Millisecond)
			count.Add(1)
		})
	}
	p.Wait()

	if got := count.Load(); got != 4 {
		t.Fatalf("Wait returned before all tasks finished: %d", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	p := New(WithWorkers(1))
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	defer p.Stop()

	var ran atomic.Bool
	p.Submit(ctx, func(context.Context) { ran.Store(true) })
	p.Wait()
	if !ran.Load() {
		t.Fatalf("task did not run")
	}
}
