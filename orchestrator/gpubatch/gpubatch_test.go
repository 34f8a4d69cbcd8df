package gpubatch

import (
	"context"
	"testing"
	"time"
)

func doubleExec(ctx context.Context, ops []Op) []Result {
	out := make([]Result, len(ops))
	for i, op := range ops {
		n := op.Payload.(int)
		out[i] = Result{Value: n * 2}
	}
	return out
}

func TestSubmitResolvesViaTimeBasedFlush(t *testing.T) {
	b := New(Config{MaxWait: 5 * time.Millisecond}, doubleExec)
	defer b.Close()

	ch, err := b.Submit(context.Background(), Op{Payload: 21})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case res := <-ch:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Value.(int) != 42 {
			t.Errorf("value = %v, want 42", res.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestSubmitFlushesOnBatchSize(t *testing.T) {
	b := New(Config{MaxBatchSize: 2, MaxWait: time.Hour}, doubleExec)
	defer b.Close()

	ch1, _ := b.Submit(context.Background(), Op{Payload: 1})
	ch2, _ := b.Submit(context.Background(), Op{Payload: 2})

	for _, ch := range []<-chan Result{ch1, ch2} {
		select {
		case res := <-ch:
			if res.Err != nil {
				t.Fatalf("unexpected error: %v", res.Err)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for batch-size flush")
		}
	}
}

func TestSubmitQueueFullReturnsError(t *testing.T) {
	blockForever := make(chan struct{})
	// MaxBatchSize 1 forces the worker to flush (and block inside exec)
	// as soon as it reads the very first submitted request, so it never
	// drains the queue again until the test releases blockForever.
	b := New(Config{QueueSize: 1, MaxWait: time.Hour, MaxBatchSize: 1}, func(ctx context.Context, ops []Op) []Result {
		<-blockForever
		return make([]Result, len(ops))
	})
	defer func() {
		close(blockForever)
		b.Close()
	}()

	if _, err := b.Submit(context.Background(), Op{Payload: 0}); err != nil {
		t.Fatalf("first submit should queue immediately: %v", err)
	}
	// Give the worker goroutine time to dequeue and block inside exec.
	time.Sleep(20 * time.Millisecond)

	if _, err := b.Submit(context.Background(), Op{Payload: 1}); err != nil {
		t.Fatalf("second submit should fill the now-idle queue: %v", err)
	}
	if _, err := b.Submit(context.Background(), Op{Payload: 2}); err != ErrQueueFull {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}
