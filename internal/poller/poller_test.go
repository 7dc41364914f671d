package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kanban-cli/internal/layout"
	"kanban-cli/internal/model"
	"kanban-cli/internal/report"
)

func TestPollOnce_ReplacesLayout(t *testing.T) {
	store := layout.New()
	fetch := func(context.Context) ([]model.Card, error) {
		return []model.Card{{ID: "a", Status: model.StatusDoing}, {ID: "z", Status: "weird"}}, nil
	}
	p := New(fetch, store, nil, Options{BoardID: "b1"})

	snap, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if st, ok := store.StatusOf("a"); !ok || st != model.StatusDoing {
		t.Fatalf("expected a in doing; got %q ok=%v", st, ok)
	}
	if snap.Dropped != 1 {
		t.Fatalf("expected unknown status dropped; got %d", snap.Dropped)
	}
	select {
	case ev := <-p.Events():
		if ev.Err != nil || ev.Version != snap.Version || ev.Dropped != 1 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatalf("expected a Refreshed event")
	}
	if p.Interval() != DefaultInterval {
		t.Fatalf("expected default 10s interval; got %s", p.Interval())
	}
}

func TestRun_FailureKeepsTimerAlive(t *testing.T) {
	store := layout.New()
	var calls atomic.Int32
	fetch := func(context.Context) ([]model.Card, error) {
		if calls.Add(1) <= 2 {
			return nil, errors.New("service unavailable")
		}
		return []model.Card{{ID: "a", Status: model.StatusTodo}}, nil
	}
	rec := &report.Recorder{}
	p := New(fetch, store, rec, Options{BoardID: "b1", Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-p.Events():
			if ev.Err != nil {
				continue
			}
			cancel()
			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Fatalf("expected Run to stop with context.Canceled; got %v", err)
			}
			if _, ok := store.Card("a"); !ok {
				t.Fatalf("expected layout replaced after recovery")
			}
			fails := rec.Failures()
			if len(fails) < 2 || fails[0].Op != "poll" || fails[0].BoardID != "b1" {
				t.Fatalf("expected poll failures in the sink; got %+v", fails)
			}
			return
		case <-deadline:
			cancel()
			t.Fatalf("expected a successful cycle after failures; calls=%d", calls.Load())
		}
	}
}

func TestPollOnce_CoalescesConcurrentCycles(t *testing.T) {
	store := layout.New()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]model.Card, error) {
		calls.Add(1)
		<-release
		return nil, nil
	}
	p := New(fetch, store, nil, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.PollOnce(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one shared fetch; got %d", n)
	}
}

func TestPollOnce_DiscardsAfterScopeEnds(t *testing.T) {
	store := layout.New()
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(context.Context) ([]model.Card, error) {
		cancel() // view closed while the request was in flight
		return []model.Card{{ID: "late", Status: model.StatusTodo}}, nil
	}
	p := New(fetch, store, nil, Options{})
	before := store.Version()
	if _, err := p.PollOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}
	if store.Version() != before {
		t.Fatalf("expected late result not applied")
	}
	if _, ok := store.Card("late"); ok {
		t.Fatalf("expected late card absent")
	}
}

func TestTick_BumpNotifies(t *testing.T) {
	tk := NewTick()
	if tk.Value() != 0 {
		t.Fatalf("expected zero tick")
	}
	tk.Bump()
	tk.Bump()
	if tk.Value() != 2 {
		t.Fatalf("expected 2; got %d", tk.Value())
	}
	select {
	case <-tk.C():
	default:
		t.Fatalf("expected a pending notification")
	}
	select {
	case <-tk.C():
		t.Fatalf("expected coalesced notifications")
	default:
	}
}
