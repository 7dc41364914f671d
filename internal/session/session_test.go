package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"kanban-cli/internal/boardtest"
	"kanban-cli/internal/drag"
	"kanban-cli/internal/layout"
	"kanban-cli/internal/model"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/report"
)

func newServer(t *testing.T) *boardtest.Server {
	t.Helper()
	srv := boardtest.New(t)
	srv.AddBoard(model.Board{ID: "b1", Name: "Launch", Members: []string{"alice@example.com"}})
	srv.AddCard("b1", model.Card{ID: "C1", Name: "Plan", Status: model.StatusTodo})
	srv.AddCard("b1", model.Card{ID: "C2", Name: "Build", Status: model.StatusDoing})
	srv.AddTask("C1", model.Task{ID: "T1", Title: "Outline"})
	return srv
}

func TestOpen_LoadsBoardAndCards(t *testing.T) {
	srv := newServer(t)
	s, err := Open(context.Background(), remote.New(remote.Options{BaseURL: srv.URL}), "b1", nil, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if b := s.Board(); b.Name != "Launch" || len(b.Members) != 1 {
		t.Fatalf("expected board details loaded; got %+v", b)
	}
	if st, ok := s.Layout.StatusOf("C2"); !ok || st != model.StatusDoing {
		t.Fatalf("expected C2 in doing; got %q ok=%v", st, ok)
	}
}

func TestOpen_FallsBackToEmptyColumns(t *testing.T) {
	srv := newServer(t)
	srv.Fail(http.MethodGet, "/boards/b1", http.StatusInternalServerError)
	srv.Fail(http.MethodGet, "/boards/b1/cards", http.StatusInternalServerError)
	rec := &report.Recorder{}

	s, err := Open(context.Background(), remote.New(remote.Options{BaseURL: srv.URL}), "b1", rec, Options{})
	if err != nil {
		t.Fatalf("expected fallback, not an error; got %v", err)
	}
	defer s.Close()

	snap := s.Layout.Snapshot()
	if len(snap.Columns) != 3 || len(snap.Cards()) != 0 {
		t.Fatalf("expected three empty columns; got %+v", snap.Columns)
	}
	if b := s.Board(); b.ID != "b1" || b.Members == nil {
		t.Fatalf("expected placeholder board; got %+v", b)
	}
	if n := len(rec.Failures()); n != 2 {
		t.Fatalf("expected board and poll failures reported; got %d", n)
	}
}

func TestOpen_AuthFailureIsReturned(t *testing.T) {
	srv := newServer(t)
	srv.Token = "right"
	_, err := Open(context.Background(), remote.New(remote.Options{BaseURL: srv.URL, Token: "wrong"}), "b1", nil, Options{})
	if !errors.Is(err, remote.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized; got %v", err)
	}
}

func TestDragEnd_TaskMoveBumpsTickAndReloads(t *testing.T) {
	srv := newServer(t)
	s, err := Open(context.Background(), remote.New(remote.Options{BaseURL: srv.URL}), "b1", nil, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := s.Tasks.Load(s.Context(), "C1"); err != nil {
		t.Fatalf("load tasks: %v", err)
	}

	res, ok := s.DragEnd(drag.DropResult{
		Draggable:   drag.Task("T1"),
		Source:      drag.Location{Target: drag.TaskList("C1")},
		Destination: &drag.Location{Target: drag.TaskList("C2")},
	})
	if !ok || res.Err != nil || !res.Refresh {
		t.Fatalf("expected successful refresh-requesting move; got %+v ok=%v", res, ok)
	}
	if s.Tick().Value() != 1 {
		t.Fatalf("expected tick bumped once; got %d", s.Tick().Value())
	}

	if err := s.ReloadTasks(s.Context(), res.Reload...); err != nil {
		t.Fatalf("ReloadTasks: %v", err)
	}
	if got, _ := s.Tasks.Get("C2"); len(got) != 1 || got[0].ID != "T1" {
		t.Fatalf("expected T1 under C2 after reload; got %+v", got)
	}
	if got, _ := s.Tasks.Get("C1"); len(got) != 0 {
		t.Fatalf("expected C1 empty after reload; got %+v", got)
	}
	if got := srv.Tasks("C2"); len(got) != 1 || got[0].Status != model.StatusDoing {
		t.Fatalf("expected server task status doing; got %+v", got)
	}
}

func TestClose_DiscardsLateResults(t *testing.T) {
	srv := newServer(t)
	s, err := Open(context.Background(), remote.New(remote.Options{BaseURL: srv.URL}), "b1", nil, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	if s.Apply(drag.Result{Op: drag.OpTaskMove, Refresh: true}) {
		t.Fatalf("expected Apply to refuse after Close")
	}
	if s.Tick().Value() != 0 {
		t.Fatalf("expected tick untouched after Close")
	}
	if ran := s.Scope().Deliver(func() { t.Fatalf("apply ran after Close") }); ran {
		t.Fatalf("expected Deliver to report false")
	}
}

func TestStart_PollerRefreshesUntilClose(t *testing.T) {
	srv := newServer(t)
	s, err := Open(context.Background(), remote.New(remote.Options{BaseURL: srv.URL}), "b1", nil, Options{PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Start()
	s.Start()

	srv.AddCard("b1", model.Card{ID: "C3", Status: model.StatusDone})
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := s.Layout.Card("C3"); ok {
			break
		}
		if time.Now().After(deadline) {
			s.Close()
			t.Fatalf("expected poll to pick up C3")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Close()
	if err := layout.CheckInvariants(s.Layout.Snapshot()); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}
