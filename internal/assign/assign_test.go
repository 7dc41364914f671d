package assign

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"kanban-cli/internal/boardtest"
	"kanban-cli/internal/model"
	"kanban-cli/internal/remote"
)

func setup(t *testing.T) (*Cache, *boardtest.Server, model.TaskRef) {
	t.Helper()
	srv := boardtest.New(t)
	srv.AddBoard(model.Board{ID: "b1", Members: []string{"alice@example.com", "bob@example.com"}})
	srv.AddCard("b1", model.Card{ID: "c1", Status: model.StatusTodo})
	srv.AddTask("c1", model.Task{ID: "t1", Title: "one"})
	srv.AddTask("c1", model.Task{ID: "t2", Title: "two"})
	srv.SetAssignees("t1", "bob@example.com")
	return New(remote.New(remote.Options{BaseURL: srv.URL})), srv, model.TaskRef{BoardID: "b1", CardID: "c1", TaskID: "t1"}
}

func TestAssign_MemberReloadsTask(t *testing.T) {
	c, srv, ref := setup(t)

	err := c.Assign(context.Background(), ref, " alice@example.com ")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if msg := UserMessage(err); msg != "Member assigned" {
		t.Fatalf("unexpected message %q", msg)
	}
	got, ok := c.Get("t1")
	if !ok || !reflect.DeepEqual(got, []string{"bob@example.com", "alice@example.com"}) {
		t.Fatalf("expected cache reloaded with both members; got %v", got)
	}
	if n := len(srv.RequestsTo(http.MethodGet, "/boards/b1/cards/c1/tasks/t1/assign")); n != 1 {
		t.Fatalf("expected one reload after assign; got %d", n)
	}
}

func TestAssign_NonMemberGetsDistinctMessage(t *testing.T) {
	c, _, ref := setup(t)

	err := c.Assign(context.Background(), ref, "mallory@example.com")
	if !errors.Is(err, ErrNotInBoard) {
		t.Fatalf("expected ErrNotInBoard; got %v", err)
	}
	if msg := UserMessage(err); msg != "Cannot assign: member not in board" {
		t.Fatalf("expected not-in-board message; got %q", msg)
	}
	if _, ok := c.Get("t1"); ok {
		t.Fatalf("expected no reload after a refused assignment")
	}
}

func TestAssign_OtherFailuresUseGenericMessage(t *testing.T) {
	c, srv, ref := setup(t)
	srv.Fail(http.MethodPost, "/boards/b1/cards/c1/tasks/t1/assign", http.StatusInternalServerError)

	err := c.Assign(context.Background(), ref, "alice@example.com")
	if err == nil || errors.Is(err, ErrNotInBoard) {
		t.Fatalf("expected a non-membership error; got %v", err)
	}
	if msg := UserMessage(err); msg != "Failed to assign member" {
		t.Fatalf("expected generic message; got %q", msg)
	}
}

func TestAssign_EmptyMemberRejectedLocally(t *testing.T) {
	c, srv, ref := setup(t)
	if err := c.Assign(context.Background(), ref, "  "); !errors.Is(err, ErrEmptyMember) {
		t.Fatalf("expected ErrEmptyMember; got %v", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Fatalf("expected no requests; got %d", n)
	}
}

func TestUnassign_DeletesThenReloads(t *testing.T) {
	c, srv, ref := setup(t)
	if err := c.Unassign(context.Background(), ref, "bob@example.com"); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	got, _ := c.Get("t1")
	if len(got) != 0 {
		t.Fatalf("expected no assignees; got %v", got)
	}
	reqs := srv.Requests()
	if len(reqs) != 2 || reqs[0].Method != http.MethodDelete || reqs[1].Method != http.MethodGet {
		t.Fatalf("expected DELETE then GET; got %+v", reqs)
	}
}

func TestLoadCard_SequentialPerTask(t *testing.T) {
	c, srv, _ := setup(t)
	tasks := []model.Task{{ID: "t1"}, {ID: "t2"}}
	if err := c.LoadCard(context.Background(), "b1", "c1", tasks); err != nil {
		t.Fatalf("LoadCard: %v", err)
	}
	reqs := srv.Requests()
	if len(reqs) != 2 || reqs[0].Path != "/boards/b1/cards/c1/tasks/t1/assign" || reqs[1].Path != "/boards/b1/cards/c1/tasks/t2/assign" {
		t.Fatalf("expected one request per task in order; got %+v", reqs)
	}
	if got, ok := c.Get("t2"); !ok || len(got) != 0 {
		t.Fatalf("expected empty list cached for t2; got %v ok=%v", got, ok)
	}

	srv.Fail(http.MethodGet, "/boards/b1/cards/c1/tasks/t1/assign", http.StatusBadGateway)
	err := c.LoadCard(context.Background(), "b1", "c1", tasks)
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if got, _ := c.Get("t1"); !reflect.DeepEqual(got, []string{"bob@example.com"}) {
		t.Fatalf("expected t1 cache kept on failure; got %v", got)
	}
}
