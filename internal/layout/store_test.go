package layout

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kanban-cli/internal/model"
)

func card(id string, st model.Status) model.Card {
	return model.Card{ID: id, Name: "card " + id, Status: st}
}

func ids(col model.Column) []string {
	out := make([]string, 0, len(col.Cards))
	for _, c := range col.Cards {
		out = append(out, c.ID)
	}
	return out
}

func column(t *testing.T, snap Snapshot, st model.Status) model.Column {
	t.Helper()
	col, ok := snap.Column(st)
	if !ok {
		t.Fatalf("missing column %q", st)
	}
	return col
}

func TestReplaceFromCards_PartitionsInServerOrder(t *testing.T) {
	s := New()
	snap := s.ReplaceFromCards([]model.Card{
		card("a", model.StatusTodo),
		card("b", model.StatusDoing),
		card("c", model.StatusTodo),
		card("x", "archived"),
		card("d", model.StatusDone),
	})

	if got := ids(column(t, snap, model.StatusTodo)); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("expected todo [a c]; got %v", got)
	}
	if got := ids(column(t, snap, model.StatusDoing)); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected doing [b]; got %v", got)
	}
	if snap.Dropped != 1 {
		t.Fatalf("expected 1 dropped card; got %d", snap.Dropped)
	}
	if len(snap.Columns) != 3 || snap.Columns[0].Name != "To do" || snap.Columns[2].ID != model.StatusDone {
		t.Fatalf("expected fixed todo/doing/done columns; got %+v", snap.Columns)
	}
	if err := CheckInvariants(snap); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestReplaceFromCards_Idempotent(t *testing.T) {
	cards := []model.Card{card("a", model.StatusTodo), card("b", model.StatusDone)}
	s := New()
	first := s.ReplaceFromCards(cards)
	second := s.ReplaceFromCards(cards)
	if !reflect.DeepEqual(first.Columns, second.Columns) {
		t.Fatalf("expected identical layouts; got %+v vs %+v", first.Columns, second.Columns)
	}
	if second.Version <= first.Version {
		t.Fatalf("expected version to advance; got %d then %d", first.Version, second.Version)
	}
}

func TestMoveCard_AcrossColumns(t *testing.T) {
	s := New()
	s.ReplaceFromCards([]model.Card{
		card("a", model.StatusTodo),
		card("b", model.StatusTodo),
		card("c", model.StatusTodo),
		card("x", model.StatusDoing),
		card("y", model.StatusDoing),
	})

	moved, ok := s.MoveCard("b", model.StatusTodo, 1, model.StatusDoing, 1)
	if !ok {
		t.Fatalf("expected move to apply")
	}
	if moved.Status != model.StatusDoing {
		t.Fatalf("expected moved card status doing; got %q", moved.Status)
	}
	snap := s.Snapshot()
	if got := ids(column(t, snap, model.StatusTodo)); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("expected todo [a c]; got %v", got)
	}
	if got := ids(column(t, snap, model.StatusDoing)); !reflect.DeepEqual(got, []string{"x", "b", "y"}) {
		t.Fatalf("expected doing [x b y]; got %v", got)
	}
	if err := CheckInvariants(snap); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	// Exactly one card changed status.
	if st, _ := s.StatusOf("a"); st != model.StatusTodo {
		t.Fatalf("expected a to stay todo; got %q", st)
	}
}

func TestMoveCard_WithinColumnKeepsStatus(t *testing.T) {
	s := New()
	s.ReplaceFromCards([]model.Card{card("a", model.StatusTodo), card("b", model.StatusTodo), card("c", model.StatusTodo)})

	moved, ok := s.MoveCard("a", model.StatusTodo, 0, model.StatusTodo, 2)
	if !ok || moved.Status != model.StatusTodo {
		t.Fatalf("expected in-column move with unchanged status; got %+v ok=%v", moved, ok)
	}
	if got := ids(column(t, s.Snapshot(), model.StatusTodo)); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Fatalf("expected [b c a]; got %v", got)
	}
}

func TestMoveCard_ClampsDestinationIndex(t *testing.T) {
	s := New()
	s.ReplaceFromCards([]model.Card{card("a", model.StatusTodo), card("x", model.StatusDone)})

	if _, ok := s.MoveCard("a", model.StatusTodo, 0, model.StatusDone, 99); !ok {
		t.Fatalf("expected move to apply")
	}
	if got := ids(column(t, s.Snapshot(), model.StatusDone)); !reflect.DeepEqual(got, []string{"x", "a"}) {
		t.Fatalf("expected clamp to end; got %v", got)
	}
	if _, ok := s.MoveCard("a", model.StatusDone, 1, model.StatusTodo, -4); !ok {
		t.Fatalf("expected move back to apply")
	}
	if got := ids(column(t, s.Snapshot(), model.StatusTodo)); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected clamp to start; got %v", got)
	}
}

func TestMoveCard_StaleIndexIsNoop(t *testing.T) {
	s := New()
	s.ReplaceFromCards([]model.Card{card("a", model.StatusTodo), card("b", model.StatusTodo)})
	before := s.Snapshot()

	if _, ok := s.MoveCard("a", model.StatusTodo, 1, model.StatusDone, 0); ok {
		t.Fatalf("expected id mismatch at index to be a no-op")
	}
	if _, ok := s.MoveCard("a", model.StatusTodo, 5, model.StatusDone, 0); ok {
		t.Fatalf("expected out-of-range index to be a no-op")
	}
	if _, ok := s.MoveCard("a", model.StatusTodo, 0, "archived", 0); ok {
		t.Fatalf("expected unknown destination to be a no-op")
	}
	after := s.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("expected layout untouched; got %+v", after)
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := New()
	s.ReplaceFromCards([]model.Card{{ID: "a", Status: model.StatusTodo, Tasks: []model.Task{{ID: "t1"}}}})
	snap := s.Snapshot()
	snap.Columns[0].Cards[0].Name = "mutated"
	snap.Columns[0].Cards[0].Tasks[0].ID = "mutated"

	c, _ := s.Card("a")
	if c.Name == "mutated" || c.Tasks[0].ID == "mutated" {
		t.Fatalf("expected snapshot mutation not to leak into the store; got %+v", c)
	}
}

func TestMoveTask_ReturnsCardsToReload(t *testing.T) {
	s := New()
	if got := s.MoveTask("t1", "c1", "c2"); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Fatalf("expected [c1 c2]; got %v", got)
	}
	if got := s.MoveTask("t1", "c1", "c1"); !reflect.DeepEqual(got, []string{"c1"}) {
		t.Fatalf("expected [c1]; got %v", got)
	}
	if v := s.Version(); v != 0 {
		t.Fatalf("expected task moves not to touch the layout; got version %d", v)
	}
}

func TestCheckInvariants_Violations(t *testing.T) {
	snap := Snapshot{Columns: EmptyColumns()}
	snap.Columns[0].Cards = []model.Card{card("a", model.StatusDoing)}
	if err := CheckInvariants(snap); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch; got %v", err)
	}

	snap = Snapshot{Columns: EmptyColumns()}
	snap.Columns[0].Cards = []model.Card{card("a", model.StatusTodo)}
	snap.Columns[1].Cards = []model.Card{card("a", model.StatusDoing)}
	if err := CheckInvariants(snap); !errors.Is(err, ErrDuplicateCard) {
		t.Fatalf("expected ErrDuplicateCard; got %v", err)
	}

	snap = Snapshot{Columns: []model.Column{{ID: "backlog"}}}
	if err := CheckInvariants(snap); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus; got %v", err)
	}
}

func TestStore_ConcurrentMovesAndReplacesKeepInvariants(t *testing.T) {
	cards := []model.Card{
		card("a", model.StatusTodo), card("b", model.StatusTodo),
		card("c", model.StatusDoing), card("d", model.StatusDone),
	}
	s := New()
	s.ReplaceFromCards(cards)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				st, idx, ok := s.Locate("a")
				if ok {
					s.MoveCard("a", st, idx, model.Statuses[(i+j)%3], j%3)
				}
				if j%50 == 0 {
					s.ReplaceFromCards(cards)
				}
			}
		}(i)
	}
	wg.Wait()
	if err := CheckInvariants(s.Snapshot()); err != nil {
		t.Fatalf("invariants after concurrent use: %v", err)
	}
}

type fakeTasks struct {
	calls atomic.Int32
	delay time.Duration
	tasks map[string][]model.Task
	err   error
}

func (f *fakeTasks) ListTasks(_ context.Context, _ string, cardID string) ([]model.Task, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks[cardID], nil
}

func TestTaskLists_LoadGetForget(t *testing.T) {
	f := &fakeTasks{tasks: map[string][]model.Task{"c1": {{ID: "t1"}, {ID: "t2"}}}}
	tl := NewTaskLists("b1", f)

	if _, ok := tl.Get("c1"); ok {
		t.Fatalf("expected no list before load")
	}
	got, err := tl.Load(context.Background(), "c1")
	if err != nil || len(got) != 2 {
		t.Fatalf("expected 2 tasks; got %v err=%v", got, err)
	}
	if cid, _, ok := tl.FindTask("t2"); !ok || cid != "c1" {
		t.Fatalf("expected t2 in c1; got %q ok=%v", cid, ok)
	}

	f.err = errors.New("boom")
	if _, err := tl.Load(context.Background(), "c1"); err == nil {
		t.Fatalf("expected load error")
	}
	if cached, ok := tl.Get("c1"); !ok || len(cached) != 2 {
		t.Fatalf("expected previous list kept on error; got %v", cached)
	}

	tl.Forget("c1")
	if len(tl.Loaded()) != 0 {
		t.Fatalf("expected no loaded lists after forget; got %v", tl.Loaded())
	}
}

func TestTaskLists_CoalescesConcurrentLoads(t *testing.T) {
	f := &fakeTasks{delay: 50 * time.Millisecond, tasks: map[string][]model.Task{"c1": {{ID: "t1"}}}}
	tl := NewTaskLists("b1", f)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tl.Load(context.Background(), "c1")
		}()
	}
	wg.Wait()
	if n := f.calls.Load(); n >= 5 {
		t.Fatalf("expected concurrent loads to share fetches; got %d calls", n)
	}
}
