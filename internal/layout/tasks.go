package layout

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"kanban-cli/internal/model"
)

type TaskFetcher interface {
	ListTasks(ctx context.Context, boardID, cardID string) ([]model.Task, error)
}

// TaskLists caches each card's task list. Lists are loaded lazily and replaced
// wholesale on every load; concurrent loads of the same card share one fetch.
type TaskLists struct {
	boardID string
	fetch   TaskFetcher

	sf    singleflight.Group
	mu    sync.RWMutex
	lists map[string][]model.Task
}

func NewTaskLists(boardID string, fetch TaskFetcher) *TaskLists {
	return &TaskLists{boardID: boardID, fetch: fetch, lists: map[string][]model.Task{}}
}

// Load fetches cardID's tasks and replaces the cached list. On error the
// previous list is kept.
func (t *TaskLists) Load(ctx context.Context, cardID string) ([]model.Task, error) {
	v, err, _ := t.sf.Do(cardID, func() (any, error) {
		tasks, err := t.fetch.ListTasks(ctx, t.boardID, cardID)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.lists[cardID] = tasks
		t.mu.Unlock()
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]model.Task(nil), v.([]model.Task)...), nil
}

func (t *TaskLists) Get(cardID string) ([]model.Task, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tasks, ok := t.lists[cardID]
	if !ok {
		return nil, false
	}
	return append([]model.Task(nil), tasks...), true
}

func (t *TaskLists) Forget(cardID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lists, cardID)
}

// Loaded returns the ids of cards with a cached list, sorted.
func (t *TaskLists) Loaded() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.lists))
	for id := range t.lists {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FindTask returns the cached card holding taskID.
func (t *TaskLists) FindTask(taskID string) (cardID string, task model.Task, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for cid, tasks := range t.lists {
		for _, tk := range tasks {
			if tk.ID == taskID {
				return cid, tk, true
			}
		}
	}
	return "", model.Task{}, false
}
