// Package drag turns drop results into layout mutations and persistence calls.
//
// OnDragEnd applies the optimistic change to the layout store synchronously and
// returns at most one Op to run off the UI loop. Run executes the Op and sends
// a failure to the report sink exactly once. A failed persist leaves the
// optimistic state in place until the next poll replaces it.
package drag

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"

	"kanban-cli/internal/layout"
	"kanban-cli/internal/model"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/report"
)

// Location is a position inside a drop target.
type Location struct {
	Target DropTarget
	Index  int
}

// DropResult is what the UI reports when a drag ends. Destination is nil when
// the item was dropped outside any target.
type DropResult struct {
	Source      Location
	Destination *Location
	Draggable   Draggable
}

// Result is the outcome of one Op.
type Result struct {
	Op     string
	CardID string
	TaskID string

	// Refresh asks observers to bump the refresh tick; Reload names the cards
	// whose task lists changed.
	Refresh bool
	Reload  []string

	Err error
}

// Op is one pending persistence request.
type Op func(ctx context.Context) Result

const (
	OpCardMove    = "card.move"
	OpTaskMove    = "task.move"
	OpTaskReorder = "task.reorder"
)

type Persister interface {
	UpdateCard(ctx context.Context, boardID, cardID string, in remote.CardInput) error
	UpdateTask(ctx context.Context, ref model.TaskRef, mv remote.TaskMove) error
}

type Config struct {
	BoardID string
	Store   *layout.Store
	Remote  Persister
	Sink    report.Sink
	Logger  log.FieldLogger
}

type Coordinator struct {
	boardID string
	store   *layout.Store
	remote  Persister
	sink    report.Sink
	log     log.FieldLogger
}

func New(cfg Config) *Coordinator {
	sink := cfg.Sink
	if sink == nil {
		sink = report.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		l := log.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Coordinator{
		boardID: cfg.BoardID,
		store:   cfg.Store,
		remote:  cfg.Remote,
		sink:    sink,
		log:     logger.WithField("board", cfg.BoardID),
	}
}

// OnDragEnd applies r to the layout and returns the persistence Op, or nil
// when there is nothing to persist.
func (c *Coordinator) OnDragEnd(r DropResult) Op {
	if r.Destination == nil {
		return nil
	}
	switch r.Draggable.Kind {
	case KindCard:
		return c.dropCard(r)
	case KindTask:
		return c.dropTask(r)
	}
	return nil
}

func (c *Coordinator) dropCard(r DropResult) Op {
	src, dst := r.Source, *r.Destination
	if src.Target.Kind != KindColumn || dst.Target.Kind != KindColumn {
		c.log.WithField("card", r.Draggable.ID).Debug("card dropped outside a column")
		return nil
	}
	moved, ok := c.store.MoveCard(r.Draggable.ID, src.Target.Status(), src.Index, dst.Target.Status(), dst.Index)
	if !ok {
		c.log.WithFields(log.Fields{
			"card":  r.Draggable.ID,
			"from":  src.Target.ID,
			"index": src.Index,
		}).Debug("stale drag source; layout changed under the gesture")
		return nil
	}
	if src.Target.ID == dst.Target.ID {
		return nil
	}

	boardID := c.boardID
	in := remote.CardInput{Name: moved.Name, Description: moved.Description, Status: moved.Status}
	return func(ctx context.Context) Result {
		err := c.remote.UpdateCard(ctx, boardID, moved.ID, in)
		return Result{Op: OpCardMove, CardID: moved.ID, Err: err}
	}
}

func (c *Coordinator) dropTask(r DropResult) Op {
	src, dst := r.Source.Target, r.Destination.Target
	if src.Kind != KindTaskList || dst.Kind != KindTaskList {
		c.log.WithField("task", r.Draggable.ID).Debug("task dropped outside a task list")
		return nil
	}
	taskID := r.Draggable.ID
	reload := c.store.MoveTask(taskID, src.ID, dst.ID)

	if src.ID == dst.ID {
		// Order inside a card is not persisted; observers just refetch.
		return func(context.Context) Result {
			return Result{Op: OpTaskReorder, CardID: src.ID, TaskID: taskID, Refresh: true, Reload: reload}
		}
	}

	status, ok := c.store.StatusOf(dst.ID)
	if !ok {
		status = model.StatusTodo
	}
	ref := model.TaskRef{BoardID: c.boardID, CardID: src.ID, TaskID: taskID}
	mv := remote.TaskMove{Status: status, CardID: dst.ID}
	return func(ctx context.Context) Result {
		if err := c.remote.UpdateTask(ctx, ref, mv); err != nil {
			return Result{Op: OpTaskMove, CardID: src.ID, TaskID: taskID, Err: err}
		}
		return Result{Op: OpTaskMove, CardID: src.ID, TaskID: taskID, Refresh: true, Reload: reload}
	}
}

// Run executes op and reports a failure to the sink. A nil op yields a zero
// Result.
func (c *Coordinator) Run(ctx context.Context, op Op) Result {
	if op == nil {
		return Result{}
	}
	res := op(ctx)
	if res.Err != nil {
		c.sink.Report(ctx, report.Failure{
			Op:      res.Op,
			BoardID: c.boardID,
			CardID:  res.CardID,
			TaskID:  res.TaskID,
			Err:     res.Err,
		})
	}
	return res
}
