// Package session wires one open board: its scope, layout, poller, drag
// coordinator, task lists and assignment cache.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"kanban-cli/internal/assign"
	"kanban-cli/internal/drag"
	"kanban-cli/internal/layout"
	"kanban-cli/internal/model"
	"kanban-cli/internal/poller"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/report"
)

// Remote is everything a board session needs from the board service.
type Remote interface {
	GetBoard(ctx context.Context, boardID string) (model.Board, error)
	ListCards(ctx context.Context, boardID string) ([]model.Card, error)
	drag.Persister
	layout.TaskFetcher
	assign.Client
}

type Options struct {
	PollInterval time.Duration
	Logger       log.FieldLogger
}

type Session struct {
	BoardID string

	Layout      *layout.Store
	Poller      *poller.Poller
	Coordinator *drag.Coordinator
	Tasks       *layout.TaskLists
	Assignments *assign.Cache

	scope  *Scope
	client Remote
	sink   report.Sink
	log    log.FieldLogger

	mu    sync.RWMutex
	board model.Board

	startOnce sync.Once
	wg        sync.WaitGroup
}

// Open mounts boardID. It loads the board and the first card list; when either
// fails the failure goes to the sink and the session starts from three empty
// columns. Only an authorization failure is returned, since nothing after it
// can succeed.
func Open(ctx context.Context, client Remote, boardID string, sink report.Sink, opts Options) (*Session, error) {
	if sink == nil {
		sink = report.Discard
	}
	logger := opts.Logger
	if logger == nil {
		l := log.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	scope := NewScope(ctx)
	store := layout.New()
	s := &Session{
		BoardID:     boardID,
		Layout:      store,
		Tasks:       layout.NewTaskLists(boardID, client),
		Assignments: assign.New(client),
		scope:       scope,
		client:      client,
		sink:        sink,
		log:         logger.WithField("board", boardID),
		board:       model.Board{ID: boardID, Members: []string{}},
	}
	s.Poller = poller.New(func(ctx context.Context) ([]model.Card, error) {
		return client.ListCards(ctx, boardID)
	}, store, sink, poller.Options{BoardID: boardID, Interval: opts.PollInterval})
	s.Coordinator = drag.New(drag.Config{
		BoardID: boardID,
		Store:   store,
		Remote:  client,
		Sink:    sink,
		Logger:  s.log,
	})

	if err := s.RefreshBoard(scope.Context()); err != nil && remote.IsAuth(err) {
		scope.Close()
		return nil, err
	}
	if _, err := s.Poller.PollOnce(scope.Context()); err != nil {
		if remote.IsAuth(err) {
			scope.Close()
			return nil, err
		}
		store.Reset()
	}
	// The initial load is Open's result; Events starts with the first poll.
	for len(s.Poller.Events()) > 0 {
		<-s.Poller.Events()
	}
	return s, nil
}

// Start runs the poller until Close. Calling it twice is harmless.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := s.Poller.Run(s.scope.Context())
			s.log.WithError(err).Debug("poller stopped")
		}()
	})
}

// Close ends the scope and waits for the poller to stop. Late results are
// discarded from here on.
func (s *Session) Close() {
	s.scope.Close()
	s.wg.Wait()
}

func (s *Session) Scope() *Scope { return s.scope }

func (s *Session) Context() context.Context { return s.scope.Context() }

func (s *Session) Tick() *poller.Tick { return s.Poller.Tick() }

func (s *Session) Board() model.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Clone()
}

// RefreshBoard reloads board details (name, members). On failure the previous
// details are kept.
func (s *Session) RefreshBoard(ctx context.Context) error {
	b, err := s.client.GetBoard(ctx, s.BoardID)
	if err != nil {
		s.sink.Report(ctx, report.Failure{Op: "board.load", BoardID: s.BoardID, Err: err})
		return err
	}
	s.scope.Deliver(func() {
		s.mu.Lock()
		s.board = b
		s.mu.Unlock()
	})
	return nil
}

// DragEnd applies r and runs its persistence synchronously. It reports false
// when the drop produced nothing to persist.
func (s *Session) DragEnd(r drag.DropResult) (drag.Result, bool) {
	op := s.Coordinator.OnDragEnd(r)
	if op == nil {
		return drag.Result{}, false
	}
	res := s.Coordinator.Run(s.scope.Context(), op)
	s.Apply(res)
	return res, true
}

// Apply folds a finished drag result into the session: a result asking for a
// refresh bumps the tick. It reports false when the scope has ended.
func (s *Session) Apply(res drag.Result) bool {
	return s.scope.Deliver(func() {
		if res.Refresh {
			s.Poller.Tick().Bump()
		}
	})
}

// ReloadTasks reloads the task lists and assignees of cardIDs, or of every
// loaded card when none are given.
func (s *Session) ReloadTasks(ctx context.Context, cardIDs ...string) error {
	if len(cardIDs) == 0 {
		cardIDs = s.Tasks.Loaded()
	}
	var errs []error
	for _, id := range cardIDs {
		tasks, err := s.Tasks.Load(ctx, id)
		if err != nil {
			s.sink.Report(ctx, report.Failure{Op: "tasks.load", BoardID: s.BoardID, CardID: id, Err: err})
			errs = append(errs, err)
			continue
		}
		if err := s.Assignments.LoadCard(ctx, s.BoardID, id, tasks); err != nil {
			s.sink.Report(ctx, report.Failure{Op: "assignees.load", BoardID: s.BoardID, CardID: id, Err: err})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TaskRef builds the reference for a task in cardID on this board.
func (s *Session) TaskRef(cardID, taskID string) model.TaskRef {
	return model.TaskRef{BoardID: s.BoardID, CardID: cardID, TaskID: taskID}
}
