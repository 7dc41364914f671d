// Package assign caches the members assigned to each task.
package assign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"kanban-cli/internal/model"
	"kanban-cli/internal/remote"
)

var (
	// ErrNotInBoard means the service refused the assignment because the
	// member does not belong to the board.
	ErrNotInBoard  = errors.New("member not in board")
	ErrEmptyMember = errors.New("member id is required")
)

type Client interface {
	ListAssignees(ctx context.Context, ref model.TaskRef) ([]model.Assignment, error)
	AssignMember(ctx context.Context, ref model.TaskRef, memberID string) error
	UnassignMember(ctx context.Context, ref model.TaskRef, memberID string) error
}

type Cache struct {
	client Client

	mu     sync.RWMutex
	byTask map[string][]string
}

func New(client Client) *Cache {
	return &Cache{client: client, byTask: map[string][]string{}}
}

// Load fetches ref's assignees and replaces its cache entry.
func (c *Cache) Load(ctx context.Context, ref model.TaskRef) ([]string, error) {
	as, err := c.client.ListAssignees(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load assignees of %s: %w", ref.TaskID, err)
	}
	members := make([]string, 0, len(as))
	for _, a := range as {
		members = append(members, a.MemberID)
	}
	c.mu.Lock()
	c.byTask[ref.TaskID] = members
	c.mu.Unlock()
	return append([]string(nil), members...), nil
}

func (c *Cache) Get(taskID string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byTask[taskID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), m...), true
}

// Assign adds memberID to the task and reloads it. A 403 from the service is
// returned as ErrNotInBoard.
func (c *Cache) Assign(ctx context.Context, ref model.TaskRef, memberID string) error {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ErrEmptyMember
	}
	if err := c.client.AssignMember(ctx, ref, memberID); err != nil {
		if errors.Is(err, remote.ErrForbidden) {
			return fmt.Errorf("assign %s: %w: %w", memberID, ErrNotInBoard, err)
		}
		return fmt.Errorf("assign %s: %w", memberID, err)
	}
	_, err := c.Load(ctx, ref)
	return err
}

// Unassign removes memberID from the task and reloads it.
func (c *Cache) Unassign(ctx context.Context, ref model.TaskRef, memberID string) error {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ErrEmptyMember
	}
	if err := c.client.UnassignMember(ctx, ref, memberID); err != nil {
		return fmt.Errorf("unassign %s: %w", memberID, err)
	}
	_, err := c.Load(ctx, ref)
	return err
}

// LoadCard loads every task's assignees one request at a time. A failing task
// does not stop the rest; all errors are joined.
func (c *Cache) LoadCard(ctx context.Context, boardID, cardID string, tasks []model.Task) error {
	var errs []error
	for _, t := range tasks {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := c.Load(ctx, model.TaskRef{BoardID: boardID, CardID: cardID, TaskID: t.ID}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UserMessage is the one-line outcome shown after an assign attempt.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return "Member assigned"
	case errors.Is(err, ErrEmptyMember):
		return "Member id is required"
	case errors.Is(err, ErrNotInBoard):
		return "Cannot assign: member not in board"
	case remote.IsAuth(err):
		return "Session expired; log in again"
	default:
		return "Failed to assign member"
	}
}
