package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"kanban-cli/internal/model"
)

type TaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      model.Status `json:"status,omitempty"`
}

// TaskMove re-parents a task. Status is the destination card's status.
type TaskMove struct {
	Status model.Status `json:"status"`
	CardID string       `json:"cardId"`
}

func taskPath(ref model.TaskRef) string {
	return cardPath(ref.BoardID, ref.CardID) + "/tasks/" + url.PathEscape(ref.TaskID)
}

func taskAttrs(ref model.TaskRef) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("board.id", ref.BoardID),
		attribute.String("card.id", ref.CardID),
		attribute.String("task.id", ref.TaskID),
	}
}

func (c *Client) ListTasks(ctx context.Context, boardID, cardID string) ([]model.Task, error) {
	var out []model.Task
	err := c.do(ctx, call{
		op: "ListTasks", method: http.MethodGet, path: cardPath(boardID, cardID) + "/tasks",
		attrs: cardAttrs(boardID, cardID), out: &out,
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, boardID, cardID string, in TaskInput) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, errors.New("task title is required")
	}
	var out model.Task
	err := c.do(ctx, call{
		op: "CreateTask", method: http.MethodPost, path: cardPath(boardID, cardID) + "/tasks",
		attrs: cardAttrs(boardID, cardID), body: in, out: &out,
	})
	if err != nil {
		return model.Task{}, err
	}
	if out.Title == "" {
		out.Title = in.Title
		out.Description = in.Description
	}
	return out, nil
}

// UpdateTask issues the task move. ref.CardID is the source card; the body
// carries the destination.
func (c *Client) UpdateTask(ctx context.Context, ref model.TaskRef, mv TaskMove) error {
	return c.do(ctx, call{
		op: "UpdateTask", method: http.MethodPut, path: taskPath(ref),
		attrs: append(taskAttrs(ref), attribute.String("card.dest_id", mv.CardID)), body: mv,
	})
}

func (c *Client) DeleteTask(ctx context.Context, ref model.TaskRef) error {
	return c.do(ctx, call{
		op: "DeleteTask", method: http.MethodDelete, path: taskPath(ref),
		attrs: taskAttrs(ref),
	})
}

func (c *Client) ListAssignees(ctx context.Context, ref model.TaskRef) ([]model.Assignment, error) {
	var out []model.Assignment
	err := c.do(ctx, call{
		op: "ListAssignees", method: http.MethodGet, path: taskPath(ref) + "/assign",
		attrs: taskAttrs(ref), out: &out,
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Assignment{}
	}
	return out, nil
}

func (c *Client) AssignMember(ctx context.Context, ref model.TaskRef, memberID string) error {
	return c.do(ctx, call{
		op: "AssignMember", method: http.MethodPost, path: taskPath(ref) + "/assign",
		attrs: append(taskAttrs(ref), attribute.String("member.id", memberID)),
		body:  model.Assignment{MemberID: memberID},
	})
}

func (c *Client) UnassignMember(ctx context.Context, ref model.TaskRef, memberID string) error {
	return c.do(ctx, call{
		op: "UnassignMember", method: http.MethodDelete, path: taskPath(ref) + "/assign/" + url.PathEscape(memberID),
		attrs: append(taskAttrs(ref), attribute.String("member.id", memberID)),
	})
}
