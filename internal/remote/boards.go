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

type BoardInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func boardPath(boardID string) string {
	return "/boards/" + url.PathEscape(boardID)
}

func boardAttrs(boardID string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("board.id", boardID)}
}

func (c *Client) ListBoards(ctx context.Context) ([]model.Board, error) {
	var out []model.Board
	if err := c.do(ctx, call{op: "ListBoards", method: http.MethodGet, path: "/boards", out: &out}); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Members == nil {
			out[i].Members = []string{}
		}
	}
	return out, nil
}

// GetBoard fetches one board. A missing members field decodes as empty.
func (c *Client) GetBoard(ctx context.Context, boardID string) (model.Board, error) {
	var out model.Board
	err := c.do(ctx, call{
		op: "GetBoard", method: http.MethodGet, path: boardPath(boardID),
		attrs: boardAttrs(boardID), out: &out,
	})
	if err != nil {
		return model.Board{}, err
	}
	if out.ID == "" {
		out.ID = boardID
	}
	if out.Members == nil {
		out.Members = []string{}
	}
	return out, nil
}

func (c *Client) CreateBoard(ctx context.Context, in BoardInput) (model.Board, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Board{}, errors.New("board name is required")
	}
	var out model.Board
	if err := c.do(ctx, call{op: "CreateBoard", method: http.MethodPost, path: "/boards", body: in, out: &out}); err != nil {
		return model.Board{}, err
	}
	if out.Name == "" {
		out.Name = in.Name
		out.Description = in.Description
	}
	if out.Members == nil {
		out.Members = []string{}
	}
	return out, nil
}

func (c *Client) UpdateBoard(ctx context.Context, boardID string, in BoardInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return c.do(ctx, call{
		op: "UpdateBoard", method: http.MethodPut, path: boardPath(boardID),
		attrs: boardAttrs(boardID), body: in,
	})
}

func (c *Client) DeleteBoard(ctx context.Context, boardID string) error {
	return c.do(ctx, call{
		op: "DeleteBoard", method: http.MethodDelete, path: boardPath(boardID),
		attrs: boardAttrs(boardID),
	})
}

type messageResponse struct {
	Message string `json:"message"`
}

// Invite asks the service to invite email to the board.
func (c *Client) Invite(ctx context.Context, boardID, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", errors.New("email is required")
	}
	var out messageResponse
	err := c.do(ctx, call{
		op: "Invite", method: http.MethodPost, path: boardPath(boardID) + "/invite",
		attrs: boardAttrs(boardID), body: map[string]string{"email": strings.TrimSpace(email)}, out: &out,
	})
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// RespondInvite accepts or declines a pending invitation.
func (c *Client) RespondInvite(ctx context.Context, boardID, email, response string) (string, error) {
	response = strings.TrimSpace(response)
	if strings.TrimSpace(email) == "" || response == "" {
		return "", errors.New("missing required information")
	}
	var out messageResponse
	err := c.do(ctx, call{
		op: "RespondInvite", method: http.MethodPost, path: boardPath(boardID) + "/invite/respond",
		attrs: boardAttrs(boardID),
		body:  map[string]string{"email": strings.TrimSpace(email), "response": response},
		out:   &out,
	})
	if err != nil {
		return "", err
	}
	return out.Message, nil
}
