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

// CardInput is the body of card create and update.
type CardInput struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      model.Status `json:"status"`
}

// ErrNoCardID is returned when a create succeeds without an id in the response.
var ErrNoCardID = errors.New("could not create card")

func cardPath(boardID, cardID string) string {
	return boardPath(boardID) + "/cards/" + url.PathEscape(cardID)
}

func cardAttrs(boardID, cardID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("board.id", boardID),
		attribute.String("card.id", cardID),
	}
}

// ListCards returns the board's cards in server order.
func (c *Client) ListCards(ctx context.Context, boardID string) ([]model.Card, error) {
	var out []model.Card
	err := c.do(ctx, call{
		op: "ListCards", method: http.MethodGet, path: boardPath(boardID) + "/cards",
		attrs: boardAttrs(boardID), out: &out,
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Card{}
	}
	return out, nil
}

func (c *Client) CreateCard(ctx context.Context, boardID string, in CardInput) (model.Card, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Card{}, errors.New("card name is required")
	}
	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	var out model.Card
	err := c.do(ctx, call{
		op: "CreateCard", method: http.MethodPost, path: boardPath(boardID) + "/cards",
		attrs: boardAttrs(boardID), body: in, out: &out, wantCreated: true,
	})
	if err != nil {
		return model.Card{}, err
	}
	if out.ID == "" {
		return model.Card{}, ErrNoCardID
	}
	if out.Status == "" {
		out.Status = in.Status
	}
	return out, nil
}

// UpdateCard sends the full editable card state. The drag coordinator uses it
// to persist a column change.
func (c *Client) UpdateCard(ctx context.Context, boardID, cardID string, in CardInput) error {
	return c.do(ctx, call{
		op: "UpdateCard", method: http.MethodPut, path: cardPath(boardID, cardID),
		attrs: cardAttrs(boardID, cardID), body: in,
	})
}

func (c *Client) DeleteCard(ctx context.Context, boardID, cardID string) error {
	return c.do(ctx, call{
		op: "DeleteCard", method: http.MethodDelete, path: cardPath(boardID, cardID),
		attrs: cardAttrs(boardID, cardID),
	})
}
