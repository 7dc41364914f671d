package model

import "slices"

// Status is the fixed column a card lives in.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// Statuses lists every status in column order.
var Statuses = []Status{StatusTodo, StatusDoing, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Label is the column display name.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusDoing:
		return "Doing"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

type Board struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Tasks       []Task `json:"tasks,omitempty"`
}

type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Set by some server responses; the owning card is authoritative.
	Status Status `json:"status,omitempty"`
	CardID string `json:"cardId,omitempty"`
}

type Assignment struct {
	MemberID string `json:"memberId"`
}

type Column struct {
	ID    Status `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// TaskRef addresses a task through its owning card.
type TaskRef struct {
	BoardID string `json:"boardId"`
	CardID  string `json:"cardId"`
	TaskID  string `json:"taskId"`
}

// Clone returns a deep copy of c.
func (c Card) Clone() Card {
	out := c
	out.Tasks = slices.Clone(c.Tasks)
	return out
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	out := b
	out.Members = slices.Clone(b.Members)
	return out
}
