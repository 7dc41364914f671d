package statusutil

import (
	"fmt"
	"strings"

	"kanban-cli/internal/model"
)

// Parse normalizes user input ("TODO", " doing ") to a column status.
func Parse(s string) (model.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to do", "to-do":
		return model.StatusTodo, nil
	case "doing", "in progress", "in-progress":
		return model.StatusDoing, nil
	case "done":
		return model.StatusDone, nil
	case "":
		return "", fmt.Errorf("invalid status: empty")
	default:
		return "", fmt.Errorf("invalid status: %q (want todo|doing|done)", strings.TrimSpace(s))
	}
}

// ColumnIndex returns the position of s in model.Statuses, or -1.
func ColumnIndex(s model.Status) int {
	for i, st := range model.Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

func IsEndState(s model.Status) bool {
	return s == model.StatusDone
}

// Next returns the status of the column right of s, clamped at the last column.
func Next(s model.Status) model.Status {
	i := ColumnIndex(s)
	if i < 0 || i+1 >= len(model.Statuses) {
		return s
	}
	return model.Statuses[i+1]
}

// Prev returns the status of the column left of s, clamped at the first column.
func Prev(s model.Status) model.Status {
	i := ColumnIndex(s)
	if i <= 0 {
		return s
	}
	return model.Statuses[i-1]
}
