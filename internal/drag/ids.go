package drag

import (
	"fmt"
	"strings"

	"kanban-cli/internal/model"
)

// Key prefixes used by drag regions. Decoding happens only in this file.
const (
	taskListPrefix = "tasks-"
	taskPrefix     = "task-"
)

type TargetKind int

const (
	KindColumn TargetKind = iota
	KindTaskList
)

func (k TargetKind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindTaskList:
		return "task-list"
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

// DropTarget is where something can be dropped: a status column or a card's
// task list.
type DropTarget struct {
	Kind TargetKind
	ID   string
}

func Column(st model.Status) DropTarget { return DropTarget{Kind: KindColumn, ID: string(st)} }
func TaskList(cardID string) DropTarget { return DropTarget{Kind: KindTaskList, ID: cardID} }

// Status returns the column status; only meaningful for KindColumn.
func (t DropTarget) Status() model.Status { return model.Status(t.ID) }

func (t DropTarget) Key() string {
	if t.Kind == KindTaskList {
		return taskListPrefix + t.ID
	}
	return t.ID
}

// ParseDroppableKey decodes a droppable region key: "tasks-<cardId>" for task
// lists, a status id for columns.
func ParseDroppableKey(key string) (DropTarget, error) {
	key = strings.TrimSpace(key)
	if rest, ok := strings.CutPrefix(key, taskListPrefix); ok {
		if rest == "" {
			return DropTarget{}, fmt.Errorf("droppable key %q: empty card id", key)
		}
		return TaskList(rest), nil
	}
	if st := model.Status(key); st.Valid() {
		return Column(st), nil
	}
	return DropTarget{}, fmt.Errorf("droppable key %q: not a column or task list", key)
}

type ItemKind int

const (
	KindCard ItemKind = iota
	KindTask
)

func (k ItemKind) String() string {
	switch k {
	case KindCard:
		return "card"
	case KindTask:
		return "task"
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

// Draggable is the dragged item.
type Draggable struct {
	Kind ItemKind
	ID   string
}

func Card(id string) Draggable { return Draggable{Kind: KindCard, ID: id} }
func Task(id string) Draggable { return Draggable{Kind: KindTask, ID: id} }

func (d Draggable) Key() string {
	if d.Kind == KindTask {
		return taskPrefix + d.ID
	}
	return d.ID
}

// ParseDraggableKey decodes "task-<taskId>" as a task and anything else as a
// card id.
func ParseDraggableKey(key string) (Draggable, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Draggable{}, fmt.Errorf("draggable key: empty")
	}
	if rest, ok := strings.CutPrefix(key, taskPrefix); ok {
		if rest == "" {
			return Draggable{}, fmt.Errorf("draggable key %q: empty task id", key)
		}
		return Task(rest), nil
	}
	return Card(key), nil
}
