// Package boardtest runs an in-memory board service for tests.
//
// It implements the same routes the remote client calls, records every request,
// and lets a test force a status code on a route.
package boardtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"kanban-cli/internal/model"
	"kanban-cli/internal/perm"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

type Server struct {
	*httptest.Server

	// Token, when set, must be presented as a bearer token or the call gets 401.
	Token string

	mu        sync.Mutex
	boards    []model.Board
	cards     map[string][]model.Card
	tasks     map[string][]model.Task
	assignees map[string][]string
	requests  []Request
	failures  map[string]int
}

// New starts a server; it is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		cards:     map[string][]model.Card{},
		tasks:     map[string][]model.Task{},
		assignees: map[string][]string{},
		failures:  map[string]int{},
	}
	s.Server = httptest.NewServer(s.handler())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record, s.auth, s.inject)

	e.GET("/boards", s.listBoards)
	e.POST("/boards", s.createBoard)
	e.GET("/boards/:board", s.getBoard)
	e.PUT("/boards/:board", s.updateBoard)
	e.DELETE("/boards/:board", s.deleteBoard)
	e.POST("/boards/:board/invite", s.invite)
	e.POST("/boards/:board/invite/respond", s.respondInvite)

	e.GET("/boards/:board/cards", s.listCards)
	e.POST("/boards/:board/cards", s.createCard)
	e.PUT("/boards/:board/cards/:card", s.updateCard)
	e.DELETE("/boards/:board/cards/:card", s.deleteCard)

	e.GET("/boards/:board/cards/:card/tasks", s.listTasks)
	e.POST("/boards/:board/cards/:card/tasks", s.createTask)
	e.PUT("/boards/:board/cards/:card/tasks/:task", s.updateTask)
	e.DELETE("/boards/:board/cards/:card/tasks/:task", s.deleteTask)

	e.GET("/boards/:board/cards/:card/tasks/:task/assign", s.listAssignees)
	e.POST("/boards/:board/cards/:card/tasks/:task/assign", s.assign)
	e.DELETE("/boards/:board/cards/:card/tasks/:task/assign/:member", s.unassign)
	return e
}

// Seeding and inspection.

func (s *Server) AddBoard(b model.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = append(s.boards, b.Clone())
}

func (s *Server) AddCard(boardID string, c model.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[boardID] = append(s.cards[boardID], c.Clone())
}

func (s *Server) AddTask(cardID string, t model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[cardID] = append(s.tasks[cardID], t)
}

func (s *Server) SetAssignees(taskID string, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignees[taskID] = append([]string(nil), members...)
}

// Fail makes every request matching method and path answer status until
// ClearFailures.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the recorded requests matching method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) Cards(boardID string) []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, 0, len(s.cards[boardID]))
	for _, c := range s.cards[boardID] {
		out = append(out, c.Clone())
	}
	return out
}

func (s *Server) Tasks(cardID string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks[cardID]...)
}

func (s *Server) Assignees(taskID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.assignees[taskID]...)
}

// Middleware.

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: req.Method,
			Path:   req.URL.Path,
			Body:   body,
			Header: req.Header.Clone(),
		})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.Token == "" {
			return next(c)
		}
		h := c.Request().Header.Get(echo.HeaderAuthorization)
		if h != "Bearer "+s.Token {
			return errorJSON(c, http.StatusUnauthorized, "invalid token")
		}
		return next(c)
	}
}

func (s *Server) inject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		status, ok := s.failures[c.Request().Method+" "+c.Request().URL.Path]
		s.mu.Unlock()
		if ok {
			return errorJSON(c, status, http.StatusText(status))
		}
		return next(c)
	}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// Handlers. Each takes the lock for its whole body.

func (s *Server) boardIndex(id string) int {
	for i, b := range s.boards {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) listBoards(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Board, 0, len(s.boards))
	for _, b := range s.boards {
		out = append(out, b.Clone())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getBoard(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.boardIndex(c.Param("board"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "board not found")
	}
	return c.JSON(http.StatusOK, s.boards[i].Clone())
}

type boardBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createBoard(c echo.Context) error {
	var in boardBody
	if err := c.Bind(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, "board name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := model.Board{ID: uuid.NewString(), Name: in.Name, Description: in.Description, Members: []string{}}
	s.boards = append(s.boards, b)
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBoard(c echo.Context) error {
	var in boardBody
	if err := c.Bind(&in); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.boardIndex(c.Param("board"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "board not found")
	}
	s.boards[i].Name = in.Name
	s.boards[i].Description = in.Description
	return c.JSON(http.StatusOK, s.boards[i].Clone())
}

func (s *Server) deleteBoard(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.boardIndex(c.Param("board"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "board not found")
	}
	s.boards = append(s.boards[:i], s.boards[i+1:]...)
	delete(s.cards, c.Param("board"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) invite(c echo.Context) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&in); err != nil || strings.TrimSpace(in.Email) == "" {
		return errorJSON(c, http.StatusBadRequest, "email is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boardIndex(c.Param("board")) < 0 {
		return errorJSON(c, http.StatusNotFound, "board not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Invitation sent to " + in.Email})
}

func (s *Server) respondInvite(c echo.Context) error {
	var in struct {
		Email    string `json:"email"`
		Response string `json:"response"`
	}
	if err := c.Bind(&in); err != nil || in.Email == "" || in.Response == "" {
		return errorJSON(c, http.StatusBadRequest, "missing required information")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.boardIndex(c.Param("board"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "board not found")
	}
	if in.Response != "accept" {
		return c.JSON(http.StatusOK, map[string]string{"message": "Invitation declined"})
	}
	if !perm.IsBoardMember(s.boards[i], in.Email) {
		s.boards[i].Members = append(s.boards[i].Members, in.Email)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Invitation accepted"})
}

func (s *Server) listCards(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, 0, len(s.cards[c.Param("board")]))
	for _, card := range s.cards[c.Param("board")] {
		out = append(out, card.Clone())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) cardIndex(boardID, cardID string) int {
	for i, card := range s.cards[boardID] {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}

type cardBody struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      model.Status `json:"status"`
}

func (s *Server) createCard(c echo.Context) error {
	var in cardBody
	if err := c.Bind(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, "card name is required")
	}
	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	card := model.Card{ID: uuid.NewString(), Name: in.Name, Description: in.Description, Status: in.Status}
	s.cards[c.Param("board")] = append(s.cards[c.Param("board")], card)
	return c.JSON(http.StatusCreated, card)
}

func (s *Server) updateCard(c echo.Context) error {
	var in cardBody
	if err := c.Bind(&in); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	boardID := c.Param("board")
	i := s.cardIndex(boardID, c.Param("card"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "card not found")
	}
	card := &s.cards[boardID][i]
	card.Name = in.Name
	card.Description = in.Description
	if in.Status != "" {
		card.Status = in.Status
	}
	return c.JSON(http.StatusOK, card.Clone())
}

func (s *Server) deleteCard(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	boardID := c.Param("board")
	i := s.cardIndex(boardID, c.Param("card"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "card not found")
	}
	s.cards[boardID] = append(s.cards[boardID][:i], s.cards[boardID][i+1:]...)
	delete(s.tasks, c.Param("card"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listTasks(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.Task{}, s.tasks[c.Param("card")]...)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createTask(c echo.Context) error {
	var in struct {
		Title       string       `json:"title"`
		Description string       `json:"description"`
		Status      model.Status `json:"status"`
	}
	if err := c.Bind(&in); err != nil || strings.TrimSpace(in.Title) == "" {
		return errorJSON(c, http.StatusBadRequest, "task title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cardID := c.Param("card")
	t := model.Task{ID: uuid.NewString(), Title: in.Title, Description: in.Description, Status: in.Status, CardID: cardID}
	s.tasks[cardID] = append(s.tasks[cardID], t)
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) taskIndex(cardID, taskID string) int {
	for i, t := range s.tasks[cardID] {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

// updateTask re-parents the task when cardId differs from the path card.
func (s *Server) updateTask(c echo.Context) error {
	var in struct {
		Status model.Status `json:"status"`
		CardID string       `json:"cardId"`
	}
	if err := c.Bind(&in); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src := c.Param("card")
	i := s.taskIndex(src, c.Param("task"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	t := s.tasks[src][i]
	if in.Status != "" {
		t.Status = in.Status
	}
	dst := in.CardID
	if dst == "" || dst == src {
		s.tasks[src][i] = t
		return c.JSON(http.StatusOK, t)
	}
	s.tasks[src] = append(s.tasks[src][:i], s.tasks[src][i+1:]...)
	t.CardID = dst
	s.tasks[dst] = append(s.tasks[dst], t)
	return c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cardID := c.Param("card")
	i := s.taskIndex(cardID, c.Param("task"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	s.tasks[cardID] = append(s.tasks[cardID][:i], s.tasks[cardID][i+1:]...)
	delete(s.assignees, c.Param("task"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listAssignees(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Assignment, 0, len(s.assignees[c.Param("task")]))
	for _, m := range s.assignees[c.Param("task")] {
		out = append(out, model.Assignment{MemberID: m})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) assign(c echo.Context) error {
	var in model.Assignment
	if err := c.Bind(&in); err != nil || strings.TrimSpace(in.MemberID) == "" {
		return errorJSON(c, http.StatusBadRequest, "memberId is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.boardIndex(c.Param("board"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "board not found")
	}
	if !perm.IsBoardMember(s.boards[i], in.MemberID) {
		return errorJSON(c, http.StatusForbidden, "member not in board")
	}
	taskID := c.Param("task")
	for _, m := range s.assignees[taskID] {
		if m == in.MemberID {
			return c.NoContent(http.StatusOK)
		}
	}
	s.assignees[taskID] = append(s.assignees[taskID], in.MemberID)
	return c.NoContent(http.StatusOK)
}

func (s *Server) unassign(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	taskID := c.Param("task")
	member := c.Param("member")
	kept := s.assignees[taskID][:0]
	for _, m := range s.assignees[taskID] {
		if m != member {
			kept = append(kept, m)
		}
	}
	s.assignees[taskID] = kept
	return c.NoContent(http.StatusNoContent)
}
