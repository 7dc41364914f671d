package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"kanban-cli/internal/boardtest"
	"kanban-cli/internal/model"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "alice@example.com",
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
	})
	return tp, exporter
}

func seed(srv *boardtest.Server) {
	srv.AddBoard(model.Board{ID: "b1", Name: "Launch", Members: []string{"alice@example.com"}})
	srv.AddCard("b1", model.Card{ID: "c1", Name: "Spec", Status: model.StatusTodo})
	srv.AddCard("b1", model.Card{ID: "c2", Name: "Build", Status: model.StatusDoing})
	srv.AddTask("c1", model.Task{ID: "t1", Title: "Outline"})
}

func TestClient_SendsBearerJSONAndRequestID(t *testing.T) {
	srv := boardtest.New(t)
	seed(srv)
	token := signedToken(t, time.Now().Add(time.Hour))
	srv.Token = token

	c := New(Options{BaseURL: srv.URL, Token: token})
	cards, err := c.ListCards(context.Background(), "b1")
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "c1" || cards[1].Status != model.StatusDoing {
		t.Fatalf("expected server order with statuses; got %+v", cards)
	}

	reqs := srv.RequestsTo(http.MethodGet, "/boards/b1/cards")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request; got %d", len(reqs))
	}
	h := reqs[0].Header
	if got := h.Get("Authorization"); got != "Bearer "+token {
		t.Fatalf("expected bearer header; got %q", got)
	}
	if got := h.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type; got %q", got)
	}
	if _, err := uuid.Parse(h.Get("X-Request-ID")); err != nil {
		t.Fatalf("expected uuid request id; got %q", h.Get("X-Request-ID"))
	}
}

func TestClient_ExpiredTokenLogsOutWithoutRequest(t *testing.T) {
	srv := boardtest.New(t)
	seed(srv)

	var hookErr error
	c := New(Options{
		BaseURL:        srv.URL,
		Token:          signedToken(t, time.Now().Add(-time.Minute)),
		OnUnauthorized: func(err error) { hookErr = err },
	})
	_, err := c.ListCards(context.Background(), "b1")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired; got %v", err)
	}
	if !errors.Is(hookErr, ErrTokenExpired) {
		t.Fatalf("expected logout hook with ErrTokenExpired; got %v", hookErr)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Fatalf("expected no request to reach the server; got %d", n)
	}
}

func TestClient_UnauthorizedTriggersHook(t *testing.T) {
	srv := boardtest.New(t)
	seed(srv)
	srv.Token = "server-side"

	calls := 0
	c := New(Options{BaseURL: srv.URL, Token: "opaque-token", OnUnauthorized: func(error) { calls++ }})
	_, err := c.ListBoards(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized; got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected hook once; got %d", calls)
	}
}

func TestClient_StatusErrorCarriesServerMessage(t *testing.T) {
	srv := boardtest.New(t)
	seed(srv)

	c := New(Options{BaseURL: srv.URL})
	ref := model.TaskRef{BoardID: "b1", CardID: "c1", TaskID: "t1"}
	err := c.AssignMember(context.Background(), ref, "mallory@example.com")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden; got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "member not in board" {
		t.Fatalf("expected server message in StatusError; got %#v", err)
	}

	srv.Fail(http.MethodPut, "/boards/b1/cards/c1", http.StatusInternalServerError)
	err = c.UpdateCard(context.Background(), "b1", "c1", CardInput{Name: "Spec", Status: model.StatusDoing})
	if StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500 status error; got %v", err)
	}
}

func TestClient_UpdateTaskBody(t *testing.T) {
	srv := boardtest.New(t)
	seed(srv)

	c := New(Options{BaseURL: srv.URL})
	ref := model.TaskRef{BoardID: "b1", CardID: "c1", TaskID: "t1"}
	if err := c.UpdateTask(context.Background(), ref, TaskMove{Status: model.StatusDoing, CardID: "c2"}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	reqs := srv.RequestsTo(http.MethodPut, "/boards/b1/cards/c1/tasks/t1")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 PUT; got %d", len(reqs))
	}
	var body map[string]any
	if err := json.Unmarshal(reqs[0].Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "doing" || body["cardId"] != "c2" || len(body) != 2 {
		t.Fatalf("expected {status:doing, cardId:c2}; got %v", body)
	}
	if got := srv.Tasks("c2"); len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("expected task re-parented on server; got %+v", got)
	}
}

func TestClient_CreateCardRequiresID(t *testing.T) {
	srv := boardtest.New(t)
	seed(srv)

	c := New(Options{BaseURL: srv.URL})
	card, err := c.CreateCard(context.Background(), "b1", CardInput{Name: "Ship"})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if card.ID == "" || card.Status != model.StatusTodo {
		t.Fatalf("expected id and default todo status; got %+v", card)
	}
	if _, err := c.CreateCard(context.Background(), "b1", CardInput{Name: "  "}); err == nil {
		t.Fatalf("expected empty name to be rejected locally")
	}
}

func TestClient_GetBoardDefaultsMembers(t *testing.T) {
	srv := boardtest.New(t)
	srv.AddBoard(model.Board{ID: "b2", Name: "Empty"})

	c := New(Options{BaseURL: srv.URL})
	b, err := c.GetBoard(context.Background(), "b2")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if b.Members == nil || len(b.Members) != 0 {
		t.Fatalf("expected empty non-nil members; got %#v", b.Members)
	}
}

func TestClient_SpansNamedPerOperation(t *testing.T) {
	srv := boardtest.New(t)
	seed(srv)
	tp, exporter := newTestTracer(t)

	c := New(Options{BaseURL: srv.URL, TracerProvider: tp})
	ref := model.TaskRef{BoardID: "b1", CardID: "c1", TaskID: "t1"}
	if _, err := c.ListAssignees(context.Background(), ref); err != nil {
		t.Fatalf("ListAssignees: %v", err)
	}
	srv.Fail(http.MethodGet, "/boards/b1/cards", http.StatusBadGateway)
	_, _ = c.ListCards(context.Background(), "b1")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans; got %d", len(spans))
	}
	if spans[0].Name != "remote.ListAssignees" {
		t.Fatalf("unexpected span name: %s", spans[0].Name)
	}
	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value.Emit()
	}
	if attrs["board.id"] != "b1" || attrs["card.id"] != "c1" || attrs["task.id"] != "t1" {
		t.Fatalf("expected board/card/task attributes; got %v", attrs)
	}
	if spans[1].Name != "remote.ListCards" || spans[1].Status.Code != codes.Error {
		t.Fatalf("expected failed ListCards span with error status; got %s %v", spans[1].Name, spans[1].Status)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	if TokenExpired(signedToken(t, now.Add(time.Hour)), now) {
		t.Fatalf("expected future exp to be valid")
	}
	if !TokenExpired(signedToken(t, now.Add(-time.Second)), now) {
		t.Fatalf("expected past exp to be expired")
	}
	if TokenExpired("not-a-jwt", now) {
		t.Fatalf("expected opaque tokens to never count as expired")
	}
	claims, err := Claims(signedToken(t, now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if got := Subject(claims); got != "alice@example.com" {
		t.Fatalf("expected email subject; got %q", got)
	}
}
