// Package remote is the HTTP client for the board service.
//
// Every call carries a bearer token, a JSON content type and an X-Request-ID,
// runs inside an OpenTelemetry span named remote.<Op>, and maps non-2xx
// responses to *StatusError (401/403/404 unwrap to the package sentinels).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "http://localhost:3000/"

	tracerName    = "kanban-cli/internal/remote"
	maxErrorBody  = 64 << 10
	requestIDHead = "X-Request-ID"
)

type Options struct {
	BaseURL string
	Token   string

	// HTTPClient is the base client; the bearer transport wraps its transport.
	HTTPClient *http.Client

	// OnUnauthorized runs when the token is expired locally or the server
	// answers 401. The CLI uses it to drop the stored token.
	OnUnauthorized func(err error)

	TracerProvider trace.TracerProvider
	Now            func() time.Time
}

type Client struct {
	baseURL        string
	token          string
	http           *http.Client
	onUnauthorized func(error)
	tracer         trace.Tracer
	now            func() time.Time
}

func New(opts Options) *Client {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	token := strings.TrimSpace(opts.Token)
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		authed.Timeout = hc.Timeout
		hc = authed
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:        strings.TrimRight(base, "/"),
		token:          token,
		http:           hc,
		onUnauthorized: opts.OnUnauthorized,
		tracer:         tp.Tracer(tracerName),
		now:            now,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// call describes one request. path is already escaped.
type call struct {
	op     string
	method string
	path   string
	attrs  []attribute.KeyValue
	body   any
	out    any
	// wantCreated requires exactly 201 instead of any 2xx.
	wantCreated bool
}

func (c *Client) do(ctx context.Context, rc call) (err error) {
	ctx, span := c.tracer.Start(ctx, "remote."+rc.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("http.method", rc.method),
			attribute.String("http.route", rc.path),
		}, rc.attrs...)...),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.token != "" && TokenExpired(c.token, c.now()) {
		c.unauthorized(ErrTokenExpired)
		return ErrTokenExpired
	}

	var body io.Reader
	if rc.body != nil {
		b, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", rc.op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL+rc.path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", rc.op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(requestIDHead, reqID)
	span.SetAttributes(attribute.String("request.id", reqID))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", rc.op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(serr)
		}
		return serr
	}
	if rc.wantCreated && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s: expected 201, got %d", rc.op, resp.StatusCode)
	}
	if rc.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", rc.op, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, rc.out); err != nil {
		return fmt.Errorf("%s: decode response: %w", rc.op, err)
	}
	return nil
}

func (c *Client) unauthorized(err error) {
	if c.onUnauthorized != nil {
		c.onUnauthorized(err)
	}
}

// errorMessage pulls the "error" (or "message") field out of a JSON error body.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &payload) == nil {
		if s := strings.TrimSpace(payload.Error); s != "" {
			return s
		}
		if s := strings.TrimSpace(payload.Message); s != "" {
			return s
		}
		return ""
	}
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// IsAuth reports whether err means the session is no longer usable.
func IsAuth(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrUnauthorized)
}
