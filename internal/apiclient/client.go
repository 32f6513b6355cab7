// Package apiclient is the typed gateway to the clinic REST backend. It
// attaches the bearer token to every authenticated call, normalizes errors,
// and coordinates token refresh on 401 responses.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Znbmels/keremet/internal/observability/metrics"
	"github.com/Znbmels/keremet/internal/session"
	"github.com/Znbmels/keremet/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Options configures a Client.
type Options struct {
	// APIBaseURL covers the /api group, AuthBaseURL the unprefixed /auth
	// group. Both without trailing slash.
	APIBaseURL  string
	AuthBaseURL string

	Store   session.Store
	Logger  *logging.Logger
	Metrics *metrics.ClientMetrics

	Timeout time.Duration
	// RefreshBuffer triggers a proactive refresh when the access token's exp
	// claim is closer than this. Zero disables the proactive path.
	RefreshBuffer time.Duration

	// OnSessionEnd fires exactly once per failed refresh, after the session
	// store has been cleared.
	OnSessionEnd func()

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the clinic backend.
type Client struct {
	apiBase       string
	authBase      string
	httpClient    *http.Client
	store         session.Store
	refresher     *Refresher
	logger        *logging.Logger
	metrics       *metrics.ClientMetrics
	tracer        trace.Tracer
	refreshBuffer time.Duration
}

// New creates a clinic backend client.
func New(opts Options) (*Client, error) {
	if opts.APIBaseURL == "" {
		return nil, fmt.Errorf("apiclient: APIBaseURL is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("apiclient: session store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	authBase := strings.TrimSuffix(opts.AuthBaseURL, "/")
	if authBase == "" {
		authBase = strings.TrimSuffix(strings.TrimSuffix(opts.APIBaseURL, "/"), "/api")
	}

	c := &Client{
		apiBase:       strings.TrimSuffix(opts.APIBaseURL, "/"),
		authBase:      authBase,
		httpClient:    httpClient,
		store:         opts.Store,
		logger:        logger,
		metrics:       opts.Metrics,
		tracer:        otel.Tracer("keremet/apiclient"),
		refreshBuffer: opts.RefreshBuffer,
	}
	c.refresher = newRefresher(refresherConfig{
		refreshURL:   authBase + "/auth/refresh/",
		store:        opts.Store,
		httpClient:   httpClient,
		logger:       logger,
		metrics:      opts.Metrics,
		onSessionEnd: opts.OnSessionEnd,
	})
	return c, nil
}

// Store exposes the session store, for the presentation layer's own reads.
func (c *Client) Store() session.Store { return c.store }

// request is one backend call. The body is held as bytes so a 401-triggered
// retry can replay it.
type request struct {
	op          string // stable label for metrics and traces
	method      string
	base        string
	path        string
	query       url.Values
	body        []byte
	contentType string
	noAuth      bool // login/register/refresh never attach a bearer token
}

func jsonBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("apiclient: marshal request: %w", err)
	}
	return data, nil
}

// do executes a request, refreshing the access token and retrying exactly
// once on 401. It never loops: a second 401 is surfaced to the caller.
func (c *Client) do(ctx context.Context, req request, out any) error {
	ctx, span := c.tracer.Start(ctx, req.op, trace.WithAttributes(
		attribute.String("http.method", req.method),
		attribute.String("http.path", req.path),
	))
	defer span.End()

	token := ""
	if !req.noAuth {
		sess, err := c.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("apiclient: load session: %w", err)
		}
		if sess != nil {
			token = sess.AccessToken
			fresh, err := c.proactiveRefresh(ctx, token)
			if err != nil {
				span.RecordError(err)
				return err
			}
			if fresh != "" {
				token = fresh
			}
		}
	}

	start := time.Now()
	status, body, err := c.roundTrip(ctx, req, token)
	if err != nil {
		c.observe(req, "error", start)
		span.RecordError(err)
		return fmt.Errorf("apiclient: %s: %w", req.op, err)
	}

	if status == http.StatusUnauthorized && !req.noAuth {
		fresh, refreshErr := c.refresher.Refresh(ctx)
		if refreshErr != nil {
			c.observe(req, strconv.Itoa(status), start)
			return refreshErr
		}
		status, body, err = c.roundTrip(ctx, req, fresh)
		if err != nil {
			c.observe(req, "error", start)
			span.RecordError(err)
			return fmt.Errorf("apiclient: %s: %w", req.op, err)
		}
	}

	c.observe(req, strconv.Itoa(status), start)
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return newAPIError(status, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("apiclient: %s: decode response: %w", req.op, err)
	}
	return nil
}

// proactiveRefresh renews a JWT access token that is about to expire, so the
// call does not have to eat a guaranteed 401 first. Opaque tokens are left to
// the 401 path. A dead session is surfaced immediately: the refresher has
// already cleared the store and fired the session-ended signal, and sending
// the doomed request would only have the 401 path end the session a second
// time.
func (c *Client) proactiveRefresh(ctx context.Context, token string) (string, error) {
	if c.refreshBuffer <= 0 || token == "" {
		return "", nil
	}
	exp, ok := session.TokenExpiry(token)
	if !ok || time.Until(exp) > c.refreshBuffer {
		return "", nil
	}
	fresh, err := c.refresher.Refresh(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return "", err
		}
		// A store hiccup falls back to the 401 path.
		return "", nil
	}
	return fresh, nil
}

func (c *Client) roundTrip(ctx context.Context, req request, token string) (int, []byte, error) {
	endpoint := req.base + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		bodyReader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.body != nil {
		contentType := req.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" && !req.noAuth {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) observe(req request, status string, start time.Time) {
	c.metrics.ObserveRequest(req.method, req.op, status, time.Since(start).Seconds())
}
