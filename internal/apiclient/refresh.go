package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/Znbmels/keremet/internal/observability/metrics"
	"github.com/Znbmels/keremet/internal/session"
	"github.com/Znbmels/keremet/pkg/logging"
)

// Refresher exchanges the stored refresh token for a new token pair.
// Concurrent 401s collapse onto one in-flight refresh call: every waiter
// observes the outcome of that single call, so the backend never sees
// parallel refreshes and no waiter is lost between check and set.
type Refresher struct {
	group        singleflight.Group
	refreshURL   string
	store        session.Store
	httpClient   *http.Client
	logger       *logging.Logger
	metrics      *metrics.ClientMetrics
	onSessionEnd func()
}

type refresherConfig struct {
	refreshURL   string
	store        session.Store
	httpClient   *http.Client
	logger       *logging.Logger
	metrics      *metrics.ClientMetrics
	onSessionEnd func()
}

func newRefresher(cfg refresherConfig) *Refresher {
	return &Refresher{
		refreshURL:   cfg.refreshURL,
		store:        cfg.store,
		httpClient:   cfg.httpClient,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		onSessionEnd: cfg.onSessionEnd,
	}
}

// Refresh returns a valid access token, issuing at most one refresh call no
// matter how many callers arrive while it is in flight. On failure the
// session is cleared and every waiter receives ErrSessionExpired.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	// The shared call must not die with the first waiter's context.
	v, err, _ := r.group.Do("refresh", func() (any, error) {
		return r.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Refresher) refresh(ctx context.Context) (string, error) {
	sess, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("apiclient: refresh: load session: %w", err)
	}
	if sess == nil || sess.RefreshToken == "" {
		return "", r.endSession(ctx, "no refresh token stored")
	}

	payload, err := json.Marshal(map[string]string{"refresh": sess.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("apiclient: refresh: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("apiclient: refresh: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", r.endSession(ctx, fmt.Sprintf("refresh call failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", r.endSession(ctx, fmt.Sprintf("read refresh response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", r.endSession(ctx, fmt.Sprintf("refresh rejected with status %d", resp.StatusCode))
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(body, &tokens); err != nil {
		return "", r.endSession(ctx, fmt.Sprintf("decode refresh response: %v", err))
	}
	if tokens.Access == "" {
		return "", r.endSession(ctx, "refresh response missing access token")
	}
	if tokens.Refresh == "" {
		// Backend without rotation keeps the old refresh token valid.
		tokens.Refresh = sess.RefreshToken
	}

	// Replace the pair wholesale so the tokens never go stale independently.
	next := *sess
	next.AccessToken = tokens.Access
	next.RefreshToken = tokens.Refresh
	if err := r.store.Save(ctx, &next); err != nil {
		return "", fmt.Errorf("apiclient: refresh: save session: %w", err)
	}

	r.metrics.ObserveRefresh("success")
	r.logger.Info("session refreshed", "user_id", sess.UserID)
	return tokens.Access, nil
}

// endSession clears the stored session and emits the session-ended signal.
// It runs inside the collapsed singleflight call, so the signal fires exactly
// once per failed refresh regardless of how many callers were waiting.
func (r *Refresher) endSession(ctx context.Context, reason string) error {
	r.metrics.ObserveRefresh("failure")
	r.logger.Warn("session ended", "reason", reason)
	if err := r.store.Clear(ctx); err != nil {
		r.logger.Error("failed to clear session", "error", err)
	}
	if r.onSessionEnd != nil {
		r.onSessionEnd()
	}
	return ErrSessionExpired
}
