package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.MemoryStore, *atomic.Int32) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	store := session.NewMemoryStore()
	var sessionEnded atomic.Int32
	c, err := New(Options{
		APIBaseURL:   ts.URL + "/api",
		AuthBaseURL:  ts.URL,
		Store:        store,
		OnSessionEnd: func() { sessionEnded.Add(1) },
	})
	require.NoError(t, err)
	return c, store, &sessionEnded
}

func seedSession(t *testing.T, store session.Store, access, refresh string) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), &session.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         clinic.RolePatient,
		UserID:       7,
		DisplayName:  "Aigerim Bekova",
	}))
}

func TestLoginStoresSessionAndAttachesBearer(t *testing.T) {
	var doctorAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "a@x.com", creds["email"])
		assert.Equal(t, "p", creds["password"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access": "acc-token", "refresh": "ref-token",
			"user_role": "PATIENT", "user_id": 7, "full_name": "Aigerim Bekova",
		})
	})
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		doctorAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]clinic.Doctor{{ID: 1, FirstName: "Dana", LastName: "Serik"}})
	})

	c, store, _ := newTestClient(t, mux)

	sess, err := c.Login(context.Background(), "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, clinic.RolePatient, sess.Role)
	assert.Equal(t, "acc-token", sess.AccessToken)
	assert.Equal(t, "ref-token", sess.RefreshToken)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, sess, stored)

	_, err = c.Doctors(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer acc-token", doctorAuth)
}

func TestLoginErrorMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "", http.StatusNotFound)
	})
	c, _, _ := newTestClient(t, mux)

	_, err := c.Login(context.Background(), "nobody@x.com", "p")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message(), "No account")
}

func TestRefreshAndRetryOnce(t *testing.T) {
	var refreshCalls atomic.Int32
	var retriedAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		retriedAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]clinic.Doctor{{ID: 1}})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ref-1", body["refresh"])
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "new", "refresh": "ref-2"})
	})

	c, store, ended := newTestClient(t, mux)
	seedSession(t, store, "stale", "ref-1")

	doctors, err := c.Doctors(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Bearer new", retriedAuth)
	assert.Equal(t, int32(1), refreshCalls.Load(), "exactly one refresh call")
	assert.Equal(t, int32(0), ended.Load())

	// Both tokens were replaced together.
	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", sess.AccessToken)
	assert.Equal(t, "ref-2", sess.RefreshToken)
}

func TestRepeated401SurfacesWithoutLooping(t *testing.T) {
	var apiCalls, refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "new", "refresh": "ref-2"})
	})

	c, store, _ := newTestClient(t, mux)
	seedSession(t, store, "stale", "ref-1")

	_, err := c.Doctors(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(2), apiCalls.Load(), "original call plus one retry, never more")
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestRefreshFailureClearsSessionAndSignalsOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store, ended := newTestClient(t, mux)
	seedSession(t, store, "stale", "dead-refresh")

	_, err := c.Doctors(context.Background(), "")
	require.ErrorIs(t, err, ErrSessionExpired)

	sess, loadErr := store.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Nil(t, sess, "session must be cleared entirely")
	assert.Equal(t, int32(1), ended.Load(), "session-ended signal fires exactly once")
}

func TestMissingRefreshTokenEndsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store, ended := newTestClient(t, mux)
	seedSession(t, store, "stale", "")

	_, err := c.Doctors(context.Background(), "")
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), ended.Load())
}

func TestConcurrent401sCollapseToOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]clinic.Doctor{{ID: 1}})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		// Hold the refresh open long enough for every caller's 401 to land.
		time.Sleep(150 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "new", "refresh": "ref-2"})
	})

	c, store, ended := newTestClient(t, mux)
	seedSession(t, store, "stale", "ref-1")

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Doctors(context.Background(), "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load(), "concurrent 401s must share one refresh")
	assert.Equal(t, int32(0), ended.Load())
}

func TestValidationErrorsSurfaceVerbatim(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/appointments/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string][]string{
			"time_slot_id": {"This slot is already booked."},
		})
	})

	c, store, _ := newTestClient(t, mux)
	seedSession(t, store, "acc", "ref")

	_, err := c.CreateAppointment(context.Background(), 1, 2)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "This slot is already booked.", apiErr.Detail)
	assert.Equal(t, []string{"This slot is already booked."}, apiErr.Fields["time_slot_id"])
}

func TestLogoutClearsSession(t *testing.T) {
	c, store, _ := newTestClient(t, http.NewServeMux())
	seedSession(t, store, "acc", "ref")

	require.NoError(t, c.Logout(context.Background()))
	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func newTestClientWithBuffer(t *testing.T, handler http.Handler, buffer time.Duration) (*Client, *session.MemoryStore, *atomic.Int32) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	store := session.NewMemoryStore()
	var sessionEnded atomic.Int32
	c, err := New(Options{
		APIBaseURL:    ts.URL + "/api",
		AuthBaseURL:   ts.URL,
		Store:         store,
		RefreshBuffer: buffer,
		OnSessionEnd:  func() { sessionEnded.Add(1) },
	})
	require.NoError(t, err)
	return c, store, &sessionEnded
}

func expiringToken(t *testing.T, in time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(in).Unix()})
	signed, err := tok.SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return signed
}

func TestProactiveRefreshRenewsExpiringToken(t *testing.T) {
	var refreshCalls, apiCalls atomic.Int32
	var doctorAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		doctorAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]clinic.Doctor{{ID: 1}})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "new", "refresh": "ref-2"})
	})

	c, store, ended := newTestClientWithBuffer(t, mux, 30*time.Second)
	seedSession(t, store, expiringToken(t, 5*time.Second), "ref-1")

	_, err := c.Doctors(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int32(1), refreshCalls.Load(), "near-expiry token refreshed before the call")
	assert.Equal(t, int32(1), apiCalls.Load(), "the call itself goes out once")
	assert.Equal(t, "Bearer new", doctorAuth, "the call carries the renewed token")
	assert.Equal(t, int32(0), ended.Load())

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "new", stored.AccessToken)
	assert.Equal(t, "ref-2", stored.RefreshToken)
}

func TestProactiveRefreshSkipsFreshAndOpaqueTokens(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]clinic.Doctor{})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})

	c, store, _ := newTestClientWithBuffer(t, mux, 30*time.Second)

	seedSession(t, store, expiringToken(t, time.Hour), "ref-1")
	_, err := c.Doctors(context.Background(), "")
	require.NoError(t, err)

	seedSession(t, store, "opaque-bearer-string", "ref-1")
	_, err = c.Doctors(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int32(0), refreshCalls.Load(), "neither a fresh JWT nor an opaque token triggers a refresh")
}

func TestProactiveRefreshFailureEndsSessionOnce(t *testing.T) {
	var apiCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store, ended := newTestClientWithBuffer(t, mux, 30*time.Second)
	seedSession(t, store, expiringToken(t, 5*time.Second), "dead-ref")

	_, err := c.Doctors(context.Background(), "")
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), ended.Load(), "the session-ended signal fires exactly once")
	assert.Equal(t, int32(0), apiCalls.Load(), "the doomed request is never sent")

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess, "the dead session is cleared")
}
