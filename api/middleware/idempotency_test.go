package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "fake:" + scope + ":" + id
}

func adjustmentRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/venues/v1/adjustments", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	return payload.Error.Code
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, nil, MoneyIdempotencyTTL)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, adjustmentRequest("", `{"amount":100}`))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", rec.Code)
		}
	}
	if calls != 2 || len(store.data) != 0 {
		t.Fatalf("requests without a key must not be deduplicated")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, nil, MoneyIdempotencyTTL)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, adjustmentRequest("abc", `{"amount":100}`))
	if first.Code != http.StatusCreated || first.Header().Get(replayedHeader) != "" {
		t.Fatalf("unexpected first response %d %v", first.Code, first.Header())
	}
	for key, ttl := range store.ttls {
		if ttl != MoneyIdempotencyTTL {
			t.Fatalf("%s stored with ttl %s", key, ttl)
		}
	}

	replayed := httptest.NewRecorder()
	handler.ServeHTTP(replayed, adjustmentRequest("abc", `{"amount":100}`))
	if replayed.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", replayed.Code)
	}
	if replayed.Header().Get("Content-Type") != "application/json" || replayed.Header().Get(replayedHeader) != "true" {
		t.Fatalf("unexpected replay headers %v", replayed.Header())
	}
	if replayed.Body.String() != `{"ok":true}` {
		t.Fatalf("expected stored body got %s", replayed.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	store := newFakeStore()
	status := http.StatusUnprocessableEntity
	var calls int
	handler := Idempotency(store, nil, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), adjustmentRequest("retry-me", `{}`))
	if len(store.data) != 0 {
		t.Fatalf("failed responses must release the key, got %v", store.data)
	}

	status = http.StatusOK
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adjustmentRequest("retry-me", `{}`))
	if rec.Code != http.StatusOK || calls != 2 {
		t.Fatalf("retry should run the handler again: code=%d calls=%d", rec.Code, calls)
	}
	for _, ttl := range store.ttls {
		if ttl != DefaultIdempotencyTTL {
			t.Fatalf("zero ttl should fall back to default, got %s", ttl)
		}
	}
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), adjustmentRequest("xyz", `{"amount":100}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adjustmentRequest("xyz", `{"amount":200}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeIdempotency, code)
	}
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	var inner http.Handler
	outer := Idempotency(store, nil, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the same key arrives again while this request is still running
		rec := httptest.NewRecorder()
		inner.ServeHTTP(rec, adjustmentRequest("dup", `{"amount":1}`))
		if rec.Code != http.StatusConflict {
			t.Errorf("expected in-flight duplicate to get 409, got %d", rec.Code)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	inner = outer

	rec := httptest.NewRecorder()
	outer.ServeHTTP(rec, adjustmentRequest("dup", `{"amount":1}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected original request to succeed, got %d", rec.Code)
	}
}

func TestIdempotencyRejectsLongKey(t *testing.T) {
	handler := Idempotency(newFakeStore(), nil, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adjustmentRequest(strings.Repeat("k", maxIdempotencyKey+1), `{}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
